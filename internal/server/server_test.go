package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/code-review-assistant/internal/auth"
	"github.com/sakif/code-review-assistant/internal/config"
	"github.com/sakif/code-review-assistant/internal/llm"
	"github.com/sakif/code-review-assistant/internal/model"
)

const testSecret = "server-test-secret-0123456789"

// newTestServer wires a full Server against an in-memory database and a
// model that always returns reply.
func newTestServer(t *testing.T, reply string) (*httptest.Server, *auth.TokenService) {
	t.Helper()

	cfg := &config.Config{
		Port:               8080,
		DBPath:             ":memory:",
		JWTSecret:          testSecret,
		OpenAIModel:        "test-model",
		ModelTimeout:       5 * time.Second,
		MaxUploadBytes:     1 << 20,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}
	model := llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		return reply, nil
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(cfg, model, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	tokens, err := auth.NewTokenService(testSecret, "")
	require.NoError(t, err)
	return ts, tokens
}

func bearer(t *testing.T, tokens *auth.TokenService, subject string) string {
	t.Helper()
	token, err := tokens.Issue(auth.Identity{Subject: subject, Email: subject + "@example.com"}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(&config.Config{DBPath: ":memory:"}, nil, slog.Default())
	assert.Error(t, err)
}

func TestPublicRoutes(t *testing.T) {
	ts, _ := newTestServer(t, "{}")

	resp := do(t, mustRequest(t, http.MethodGet, ts.URL+"/public/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, mustRequest(t, http.MethodGet, ts.URL+"/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	ts, _ := newTestServer(t, "{}")

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/review-code"},
		{http.MethodPost, "/user/sync"},
		{http.MethodGet, "/user/history"},
	} {
		resp := do(t, mustRequest(t, route.method, ts.URL+route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, "{}")

	req := mustRequest(t, http.MethodOptions, ts.URL+"/review-code", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp := do(t, req)

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReviewThenHistory(t *testing.T) {
	ts, tokens := newTestServer(t, "```json\n{\"Summary\":\"fine\",\"Critical issues\":[\"none really\"]}\n```")
	authz := bearer(t, tokens, "user_e2e")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "Main.java")
	require.NoError(t, err)
	part.Write([]byte("class Main {}"))
	require.NoError(t, mw.Close())

	req := mustRequest(t, http.MethodPost, ts.URL+"/review-code", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", authz)
	resp := do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reviewed model.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reviewed))
	assert.Equal(t, "fine", reviewed.Summary)
	assert.False(t, reviewed.ReviewedAt.IsZero())

	req = mustRequest(t, http.MethodGet, ts.URL+"/user/history", nil)
	req.Header.Set("Authorization", authz)
	resp = do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []model.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, []string{"none really"}, history[0].CriticalIssues)
}

func TestSyncThenEmptyHistory(t *testing.T) {
	ts, tokens := newTestServer(t, "{}")
	authz := bearer(t, tokens, "user_sync")

	req := mustRequest(t, http.MethodPost, ts.URL+"/user/sync", nil)
	req.Header.Set("Authorization", authz)
	resp := do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = mustRequest(t, http.MethodGet, ts.URL+"/user/history", nil)
	req.Header.Set("Authorization", authz)
	resp = do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
}

func TestUndecodableModelOutputIsGeneric500(t *testing.T) {
	ts, tokens := newTestServer(t, "I'm sorry, I can only review code.")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "a.py")
	part.Write([]byte("print(1)"))
	mw.Close()

	req := mustRequest(t, http.MethodPost, ts.URL+"/review-code", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, tokens, "user_bad"))
	resp := do(t, req)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	got, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(got), "I'm sorry")
}

func mustRequest(t *testing.T, method, url string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	return req
}
