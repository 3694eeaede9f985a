package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/code-review-assistant/internal/logging"
)

func TestLogger_AttachesRequestScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context(), nil).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})
	h := chimiddleware.RequestID(Logger(base)(inner))

	req := httptest.NewRequest(http.MethodGet, "/user/history", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	out := buf.String()
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Contains(t, out, `msg="inside handler" request_id=req-42`)
	assert.Contains(t, out, `msg="request completed" request_id=req-42`)
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "bytes=15")
	assert.Contains(t, out, "path=/user/history")
}

func TestLogger_ServerErrorsLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	rr := httptest.NewRecorder()
	Logger(base)(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/review-code", nil))

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.NotContains(t, buf.String(), "request_id")
}
