package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/auth"
	"github.com/sakif/code-review-assistant/internal/llm"
	"github.com/sakif/code-review-assistant/internal/logging"
	"github.com/sakif/code-review-assistant/internal/model"
)

const fencedReview = "```json\n" + `{
  "Language Detected": "Java",
  "Correct Code": "class A {}",
  "Time Complexity": "O(n)",
  "Space Complexity": "O(1)",
  "Summary": "Looks fine.",
  "Positive Feedback": ["clear naming"],
  "Critical issues": [],
  "Security Vulnerabilities": [],
  "Suggestions for improvement": ["add tests"],
  "Testability": ["pure functions"],
  "Confidence": 0.9
}` + "\n```"

// newTestReviewService wires a ReviewService around repo and a model that
// answers every prompt with reply.
func newTestReviewService(repo *fakeUserRepo, model llm.Client) *ReviewService {
	logger := discardLogger()
	return NewReviewService(
		NewIdentityService(repo, logger),
		NewHistoryService(repo, logger),
		model,
		logger,
	)
}

func replyWith(reply string) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		return reply, nil
	})
}

var testIdentity = auth.Identity{Subject: "user_2abc", Email: "ada@example.com"}

// =========================================================================
// SUCCESS PATH
// =========================================================================

func TestReviewCode_AppendsExactlyOneReview(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestReviewService(repo, replyWith(fencedReview))
	start := time.Now().UTC()

	got, err := svc.ReviewCode(context.Background(), testIdentity, []byte("class A {}"), "A.java")
	require.NoError(t, err)

	assert.Equal(t, "Java", got.LanguageDetected)
	assert.Equal(t, "O(n)", got.TimeComplexity)
	assert.Equal(t, []string{"add tests"}, got.SuggestionsForImprovement)
	assert.Equal(t, []string{}, got.CriticalIssues)
	assert.False(t, got.ReviewedAt.Before(start), "ReviewedAt %v before request start %v", got.ReviewedAt, start)

	stored := repo.stored("user_2abc")
	require.NotNil(t, stored)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, got, stored.Reviews[0])
}

func TestReviewCode_PromptCarriesSourceAndExtension(t *testing.T) {
	var seen string
	model := llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		seen = prompt
		return "{}", nil
	})
	svc := newTestReviewService(newFakeUserRepo(), model)

	_, err := svc.ReviewCode(context.Background(), testIdentity, []byte("print('hi')"), "scripts/hello.py")
	require.NoError(t, err)

	assert.Contains(t, seen, "print('hi')")
	assert.Contains(t, seen, ".py")
}

func TestReviewCode_AppendsToExistingHistory(t *testing.T) {
	repo := newFakeUserRepo()
	repo.seed(&model.User{Subject: "user_2abc", Reviews: []model.Review{{Summary: "earlier"}}})
	svc := newTestReviewService(repo, replyWith(`{"Summary":"later"}`))

	_, err := svc.ReviewCode(context.Background(), testIdentity, []byte("x"), "")
	require.NoError(t, err)

	stored := repo.stored("user_2abc")
	require.Len(t, stored.Reviews, 2)
	assert.Equal(t, "earlier", stored.Reviews[0].Summary)
	assert.Equal(t, "later", stored.Reviews[1].Summary)
}

// =========================================================================
// FAILURE PATHS
// =========================================================================

func TestReviewCode_EmptyContent(t *testing.T) {
	called := false
	model := llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		called = true
		return "{}", nil
	})
	repo := newFakeUserRepo()
	svc := newTestReviewService(repo, model)

	_, err := svc.ReviewCode(context.Background(), testIdentity, nil, "a.go")

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.False(t, called)
	assert.Equal(t, 0, repo.creates)
}

func TestReviewCode_IdentityFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = errors.New("connection refused")
	svc := newTestReviewService(repo, replyWith("{}"))

	_, err := svc.ReviewCode(context.Background(), testIdentity, []byte("x"), "a.go")
	assert.ErrorIs(t, err, apperror.ErrIdentity)
}

func TestReviewCode_ModelFailure(t *testing.T) {
	cause := errors.New("upstream 503")
	model := llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", cause
	})
	repo := newFakeUserRepo()
	svc := newTestReviewService(repo, model)

	_, err := svc.ReviewCode(context.Background(), testIdentity, []byte("x"), "a.go")

	assert.ErrorIs(t, err, apperror.ErrModelInvocation)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, repo.stored("user_2abc").Reviews)
}

func TestReviewCode_ModelTimeoutIsModelFailure(t *testing.T) {
	slow := llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc := newTestReviewService(newFakeUserRepo(), llm.WithTimeout(slow, 10*time.Millisecond))

	_, err := svc.ReviewCode(context.Background(), testIdentity, []byte("x"), "a.go")

	assert.ErrorIs(t, err, apperror.ErrModelInvocation)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReviewCode_DecodeFailureLogsAndPersistsNothing(t *testing.T) {
	var logs bytes.Buffer
	reqLogger := slog.New(slog.NewTextHandler(&logs, nil))
	ctx := logging.WithLogger(context.Background(), reqLogger)

	repo := newFakeUserRepo()
	svc := newTestReviewService(repo, replyWith("Sorry, I can't review this file."))

	_, err := svc.ReviewCode(ctx, testIdentity, []byte("x"), "a.go")

	var decodeErr *apperror.SchemaDecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "Sorry, I can't review this file.", decodeErr.Candidate)
	assert.NotErrorIs(t, err, apperror.ErrPersistence)

	assert.Empty(t, repo.stored("user_2abc").Reviews, "no partial review may be persisted")
	assert.Equal(t, 0, repo.saves)

	// The diagnostic goes to the request-scoped logger, not the service's.
	assert.True(t, strings.Contains(logs.String(), "Sorry, I can't review this file."), "logs = %s", logs.String())
}

func TestReviewCode_PersistenceFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.seed(&model.User{Subject: "user_2abc", Reviews: []model.Review{}})
	repo.saveErr = errors.New("disk full")
	svc := newTestReviewService(repo, replyWith("{}"))

	_, err := svc.ReviewCode(context.Background(), testIdentity, []byte("x"), "a.go")

	assert.ErrorIs(t, err, apperror.ErrPersistence)
	assert.NotErrorIs(t, err, apperror.ErrSchemaDecode)
}
