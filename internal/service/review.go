package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/auth"
	"github.com/sakif/code-review-assistant/internal/llm"
	"github.com/sakif/code-review-assistant/internal/logging"
	"github.com/sakif/code-review-assistant/internal/metrics"
	"github.com/sakif/code-review-assistant/internal/model"
	"github.com/sakif/code-review-assistant/internal/review"
)

// ReviewService runs the review pipeline end to end:
//
//	Resolve → BuildPrompt → Generate → Sanitize → Parse → Append
//
// The first failing stage aborts the request. Nothing is retried and nothing
// is persisted unless Parse succeeds.
type ReviewService struct {
	identities *IdentityService
	history    *HistoryService
	model      llm.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewReviewService creates a ReviewService. model should already carry the
// deployment's timeout (see llm.WithTimeout).
func NewReviewService(
	identities *IdentityService,
	history *HistoryService,
	model llm.Client,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		identities: identities,
		history:    history,
		model:      model,
		logger:     logger,
		now:        time.Now,
	}
}

// ReviewCode reviews content on behalf of id and appends the result to their
// history. filename is only used for its extension and may be empty.
//
// Failures carry one of apperror.ErrValidation (empty content),
// ErrIdentity, ErrModelInvocation, ErrSchemaDecode or ErrPersistence.
func (s *ReviewService) ReviewCode(ctx context.Context, id auth.Identity, content []byte, filename string) (model.Review, error) {
	log := logging.FromContext(ctx, s.logger)

	if len(content) == 0 {
		return model.Review{}, apperror.ValidationFailed("file", "file must not be empty")
	}

	user, err := s.identities.Resolve(ctx, id)
	if err != nil {
		metrics.RecordFailure(metrics.StageIdentity)
		log.Error("resolving identity failed", slog.String("subject", id.Subject), slog.Any("error", err))
		return model.Review{}, err
	}

	ext := review.FileExtension(filename)
	prompt := review.BuildPrompt(string(content), ext)

	start := time.Now()
	raw, err := s.model.Generate(ctx, prompt)
	metrics.ModelDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordFailure(metrics.StageModel)
		log.Error("model invocation failed",
			slog.String("userID", user.ID),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return model.Review{}, apperror.ModelInvocation(err)
	}

	candidate := review.Sanitize(raw)
	result, err := review.Parse(candidate)
	if err != nil {
		metrics.RecordFailure(metrics.StageDecode)
		log.Error("model output does not match review schema",
			slog.String("userID", user.ID),
			slog.String("candidate", candidate),
			slog.Any("error", err),
		)
		return model.Review{}, err
	}
	result.ReviewedAt = s.now().UTC()

	if _, err := s.history.Append(ctx, user, result); err != nil {
		metrics.RecordFailure(metrics.StagePersist)
		log.Error("saving review failed", slog.String("userID", user.ID), slog.Any("error", err))
		return model.Review{}, err
	}

	metrics.RecordSuccess()
	log.Info("code reviewed",
		slog.String("userID", user.ID),
		slog.String("extension", ext),
		slog.Int("bytes", len(content)),
		slog.Int("history", len(user.Reviews)),
	)
	return result, nil
}
