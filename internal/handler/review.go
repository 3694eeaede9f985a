// Package handler contains the HTTP handlers. Handlers parse requests, call
// a service, and translate the result (or apperror kind) into JSON.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/auth"
	"github.com/sakif/code-review-assistant/internal/logging"
	"github.com/sakif/code-review-assistant/internal/model"
)

// multipartOverhead is the allowance for boundaries and part headers on top
// of the file size limit.
const multipartOverhead = 64 << 10

// Reviewer runs the review pipeline. *service.ReviewService implements it.
type Reviewer interface {
	ReviewCode(ctx context.Context, id auth.Identity, content []byte, filename string) (model.Review, error)
}

// IdentitySyncer copies token claims onto the caller's user document.
// *service.IdentityService implements it.
type IdentitySyncer interface {
	Sync(ctx context.Context, id auth.Identity) (*model.User, error)
}

// HistoryReader lists a subject's stored reviews.
// *service.HistoryService implements it.
type HistoryReader interface {
	History(ctx context.Context, subject string) ([]model.Review, error)
}

// ReviewHandler serves the authenticated review and user routes.
type ReviewHandler struct {
	reviews    Reviewer
	identities IdentitySyncer
	history    HistoryReader
	maxUpload  int64
	logger     *slog.Logger
}

// NewReviewHandler creates a ReviewHandler. maxUpload is the largest file,
// in bytes, that /review-code accepts.
func NewReviewHandler(
	reviews Reviewer,
	identities IdentitySyncer,
	history HistoryReader,
	maxUpload int64,
	logger *slog.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		reviews:    reviews,
		identities: identities,
		history:    history,
		maxUpload:  maxUpload,
		logger:     logger,
	}
}

// HandleReviewCode handles POST /review-code.
//
// Expects a multipart/form-data body with the source in the "file" field.
// Responds 200 with the Review, 400 when the file is missing, empty or too
// large, and a generic 500 when any pipeline stage fails.
func (h *ReviewHandler) HandleReviewCode(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	content, filename, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.reviews.ReviewCode(r.Context(), id, content, filename)
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("review request failed",
			slog.String("subject", id.Subject),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// readUpload pulls the "file" part out of a multipart request.
func (h *ReviewHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", h.tooLarge()
		}
		return nil, "", apperror.ValidationFailed("file", "request must be multipart/form-data with a file field")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", apperror.ValidationFailed("file", "file is required")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		return nil, "", fmt.Errorf("handler: reading upload: %w", err)
	}
	if int64(len(content)) > h.maxUpload {
		return nil, "", h.tooLarge()
	}
	if len(content) == 0 {
		return nil, "", apperror.ValidationFailed("file", "file must not be empty")
	}

	return content, header.Filename, nil
}

func (h *ReviewHandler) tooLarge() error {
	return apperror.ValidationFailed("file", fmt.Sprintf("file exceeds the %d byte limit", h.maxUpload))
}

// HandleSync handles POST /user/sync.
func (h *ReviewHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if _, err := h.identities.Sync(r.Context(), id); err != nil {
		logging.FromContext(r.Context(), h.logger).Error("user sync failed",
			slog.String("subject", id.Subject),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// HandleHistory handles GET /user/history. The body is always a JSON array.
func (h *ReviewHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	reviews, err := h.history.History(r.Context(), id.Subject)
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Error("loading history failed",
			slog.String("subject", id.Subject),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	writeJSON(w, http.StatusOK, reviews)
}
