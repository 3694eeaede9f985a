package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "validation_error", "message": "file must not be empty"}
//
// Review pipeline failures (identity, model, decode, persistence) all share
// one generic 500 body. Which stage failed is only visible in server logs
// and metrics; model output never reaches the client.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/code-review-assistant/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "validation_error")
	Message string `json:"message"` // Human-readable description
}

// internalError is the only body a client ever sees for a server-side failure.
var internalError = ErrorResponse{
	Error:   "internal_error",
	Message: "Could not process the review request.",
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be written before the body; once Encode writes,
// later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// Client errors (validation, auth) echo the AppError message. Everything
// else, including every pipeline kind and unknown errors, is a generic 500:
// the raw message might contain SQL, file paths or model text.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := 0, ""

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, errorType = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, errorType = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, errorType = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, errorType = http.StatusNotFound, "not_found"
		}

		if status != 0 {
			writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message})
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, internalError)
}
