// Package apperror defines the application's error kinds.
//
// Every error that crosses a layer boundary is either one of the sentinel
// errors below or wraps one. Callers check the kind with errors.Is and pull
// out details with errors.As; only the HTTP layer turns a kind into a status
// code.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Review pipeline failure kinds. Each one aborts the current request.
	ErrIdentity        = errors.New("identity store unavailable")
	ErrModelInvocation = errors.New("model invocation failed")
	ErrSchemaDecode    = errors.New("model output does not match review schema")
	ErrPersistence     = errors.New("persistence failed")
)

type AppError struct {
	Err     error  // kind sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, for logs only
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when a request carries no usable identity.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Identity wraps a failure to reach the identity store.
func Identity(subject string, cause error) *AppError {
	return &AppError{
		Err:     ErrIdentity,
		Message: fmt.Sprintf("resolving identity %s", subject),
		Cause:   cause,
	}
}

// ModelInvocation wraps a failed or timed-out generative model call.
func ModelInvocation(cause error) *AppError {
	return &AppError{
		Err:     ErrModelInvocation,
		Message: "generating review",
		Cause:   cause,
	}
}

// Persistence wraps a storage read or write failure.
func Persistence(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: op,
		Cause:   cause,
	}
}

// SchemaDecodeError reports model output that could not be decoded into a
// Review. Candidate holds the sanitized text that was fed to the decoder; it
// is meant for operator logs and must never be sent back to the caller.
type SchemaDecodeError struct {
	Candidate string
	Err       error
}

func (e *SchemaDecodeError) Error() string {
	return fmt.Sprintf("decoding review: %v", e.Err)
}

func (e *SchemaDecodeError) Unwrap() []error {
	return []error{ErrSchemaDecode, e.Err}
}

// SchemaDecode builds a SchemaDecodeError for the given candidate text.
func SchemaDecode(candidate string, err error) *SchemaDecodeError {
	return &SchemaDecodeError{Candidate: candidate, Err: err}
}
