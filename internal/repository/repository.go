package repository

import (
	"context"

	"github.com/sakif/code-review-assistant/internal/model"
)

// UserRepository stores one document per user, with the review history
// embedded in it.
//
// Implementations must enforce uniqueness of model.User.Subject and report a
// violation as apperror.ErrConflict, and report a missing record as
// apperror.ErrNotFound.
type UserRepository interface {
	// GetBySubject returns the user for an identity-provider subject.
	GetBySubject(ctx context.Context, subject string) (*model.User, error)
	// Create inserts a new user, assigning ID and timestamps in place.
	Create(ctx context.Context, user *model.User) error
	// Save overwrites the stored document (profile fields and reviews) for
	// user.ID. The last writer wins.
	Save(ctx context.Context, user *model.User) error
}
