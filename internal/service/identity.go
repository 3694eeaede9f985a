// Package service holds the business logic of the review assistant. It sits
// between the transports (HTTP handlers, CLI) and the repository:
//
//	Handler / CLI → ReviewService → IdentityService → UserRepository (DB)
//	                              ↘ llm.Client (model)
//	                              ↘ HistoryService  → UserRepository (DB)
//
// Nothing in this package reads HTTP requests or knows about routing. The
// caller hands it a verified auth.Identity and gets model values or an
// apperror kind back.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/auth"
	"github.com/sakif/code-review-assistant/internal/logging"
	"github.com/sakif/code-review-assistant/internal/model"
	"github.com/sakif/code-review-assistant/internal/repository"
)

// IdentityService maps verified callers onto stored user documents.
type IdentityService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(users repository.UserRepository, logger *slog.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger}
}

// Resolve returns the user for id.Subject, creating it on first sight.
//
// An existing user is returned unchanged; descriptive fields are only
// written by Sync. Creation is read-check-create-recover: when a concurrent
// request inserts the same subject first, Create fails with ErrConflict and
// the winner's record is re-read and returned. A missing user is never an
// error. Any other store failure is reported as apperror.ErrIdentity.
func (s *IdentityService) Resolve(ctx context.Context, id auth.Identity) (*model.User, error) {
	if id.Subject == "" {
		return nil, apperror.Unauthorized("identity has no subject")
	}

	user, err := s.users.GetBySubject(ctx, id.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Identity(id.Subject, err)
	}

	user = &model.User{
		Subject:     id.Subject,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Reviews:     []model.Review{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Identity(id.Subject, err)
		}

		logging.FromContext(ctx, s.logger).Debug("user created concurrently, re-reading",
			slog.String("subject", id.Subject),
		)
		existing, err := s.users.GetBySubject(ctx, id.Subject)
		if err != nil {
			return nil, apperror.Identity(id.Subject, err)
		}
		return existing, nil
	}

	logging.FromContext(ctx, s.logger).Info("user created",
		slog.String("userID", user.ID),
		slog.String("subject", user.Subject),
	)
	return user, nil
}

// Sync copies the caller's email and display name onto their user document,
// creating the document if absent. Empty claims leave the stored value alone.
func (s *IdentityService) Sync(ctx context.Context, id auth.Identity) (*model.User, error) {
	user, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if id.Email != "" && id.Email != user.Email {
		user.Email = id.Email
		changed = true
	}
	if id.DisplayName != "" && id.DisplayName != user.DisplayName {
		user.DisplayName = id.DisplayName
		changed = true
	}
	if !changed {
		return user, nil
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperror.Persistence(fmt.Sprintf("syncing user %s", user.ID), err)
	}
	return user, nil
}
