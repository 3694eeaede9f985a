package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/model"
	"github.com/sakif/code-review-assistant/internal/repository"
)

// HistoryService appends to and reads a user's review history.
type HistoryService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(users repository.UserRepository, logger *slog.Logger) *HistoryService {
	return &HistoryService{users: users, logger: logger}
}

// Append adds r to the end of user's history and saves the whole document.
//
// A nil history is treated as empty. Concurrent appends for the same user
// are last-write-wins: each writer saves the copy it loaded, so one append
// can be lost.
func (s *HistoryService) Append(ctx context.Context, user *model.User, r model.Review) (*model.User, error) {
	if user.Reviews == nil {
		user.Reviews = []model.Review{}
	}
	user.Reviews = append(user.Reviews, r)

	if err := s.users.Save(ctx, user); err != nil {
		// Drop the unsaved review so the caller's copy matches storage.
		user.Reviews = user.Reviews[:len(user.Reviews)-1]
		return nil, apperror.Persistence(fmt.Sprintf("saving review history for user %s", user.ID), err)
	}
	return user, nil
}

// History returns the reviews stored for subject, oldest first. An unknown
// subject has an empty history.
func (s *HistoryService) History(ctx context.Context, subject string) ([]model.Review, error) {
	user, err := s.users.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return []model.Review{}, nil
		}
		return nil, apperror.Persistence("loading review history", err)
	}

	if user.Reviews == nil {
		return []model.Review{}, nil
	}
	return user.Reviews, nil
}
