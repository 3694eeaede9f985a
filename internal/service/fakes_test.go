package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// It stores copies, so callers cannot mutate stored state without Save, the
// same as a real database.
type fakeUserRepo struct {
	mu        sync.Mutex
	bySubject map[string]*model.User
	nextID    int

	creates int
	saves   int

	// set to a non-nil error to simulate a database failure
	getErr    error
	createErr error
	saveErr   error

	// beforeCreate runs inside Create before the uniqueness check; tests use
	// it to insert a competing user and force a conflict.
	beforeCreate func(f *fakeUserRepo)
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{bySubject: make(map[string]*model.User)}
}

func (f *fakeUserRepo) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.bySubject[subject]
	if !ok {
		return nil, apperror.NotFound("user", subject)
	}
	return cloneUser(u), nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if hook := f.beforeCreate; hook != nil {
		f.beforeCreate = nil
		hook(f)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.bySubject[user.Subject]; ok {
		return apperror.Conflict("user", user.Subject)
	}
	f.insertLocked(user)
	return nil
}

func (f *fakeUserRepo) Save(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.bySubject[user.Subject]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.UpdatedAt = time.Now().UTC()
	f.bySubject[user.Subject] = cloneUser(user)
	f.saves++
	return nil
}

// seed stores a user directly, bypassing the error hooks.
func (f *fakeUserRepo) seed(user *model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertLocked(user)
	return user
}

func (f *fakeUserRepo) insertLocked(user *model.User) {
	f.nextID++
	user.ID = "user-fake-" + string(rune('0'+f.nextID))
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.bySubject[user.Subject] = cloneUser(user)
	f.creates++
}

func (f *fakeUserRepo) stored(subject string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bySubject[subject]
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.Reviews != nil {
		c.Reviews = append([]model.Review{}, u.Reviews...)
	}
	return &c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
