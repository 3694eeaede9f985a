package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/model"
	"github.com/sakif/code-review-assistant/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// GetBySubject retrieves a user by identity-provider subject.
// Returns apperror.ErrNotFound if no user exists for that subject.
func (db *DB) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	var (
		u       model.User
		reviews sql.NullString
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, external_subject, email, display_name, reviews, created_at, updated_at
		 FROM users WHERE external_subject = ?`,
		subject,
	).Scan(
		&u.ID,
		&u.Subject,
		&u.Email,
		&u.DisplayName,
		&reviews,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", subject)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", subject, err)
	}

	if reviews.Valid && reviews.String != "" {
		if err := json.Unmarshal([]byte(reviews.String), &u.Reviews); err != nil {
			return nil, fmt.Errorf("sqlite: decoding reviews for user %s: %w", u.ID, err)
		}
	}

	return &u, nil
}

// Create inserts a new user. ID and timestamps are set on the caller's struct.
//
// A second user with the same subject violates the UNIQUE constraint and is
// reported as apperror.ErrConflict; the caller is expected to re-read.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	reviews, err := encodeReviews(user.Reviews)
	if err != nil {
		return fmt.Errorf("sqlite: encoding reviews: %w", err)
	}

	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, external_subject, email, display_name, reviews, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Subject,
		user.Email,
		user.DisplayName,
		reviews,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Subject)
		}
		return fmt.Errorf("sqlite: inserting user (subject=%s): %w", user.Subject, err)
	}

	return nil
}

// Save writes the whole user document: profile fields and review history.
//
// There is no version check. Two writers that loaded the same document both
// succeed and the later write replaces the earlier one.
func (db *DB) Save(ctx context.Context, user *model.User) error {
	reviews, err := encodeReviews(user.Reviews)
	if err != nil {
		return fmt.Errorf("sqlite: encoding reviews: %w", err)
	}

	user.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, display_name = ?, reviews = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.DisplayName,
		reviews,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// encodeReviews turns the history into the column value. A nil history is
// stored as NULL, an empty one as "[]".
func encodeReviews(reviews []model.Review) (any, error) {
	if reviews == nil {
		return nil, nil
	}
	b, err := json.Marshal(reviews)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
