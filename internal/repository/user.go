package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// UpsertByEmail inserts the user if the email is new, otherwise returns the
// existing row. The ON CONFLICT no-op update lets RETURNING always yield a row.
func (r *userRepository) UpsertByEmail(ctx context.Context, email, provider string) (*model.User, error) {
	query := `
		INSERT INTO users (email, auth_provider, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id, email, display_name, avatar_url, avatar_key, auth_provider, created_at, updated_at
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, email, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user by email: %w", err)
	}

	return &u, nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, email, display_name, avatar_url, avatar_key, auth_provider, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetSummary retrieves the public projection of a user.
func (r *userRepository) GetSummary(ctx context.Context, id int64) (*model.UserSummary, error) {
	query := `SELECT id, display_name, avatar_url FROM users WHERE id = $1`

	var s model.UserSummary
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user summary: %w", err)
	}

	return &s, nil
}

// UpdateProfile updates the mutable profile fields. Nil fields are left
// untouched via COALESCE.
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name),
		    avatar_url   = COALESCE($3, avatar_url),
		    avatar_key   = COALESCE($4, avatar_key),
		    updated_at   = NOW()
		WHERE id = $1
		RETURNING id, email, display_name, avatar_url, avatar_key, auth_provider, created_at, updated_at
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id, req.DisplayName, req.AvatarURL, req.AvatarKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &u, nil
}

// Delete removes the user. Devices, relationships, choices, notifications
// and blocks cascade at the schema level.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}

	return nil
}
