package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
)

type magicLinkRepository struct {
	db *sqlx.DB
}

// NewMagicLinkRepository creates a new magic link repository
func NewMagicLinkRepository(db *sqlx.DB) MagicLinkRepository {
	return &magicLinkRepository{db: db}
}

// Create inserts a new magic link row.
func (r *magicLinkRepository) Create(ctx context.Context, link *model.MagicLink) error {
	query := `
		INSERT INTO magic_links (email, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		link.Email,
		link.Token,
		link.ExpiresAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create magic link: %w", err)
	}
	return nil
}

// GetByToken retrieves a magic link by its token.
func (r *magicLinkRepository) GetByToken(ctx context.Context, token string) (*model.MagicLink, error) {
	query := `
		SELECT id, email, token, expires_at, used, created_at
		FROM magic_links
		WHERE token = $1
	`
	var link model.MagicLink
	err := r.db.GetContext(ctx, &link, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrMagicLinkNotFound
		}
		return nil, fmt.Errorf("failed to find magic link: %w", err)
	}
	return &link, nil
}

// ConsumeOnce marks the link used. The WHERE used = FALSE guard makes this a
// compare-and-swap: of N concurrent verifications exactly one sees a row
// update and wins.
func (r *magicLinkRepository) ConsumeOnce(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE magic_links SET used = TRUE WHERE id = $1 AND used = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to consume magic link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}
