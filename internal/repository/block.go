package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type blockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *sqlx.DB) BlockRepository {
	return &blockRepository{db: db}
}

// Create records the block. Re-blocking an already blocked user is a no-op.
func (r *blockRepository) Create(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error {
	query := `
		INSERT INTO blocked_users (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, query, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

// ExistsBetween reports whether either user has blocked the other.
func (r *blockRepository) ExistsBetween(ctx context.Context, userA, userB int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocked_users
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userA, userB)
	if err != nil {
		return false, fmt.Errorf("failed to check block existence: %w", err)
	}
	return exists, nil
}
