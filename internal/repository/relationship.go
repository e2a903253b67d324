package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
)

const relationshipColumns = `id, inviter_id, invitee_id, invite_token, status, created_at, updated_at`

type relationshipRepository struct {
	db *sqlx.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *sqlx.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

// Create inserts a pending relationship with no invitee yet.
func (r *relationshipRepository) Create(ctx context.Context, inviterID int64, inviteToken string) (*model.Relationship, error) {
	query := `
		INSERT INTO relationships (inviter_id, invite_token, status)
		VALUES ($1, $2, 'pending')
		RETURNING ` + relationshipColumns

	var rel model.Relationship
	err := r.db.GetContext(ctx, &rel, query, inviterID, inviteToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	return &rel, nil
}

func (r *relationshipRepository) GetByID(ctx context.Context, id int64) (*model.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE id = $1`

	var rel model.Relationship
	err := r.db.GetContext(ctx, &rel, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrRelationshipNotFound
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return &rel, nil
}

func (r *relationshipRepository) GetByToken(ctx context.Context, token string) (*model.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE invite_token = $1`

	var rel model.Relationship
	err := r.db.GetContext(ctx, &rel, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrRelationshipNotFound
		}
		return nil, fmt.Errorf("failed to get relationship by token: %w", err)
	}
	return &rel, nil
}

// GetByTokenForUpdate locks the relationship row for the duration of the
// transaction. Concurrent accepts and declines serialize here.
func (r *relationshipRepository) GetByTokenForUpdate(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE invite_token = $1 FOR UPDATE`

	var rel model.Relationship
	err := tx.GetContext(ctx, &rel, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrRelationshipNotFound
		}
		return nil, fmt.Errorf("failed to lock relationship by token: %w", err)
	}
	return &rel, nil
}

// Accept sets the invitee and flips the status in one statement.
func (r *relationshipRepository) Accept(ctx context.Context, tx *sqlx.Tx, id, inviteeID int64) error {
	query := `
		UPDATE relationships
		SET invitee_id = $2, status = 'accepted', updated_at = NOW()
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, id, inviteeID)
	if err != nil {
		return fmt.Errorf("failed to accept relationship: %w", err)
	}
	return nil
}

func (r *relationshipRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id int64, status string) error {
	query := `UPDATE relationships SET status = $2, updated_at = NOW() WHERE id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id, status)
	} else {
		_, err = r.db.ExecContext(ctx, query, id, status)
	}
	if err != nil {
		return fmt.Errorf("failed to update relationship status: %w", err)
	}
	return nil
}

// Delete removes the relationship; user_limits and notifications referencing
// it cascade at the schema level.
func (r *relationshipRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrRelationshipNotFound
	}
	return nil
}

// ListForUser returns the user's relationships with the partner's public
// summary joined in (NULL partner while still pending).
func (r *relationshipRepository) ListForUser(ctx context.Context, userID int64) ([]model.RelationshipView, error) {
	query := `
		SELECT r.id, r.inviter_id, r.invitee_id, r.invite_token, r.status, r.created_at, r.updated_at,
		       u.id AS partner_id, u.display_name AS partner_display_name, u.avatar_url AS partner_avatar_url
		FROM relationships r
		LEFT JOIN users u
		  ON u.id = CASE WHEN r.inviter_id = $1 THEN r.invitee_id ELSE r.inviter_id END
		WHERE r.inviter_id = $1 OR r.invitee_id = $1
		ORDER BY r.created_at DESC
	`

	type relRow struct {
		model.Relationship
		PartnerID          *int64  `db:"partner_id"`
		PartnerDisplayName *string `db:"partner_display_name"`
		PartnerAvatarURL   *string `db:"partner_avatar_url"`
	}

	var rows []relRow
	err := r.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}

	views := make([]model.RelationshipView, len(rows))
	for i, row := range rows {
		views[i] = model.RelationshipView{Relationship: row.Relationship}
		if row.PartnerID != nil {
			views[i].Partner = &model.UserSummary{
				ID:          *row.PartnerID,
				DisplayName: row.PartnerDisplayName,
				AvatarURL:   row.PartnerAvatarURL,
			}
		}
	}

	return views, nil
}
