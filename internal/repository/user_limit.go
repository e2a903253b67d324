package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"noslimites/api/internal/model"
)

type userLimitRepository struct {
	db *sqlx.DB
}

// unknownLimitID reports whether err is the foreign-key violation raised
// when limit_id references no catalog row. Clients can send arbitrary limit
// IDs, so this constraint firing is an input error, not a server fault.
func unknownLimitID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// NewUserLimitRepository creates a new user limit repository
func NewUserLimitRepository(db *sqlx.DB) UserLimitRepository {
	return &userLimitRepository{db: db}
}

// GetForUser returns only the given user's own rows for the relationship.
// The WHERE user_id clause is load-bearing: this query must never widen to
// the partner's rows.
func (r *userLimitRepository) GetForUser(ctx context.Context, relationshipID, userID int64) ([]model.UserLimit, error) {
	query := `
		SELECT id, user_id, relationship_id, limit_id, is_accepted, note, created_at, updated_at
		FROM user_limits
		WHERE relationship_id = $1 AND user_id = $2
		ORDER BY limit_id
	`
	var rows []model.UserLimit
	err := r.db.SelectContext(ctx, &rows, query, relationshipID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user limits: %w", err)
	}
	return rows, nil
}

// GetAcceptedSet returns the limit IDs one user accepted in the relationship.
func (r *userLimitRepository) GetAcceptedSet(ctx context.Context, tx *sqlx.Tx, relationshipID, userID int64) (map[string]bool, error) {
	query := `
		SELECT limit_id FROM user_limits
		WHERE relationship_id = $1 AND user_id = $2 AND is_accepted = TRUE
	`

	var ids []string
	var err error
	if tx != nil {
		err = tx.SelectContext(ctx, &ids, query, relationshipID, userID)
	} else {
		err = r.db.SelectContext(ctx, &ids, query, relationshipID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get accepted set: %w", err)
	}

	accepted := make(map[string]bool, len(ids))
	for _, id := range ids {
		accepted[id] = true
	}
	return accepted, nil
}

func (r *userLimitRepository) GetByKey(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) (*model.UserLimit, error) {
	query := `
		SELECT id, user_id, relationship_id, limit_id, is_accepted, note, created_at, updated_at
		FROM user_limits
		WHERE user_id = $1 AND relationship_id = $2 AND limit_id = $3
	`

	var row model.UserLimit
	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &row, query, userID, relationshipID, limitID)
	} else {
		err = r.db.GetContext(ctx, &row, query, userID, relationshipID, limitID)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user limit: %w", err)
	}
	return &row, nil
}

// Upsert writes the acceptance flag keyed by (user, relationship, limit).
// The uniqueness constraint on that triple is what makes N concurrent
// upserts collapse into one row; the note is left untouched.
func (r *userLimitRepository) Upsert(ctx context.Context, tx *sqlx.Tx, row *model.UserLimit) error {
	query := `
		INSERT INTO user_limits (user_id, relationship_id, limit_id, is_accepted)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, relationship_id, limit_id)
		DO UPDATE SET is_accepted = EXCLUDED.is_accepted, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	var err error
	if tx != nil {
		err = tx.QueryRowxContext(ctx, query, row.UserID, row.RelationshipID, row.LimitID, row.IsAccepted).
			Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	} else {
		err = r.db.QueryRowxContext(ctx, query, row.UserID, row.RelationshipID, row.LimitID, row.IsAccepted).
			Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	}
	if err != nil {
		if unknownLimitID(err) {
			return model.ErrLimitNotFound
		}
		return fmt.Errorf("failed to upsert user limit: %w", err)
	}
	return nil
}

func (r *userLimitRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) error {
	query := `DELETE FROM user_limits WHERE user_id = $1 AND relationship_id = $2 AND limit_id = $3`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID, relationshipID, limitID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID, relationshipID, limitID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete user limit: %w", err)
	}
	return nil
}

// UpdateNote sets or clears the note without touching is_accepted. Inserts
// the row if the user never toggled this limit.
func (r *userLimitRepository) UpdateNote(ctx context.Context, userID, relationshipID int64, limitID string, note *string) (*model.UserLimit, error) {
	query := `
		INSERT INTO user_limits (user_id, relationship_id, limit_id, is_accepted, note)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (user_id, relationship_id, limit_id)
		DO UPDATE SET note = EXCLUDED.note, updated_at = NOW()
		RETURNING id, user_id, relationship_id, limit_id, is_accepted, note, created_at, updated_at
	`

	var row model.UserLimit
	err := r.db.GetContext(ctx, &row, query, userID, relationshipID, limitID, note)
	if err != nil {
		if unknownLimitID(err) {
			return nil, model.ErrLimitNotFound
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return &row, nil
}

func (r *userLimitRepository) DeleteAllForRelationship(ctx context.Context, tx *sqlx.Tx, relationshipID int64) error {
	query := `DELETE FROM user_limits WHERE relationship_id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, relationshipID)
	} else {
		_, err = r.db.ExecContext(ctx, query, relationshipID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete limits for relationship: %w", err)
	}
	return nil
}

// GetCommonLimits computes the intersection of both parties' accepted
// limits. The symmetric self-join on (relationship_id, limit_id) with
// is_accepted = TRUE on BOTH sides is the entire privacy contract: a limit
// only one side accepted can never appear in the result, so neither side's
// lone answers or notes ever cross the user boundary.
func (r *userLimitRepository) GetCommonLimits(ctx context.Context, relationshipID, callerID, partnerID int64) ([]model.CommonLimit, error) {
	query := `
		SELECT mine.limit_id, l.name, l.description,
		       mine.note AS my_note, theirs.note AS partner_note
		FROM user_limits mine
		JOIN user_limits theirs
		  ON theirs.relationship_id = mine.relationship_id
		 AND theirs.limit_id = mine.limit_id
		 AND theirs.user_id = $3
		JOIN limits l ON l.id = mine.limit_id
		WHERE mine.relationship_id = $1
		  AND mine.user_id = $2
		  AND mine.is_accepted = TRUE
		  AND theirs.is_accepted = TRUE
		ORDER BY l.sort_order, l.name
	`

	var common []model.CommonLimit
	err := r.db.SelectContext(ctx, &common, query, relationshipID, callerID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get common limits: %w", err)
	}
	return common, nil
}
