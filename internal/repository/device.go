package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
)

type deviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *sqlx.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// Create inserts a new device binding and fills in the generated ID.
func (r *deviceRepository) Create(ctx context.Context, device *model.Device) error {
	query := `
		INSERT INTO devices (user_id, label, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, last_seen_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		device.UserID,
		device.Label,
		device.TokenHash,
		device.ExpiresAt,
	).Scan(&device.ID, &device.CreatedAt, &device.LastSeenAt)

	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by its ID.
func (r *deviceRepository) GetByID(ctx context.Context, id string) (*model.Device, error) {
	query := `
		SELECT id, user_id, label, token_hash, revoked, expires_at, created_at, last_seen_at
		FROM devices
		WHERE id = $1
	`
	var device model.Device
	err := r.db.GetContext(ctx, &device, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

// ListByUser returns device metadata for a user, newest activity first.
// Token hashes stay in the struct but are never serialized.
func (r *deviceRepository) ListByUser(ctx context.Context, userID int64) ([]model.Device, error) {
	query := `
		SELECT id, user_id, label, token_hash, revoked, expires_at, created_at, last_seen_at
		FROM devices
		WHERE user_id = $1 AND revoked = FALSE
		ORDER BY last_seen_at DESC
	`
	var devices []model.Device
	err := r.db.SelectContext(ctx, &devices, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// CountActive counts non-revoked devices for the per-user cap.
func (r *deviceRepository) CountActive(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM devices WHERE user_id = $1 AND revoked = FALSE`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}
	return count, nil
}

// RevokeLeastRecentlySeen revokes the user's oldest active device.
func (r *deviceRepository) RevokeLeastRecentlySeen(ctx context.Context, userID int64) error {
	query := `
		UPDATE devices
		SET revoked = TRUE
		WHERE id = (
			SELECT id FROM devices
			WHERE user_id = $1 AND revoked = FALSE
			ORDER BY last_seen_at ASC
			LIMIT 1
		)
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke least recently seen device: %w", err)
	}
	return nil
}

// Rotate overwrites the stored hash with the new one. The WHERE clause pins
// the currently stored hash, so two concurrent refreshes with the same token
// cannot both succeed, and a replayed old token matches nothing.
func (r *deviceRepository) Rotate(ctx context.Context, id, currentHash, newHash string, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE devices
		SET token_hash = $3, expires_at = $4, last_seen_at = NOW()
		WHERE id = $1 AND token_hash = $2 AND revoked = FALSE AND expires_at > NOW()
	`
	result, err := r.db.ExecContext(ctx, query, id, currentHash, newHash, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to rotate device token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Revoke sets the revoked flag. The user_id check enforces ownership.
func (r *deviceRepository) Revoke(ctx context.Context, id string, userID int64) (bool, error) {
	query := `UPDATE devices SET revoked = TRUE WHERE id = $1 AND user_id = $2 AND revoked = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}
