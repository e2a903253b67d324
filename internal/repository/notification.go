package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"noslimites/api/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification.
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, related_user_id, relationship_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.RelatedUserID,
		n.RelationshipID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List returns the recipient's feed newest first, with the related user's
// public summary joined in, plus the unread count computed in one extra
// aggregate query.
func (r *notificationRepository) List(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error) {
	query := `
		SELECT n.id, n.user_id, n.type, n.title, n.message,
		       n.related_user_id, n.relationship_id, n.is_read, n.created_at,
		       u.id AS related_id, u.display_name AS related_display_name, u.avatar_url AS related_avatar_url
		FROM notifications n
		LEFT JOIN users u ON u.id = n.related_user_id
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2
	`

	type notifRow struct {
		ID                 int64     `db:"id"`
		UserID             int64     `db:"user_id"`
		Type               string    `db:"type"`
		Title              string    `db:"title"`
		Message            string    `db:"message"`
		RelatedUserID      *int64    `db:"related_user_id"`
		RelationshipID     *int64    `db:"relationship_id"`
		IsRead             bool      `db:"is_read"`
		CreatedAt          time.Time `db:"created_at"`
		RelatedID          *int64    `db:"related_id"`
		RelatedDisplayName *string   `db:"related_display_name"`
		RelatedAvatarURL   *string   `db:"related_avatar_url"`
	}

	var rows []notifRow
	err := r.db.SelectContext(ctx, &rows, query, userID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	notifications := make([]model.Notification, len(rows))
	for i, row := range rows {
		notifications[i] = model.Notification{
			ID:             row.ID,
			UserID:         row.UserID,
			Type:           row.Type,
			Title:          row.Title,
			Message:        row.Message,
			RelatedUserID:  row.RelatedUserID,
			RelationshipID: row.RelationshipID,
			IsRead:         row.IsRead,
			CreatedAt:      row.CreatedAt,
		}
		if row.RelatedID != nil {
			notifications[i].RelatedUser = &model.UserSummary{
				ID:          *row.RelatedID,
				DisplayName: row.RelatedDisplayName,
				AvatarURL:   row.RelatedAvatarURL,
			}
		}
	}

	unread, err := r.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return notifications, unread, nil
}

// MarkAsRead marks specific notifications as read. The user_id filter keeps
// recipients from touching each other's rows.
func (r *notificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = ANY($2)`
	_, err := r.db.ExecContext(ctx, query, userID, pq.Array(notificationIDs))
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks all notifications for a user as read.
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// GetUnreadCount returns the count of unread notifications (for badge display).
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("get unread count: %w", err)
	}
	return count, nil
}
