package model

import (
	"time"
)

// Notification types
const (
	NotificationRelationRequest  = "relation_request"
	NotificationRelationAccepted = "relation_accepted"
	NotificationNewCommonLimit   = "new_common_limit"
	NotificationLimitRemoved     = "limit_removed"
	NotificationRelationDeleted  = "relation_deleted"
)

// Notification is a user-addressed event record. Rows are created by
// server-side business logic only; the recipient may only mark them read.
type Notification struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"-"` // Recipient
	Type           string    `db:"type" json:"type"`
	Title          string    `db:"title" json:"title"`
	Message        string    `db:"message" json:"message"`
	RelatedUserID  *int64    `db:"related_user_id" json:"related_user_id,omitempty"`
	RelationshipID *int64    `db:"relationship_id" json:"relationship_id,omitempty"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	// Joined field for display
	RelatedUser *UserSummary `json:"related_user,omitempty"`
}

// NotificationListResponse is the paginated notification feed.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadRequest is the request body for marking notifications as read.
type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids"`
}
