package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
)

type UserRepository interface {
	// UpsertByEmail creates the user on first login and returns the existing
	// row on subsequent logins.
	UpsertByEmail(ctx context.Context, email, provider string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetSummary(ctx context.Context, id int64) (*model.UserSummary, error)
	UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type MagicLinkRepository interface {
	Create(ctx context.Context, link *model.MagicLink) error
	GetByToken(ctx context.Context, token string) (*model.MagicLink, error)
	// ConsumeOnce flips used=false to true; returns false if another request
	// already consumed the link. The single UPDATE is the atomicity guarantee.
	ConsumeOnce(ctx context.Context, id int64) (bool, error)
}

type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByID(ctx context.Context, id string) (*model.Device, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Device, error)
	CountActive(ctx context.Context, userID int64) (int, error)
	// RevokeLeastRecentlySeen evicts the oldest active device when the
	// per-user cap is exceeded.
	RevokeLeastRecentlySeen(ctx context.Context, userID int64) error
	// Rotate swaps the stored hash in a single guarded UPDATE: it only
	// succeeds if the presented hash still matches and the device is live.
	Rotate(ctx context.Context, id, currentHash, newHash string, expiresAt time.Time) (bool, error)
	Revoke(ctx context.Context, id string, userID int64) (bool, error)
}

type RelationshipRepository interface {
	Create(ctx context.Context, inviterID int64, inviteToken string) (*model.Relationship, error)
	GetByID(ctx context.Context, id int64) (*model.Relationship, error)
	GetByToken(ctx context.Context, token string) (*model.Relationship, error)
	// GetByTokenForUpdate locks the row inside tx so concurrent accepts
	// serialize on it.
	GetByTokenForUpdate(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error)
	Accept(ctx context.Context, tx *sqlx.Tx, id, inviteeID int64) error
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID int64) ([]model.RelationshipView, error)
}

type BlockRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error
	// ExistsBetween checks both directions of the pair.
	ExistsBetween(ctx context.Context, userA, userB int64) (bool, error)
}

type CatalogRepository interface {
	// SeedTree inserts the catalog with insert-or-ignore semantics; safe to
	// run concurrently from multiple cold starts.
	SeedTree(ctx context.Context, categories []model.LimitCategory) error
	ListTree(ctx context.Context) ([]model.LimitCategory, error)
	// Reconciliation helpers for merging legacy duplicate rows.
	ListAllLimits(ctx context.Context) ([]model.Limit, error)
	ListAllSubcategories(ctx context.Context) ([]model.LimitSubcategory, error)
	ListAllCategories(ctx context.Context) ([]model.LimitCategory, error)
	MergeLimit(ctx context.Context, tx *sqlx.Tx, duplicateID, canonicalID string) error
	MergeSubcategory(ctx context.Context, tx *sqlx.Tx, duplicateID, canonicalID string) error
	MergeCategory(ctx context.Context, tx *sqlx.Tx, duplicateID, canonicalID string) error
}

type UserLimitRepository interface {
	GetForUser(ctx context.Context, relationshipID, userID int64) ([]model.UserLimit, error)
	// GetAcceptedSet returns the set of limit IDs one user accepted in the
	// relationship, read inside the upsert transaction to decide match
	// transitions.
	GetAcceptedSet(ctx context.Context, tx *sqlx.Tx, relationshipID, userID int64) (map[string]bool, error)
	GetByKey(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) (*model.UserLimit, error)
	Upsert(ctx context.Context, tx *sqlx.Tx, row *model.UserLimit) error
	Delete(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) error
	UpdateNote(ctx context.Context, userID, relationshipID int64, limitID string, note *string) (*model.UserLimit, error)
	DeleteAllForRelationship(ctx context.Context, tx *sqlx.Tx, relationshipID int64) error
	// GetCommonLimits is the privacy-critical intersection: limits where both
	// parties' rows exist with is_accepted = true, with each side's note.
	GetCommonLimits(ctx context.Context, relationshipID, callerID, partnerID int64) ([]model.CommonLimit, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	Delete(ctx context.Context, id, userID int64) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	ListByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
}
