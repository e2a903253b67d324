package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
	"noslimites/api/internal/queue"
)

// newTxDB returns a sqlx handle whose transactions are driven by sqlmock.
// Repositories are mocked in these tests, so only Begin, Commit and
// Rollback ever reach the driver; each test declares which of those it
// expects.
func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

// Function-field mocks: each test overrides only the methods it cares
// about; everything else returns a harmless default.

type mockUserRepository struct {
	upsertByEmailFn func(ctx context.Context, email, provider string) (*model.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*model.User, error)
	getSummaryFn    func(ctx context.Context, id int64) (*model.UserSummary, error)
	updateProfileFn func(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error)
	deleteFn        func(ctx context.Context, id int64) error
}

func (m *mockUserRepository) UpsertByEmail(ctx context.Context, email, provider string) (*model.User, error) {
	if m.upsertByEmailFn != nil {
		return m.upsertByEmailFn(ctx, email, provider)
	}
	return &model.User{ID: 1, Email: email, AuthProvider: provider}, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetSummary(ctx context.Context, id int64) (*model.UserSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, req)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockMagicLinkRepository struct {
	createFn      func(ctx context.Context, link *model.MagicLink) error
	getByTokenFn  func(ctx context.Context, token string) (*model.MagicLink, error)
	consumeOnceFn func(ctx context.Context, id int64) (bool, error)

	created []*model.MagicLink
}

func (m *mockMagicLinkRepository) Create(ctx context.Context, link *model.MagicLink) error {
	m.created = append(m.created, link)
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	link.ID = int64(len(m.created))
	return nil
}

func (m *mockMagicLinkRepository) GetByToken(ctx context.Context, token string) (*model.MagicLink, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, model.ErrMagicLinkNotFound
}

func (m *mockMagicLinkRepository) ConsumeOnce(ctx context.Context, id int64) (bool, error) {
	if m.consumeOnceFn != nil {
		return m.consumeOnceFn(ctx, id)
	}
	return true, nil
}

type mockDeviceRepository struct {
	createFn                  func(ctx context.Context, device *model.Device) error
	getByIDFn                 func(ctx context.Context, id string) (*model.Device, error)
	listByUserFn              func(ctx context.Context, userID int64) ([]model.Device, error)
	countActiveFn             func(ctx context.Context, userID int64) (int, error)
	revokeLeastRecentlySeenFn func(ctx context.Context, userID int64) error
	rotateFn                  func(ctx context.Context, id, currentHash, newHash string, expiresAt time.Time) (bool, error)
	revokeFn                  func(ctx context.Context, id string, userID int64) (bool, error)

	evictions int
	created   []*model.Device
}

func (m *mockDeviceRepository) Create(ctx context.Context, device *model.Device) error {
	m.created = append(m.created, device)
	if m.createFn != nil {
		return m.createFn(ctx, device)
	}
	device.ID = "device-1"
	return nil
}

func (m *mockDeviceRepository) GetByID(ctx context.Context, id string) (*model.Device, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrDeviceNotFound
}

func (m *mockDeviceRepository) ListByUser(ctx context.Context, userID int64) ([]model.Device, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDeviceRepository) CountActive(ctx context.Context, userID int64) (int, error) {
	if m.countActiveFn != nil {
		return m.countActiveFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockDeviceRepository) RevokeLeastRecentlySeen(ctx context.Context, userID int64) error {
	m.evictions++
	if m.revokeLeastRecentlySeenFn != nil {
		return m.revokeLeastRecentlySeenFn(ctx, userID)
	}
	return nil
}

func (m *mockDeviceRepository) Rotate(ctx context.Context, id, currentHash, newHash string, expiresAt time.Time) (bool, error) {
	if m.rotateFn != nil {
		return m.rotateFn(ctx, id, currentHash, newHash, expiresAt)
	}
	return false, nil
}

func (m *mockDeviceRepository) Revoke(ctx context.Context, id string, userID int64) (bool, error) {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id, userID)
	}
	return false, nil
}

type mockRelationshipRepository struct {
	createFn              func(ctx context.Context, inviterID int64, inviteToken string) (*model.Relationship, error)
	getByIDFn             func(ctx context.Context, id int64) (*model.Relationship, error)
	getByTokenFn          func(ctx context.Context, token string) (*model.Relationship, error)
	getByTokenForUpdateFn func(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error)
	acceptFn              func(ctx context.Context, tx *sqlx.Tx, id, inviteeID int64) error
	updateStatusFn        func(ctx context.Context, tx *sqlx.Tx, id int64, status string) error
	deleteFn              func(ctx context.Context, id int64) error
	listForUserFn         func(ctx context.Context, userID int64) ([]model.RelationshipView, error)

	deleted []int64
}

func (m *mockRelationshipRepository) Create(ctx context.Context, inviterID int64, inviteToken string) (*model.Relationship, error) {
	if m.createFn != nil {
		return m.createFn(ctx, inviterID, inviteToken)
	}
	return &model.Relationship{ID: 1, InviterID: inviterID, InviteToken: inviteToken, Status: model.RelationshipPending}, nil
}

func (m *mockRelationshipRepository) GetByID(ctx context.Context, id int64) (*model.Relationship, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrRelationshipNotFound
}

func (m *mockRelationshipRepository) GetByToken(ctx context.Context, token string) (*model.Relationship, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, model.ErrRelationshipNotFound
}

func (m *mockRelationshipRepository) GetByTokenForUpdate(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
	if m.getByTokenForUpdateFn != nil {
		return m.getByTokenForUpdateFn(ctx, tx, token)
	}
	return nil, model.ErrRelationshipNotFound
}

func (m *mockRelationshipRepository) Accept(ctx context.Context, tx *sqlx.Tx, id, inviteeID int64) error {
	if m.acceptFn != nil {
		return m.acceptFn(ctx, tx, id, inviteeID)
	}
	return nil
}

func (m *mockRelationshipRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id int64, status string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, tx, id, status)
	}
	return nil
}

func (m *mockRelationshipRepository) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRelationshipRepository) ListForUser(ctx context.Context, userID int64) ([]model.RelationshipView, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

type mockUserLimitRepository struct {
	getForUserFn               func(ctx context.Context, relationshipID, userID int64) ([]model.UserLimit, error)
	getAcceptedSetFn           func(ctx context.Context, tx *sqlx.Tx, relationshipID, userID int64) (map[string]bool, error)
	getByKeyFn                 func(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) (*model.UserLimit, error)
	upsertFn                   func(ctx context.Context, tx *sqlx.Tx, row *model.UserLimit) error
	deleteFn                   func(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) error
	updateNoteFn               func(ctx context.Context, userID, relationshipID int64, limitID string, note *string) (*model.UserLimit, error)
	deleteAllForRelationshipFn func(ctx context.Context, tx *sqlx.Tx, relationshipID int64) error
	getCommonLimitsFn          func(ctx context.Context, relationshipID, callerID, partnerID int64) ([]model.CommonLimit, error)
}

func (m *mockUserLimitRepository) GetForUser(ctx context.Context, relationshipID, userID int64) ([]model.UserLimit, error) {
	if m.getForUserFn != nil {
		return m.getForUserFn(ctx, relationshipID, userID)
	}
	return nil, nil
}

func (m *mockUserLimitRepository) GetAcceptedSet(ctx context.Context, tx *sqlx.Tx, relationshipID, userID int64) (map[string]bool, error) {
	if m.getAcceptedSetFn != nil {
		return m.getAcceptedSetFn(ctx, tx, relationshipID, userID)
	}
	return map[string]bool{}, nil
}

func (m *mockUserLimitRepository) GetByKey(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) (*model.UserLimit, error) {
	if m.getByKeyFn != nil {
		return m.getByKeyFn(ctx, tx, userID, relationshipID, limitID)
	}
	return nil, nil
}

func (m *mockUserLimitRepository) Upsert(ctx context.Context, tx *sqlx.Tx, row *model.UserLimit) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, tx, row)
	}
	return nil
}

func (m *mockUserLimitRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, relationshipID int64, limitID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, userID, relationshipID, limitID)
	}
	return nil
}

func (m *mockUserLimitRepository) UpdateNote(ctx context.Context, userID, relationshipID int64, limitID string, note *string) (*model.UserLimit, error) {
	if m.updateNoteFn != nil {
		return m.updateNoteFn(ctx, userID, relationshipID, limitID, note)
	}
	return &model.UserLimit{UserID: userID, RelationshipID: relationshipID, LimitID: limitID, Note: note}, nil
}

func (m *mockUserLimitRepository) DeleteAllForRelationship(ctx context.Context, tx *sqlx.Tx, relationshipID int64) error {
	if m.deleteAllForRelationshipFn != nil {
		return m.deleteAllForRelationshipFn(ctx, tx, relationshipID)
	}
	return nil
}

func (m *mockUserLimitRepository) GetCommonLimits(ctx context.Context, relationshipID, callerID, partnerID int64) ([]model.CommonLimit, error) {
	if m.getCommonLimitsFn != nil {
		return m.getCommonLimitsFn(ctx, relationshipID, callerID, partnerID)
	}
	return nil, nil
}

type mockNotificationRepository struct {
	createFn func(ctx context.Context, n *model.Notification) error

	created []*model.Notification
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	m.created = append(m.created, n)
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}
	n.ID = int64(len(m.created))
	return nil
}

func (m *mockNotificationRepository) List(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error) {
	var out []model.Notification
	unread := 0
	for _, n := range m.created {
		if n.UserID == userID {
			out = append(out, *n)
			if !n.IsRead {
				unread++
			}
		}
	}
	return out, unread, nil
}

func (m *mockNotificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	return nil
}

func (m *mockNotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	return nil
}

func (m *mockNotificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

type mockPublisher struct {
	published []queue.NotificationEvent
	publishFn func(ctx context.Context, stream string, event queue.NotificationEvent) (string, error)
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.NotificationEvent) (string, error) {
	m.published = append(m.published, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}

type mockMailer struct {
	configured bool
	sent       []string // link URLs
	sendFn     func(toEmail, linkURL string) error
}

func (m *mockMailer) Configured() bool { return m.configured }

func (m *mockMailer) SendMagicLink(toEmail, linkURL string) error {
	m.sent = append(m.sent, linkURL)
	if m.sendFn != nil {
		return m.sendFn(toEmail, linkURL)
	}
	return nil
}
