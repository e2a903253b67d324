package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
)

func newTestRelationshipService(rels *mockRelationshipRepository, users *mockUserRepository, notifications *mockNotificationRepository) *RelationshipService {
	notifService := NewNotificationService(notifications, users, nil)
	return NewRelationshipService(nil, rels, &mockBlockRepository{}, users, &mockUserLimitRepository{}, notifService, testConfig())
}

// newTxRelationshipService backs the service with a sqlmock handle so the
// locked accept/decline paths can run; the repositories stay mocked.
func newTxRelationshipService(t *testing.T, rels *mockRelationshipRepository, blocks *mockBlockRepository, notifications *mockNotificationRepository) (*RelationshipService, sqlmock.Sqlmock) {
	db, mock := newTxDB(t)
	notifService := NewNotificationService(notifications, &mockUserRepository{}, nil)
	return NewRelationshipService(db, rels, blocks, &mockUserRepository{}, &mockUserLimitRepository{}, notifService, testConfig()), mock
}

type mockBlockRepository struct {
	existsBetweenFn func(ctx context.Context, userA, userB int64) (bool, error)
}

func (m *mockBlockRepository) Create(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error {
	return nil
}

func (m *mockBlockRepository) ExistsBetween(ctx context.Context, userA, userB int64) (bool, error) {
	if m.existsBetweenFn != nil {
		return m.existsBetweenFn(ctx, userA, userB)
	}
	return false, nil
}

func TestRelationshipService_CreateInvitation(t *testing.T) {
	var createdToken string
	rels := &mockRelationshipRepository{
		createFn: func(ctx context.Context, inviterID int64, inviteToken string) (*model.Relationship, error) {
			createdToken = inviteToken
			return &model.Relationship{ID: 3, InviterID: inviterID, InviteToken: inviteToken, Status: model.RelationshipPending}, nil
		},
	}
	svc := newTestRelationshipService(rels, &mockUserRepository{}, &mockNotificationRepository{})

	resp, err := svc.CreateInvitation(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.InviteToken != createdToken {
		t.Error("response token must match the stored token")
	}
	if !strings.HasPrefix(resp.InviteURL, "https://app.example.com/invite/") {
		t.Errorf("invite URL = %q", resp.InviteURL)
	}
	if resp.RelationshipID != 3 {
		t.Errorf("relationship ID = %d, want 3", resp.RelationshipID)
	}
}

func TestRelationshipService_LookupInvitation_NotFound(t *testing.T) {
	svc := newTestRelationshipService(&mockRelationshipRepository{}, &mockUserRepository{}, &mockNotificationRepository{})

	if _, err := svc.LookupInvitation(context.Background(), "missing"); !errors.Is(err, model.ErrRelationshipNotFound) {
		t.Errorf("error = %v, want ErrRelationshipNotFound", err)
	}
}

func TestRelationshipService_LookupInvitation_ShowsInviterSummary(t *testing.T) {
	name := "Alice"
	rels := &mockRelationshipRepository{
		getByTokenFn: func(ctx context.Context, token string) (*model.Relationship, error) {
			return &model.Relationship{ID: 1, InviterID: 7, Status: model.RelationshipPending}, nil
		},
	}
	users := &mockUserRepository{
		getSummaryFn: func(ctx context.Context, id int64) (*model.UserSummary, error) {
			return &model.UserSummary{ID: id, DisplayName: &name}, nil
		},
	}
	svc := newTestRelationshipService(rels, users, &mockNotificationRepository{})

	info, err := svc.LookupInvitation(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Inviter.ID != 7 || info.Inviter.DisplayName == nil || *info.Inviter.DisplayName != "Alice" {
		t.Errorf("inviter summary = %+v", info.Inviter)
	}
	if info.Status != model.RelationshipPending {
		t.Errorf("status = %q, want pending", info.Status)
	}
}

func pendingInvitation(token string, inviterID int64) *model.Relationship {
	return &model.Relationship{ID: 4, InviterID: inviterID, InviteToken: token, Status: model.RelationshipPending}
}

func TestRelationshipService_AcceptInvitation_BindsInviteeAndNotifiesInviter(t *testing.T) {
	var acceptedBy int64
	rels := &mockRelationshipRepository{
		getByTokenForUpdateFn: func(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
			return pendingInvitation(token, 1), nil
		},
		acceptFn: func(ctx context.Context, tx *sqlx.Tx, id, inviteeID int64) error {
			acceptedBy = inviteeID
			return nil
		},
	}
	notifications := &mockNotificationRepository{}
	svc, mock := newTxRelationshipService(t, rels, &mockBlockRepository{}, notifications)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rel, err := svc.AcceptInvitation(context.Background(), "tok", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acceptedBy != 2 {
		t.Errorf("accepted by = %d, want 2", acceptedBy)
	}
	if rel.Status != model.RelationshipAccepted || rel.InviteeID == nil || *rel.InviteeID != 2 {
		t.Errorf("relationship after accept = %+v", rel)
	}
	if len(notifications.created) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications.created))
	}
	n := notifications.created[0]
	if n.UserID != 1 || n.Type != model.NotificationRelationAccepted {
		t.Errorf("notification = %+v, want relation_accepted addressed to the inviter", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("transaction expectations: %v", err)
	}
}

func TestRelationshipService_AcceptInvitation_RepeatIsIdempotent(t *testing.T) {
	invitee := int64(2)
	var writes int
	rels := &mockRelationshipRepository{
		getByTokenForUpdateFn: func(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
			return &model.Relationship{ID: 4, InviterID: 1, InviteeID: &invitee, InviteToken: token, Status: model.RelationshipAccepted}, nil
		},
		acceptFn: func(ctx context.Context, tx *sqlx.Tx, id, inviteeID int64) error {
			writes++
			return nil
		},
	}
	notifications := &mockNotificationRepository{}
	svc, mock := newTxRelationshipService(t, rels, &mockBlockRepository{}, notifications)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rel, err := svc.AcceptInvitation(context.Background(), "tok", 2)
	if err != nil {
		t.Fatalf("a repeat accept by the same user must succeed, got %v", err)
	}
	if rel.Status != model.RelationshipAccepted {
		t.Errorf("status = %q", rel.Status)
	}
	if writes != 0 {
		t.Errorf("writes = %d, the second accept must not touch the row", writes)
	}
	if len(notifications.created) != 0 {
		t.Errorf("notifications = %d, the inviter must not be notified twice", len(notifications.created))
	}
}

func TestRelationshipService_AcceptInvitation_ClosedForThirdParty(t *testing.T) {
	invitee := int64(2)
	rels := &mockRelationshipRepository{
		getByTokenForUpdateFn: func(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
			return &model.Relationship{ID: 4, InviterID: 1, InviteeID: &invitee, InviteToken: token, Status: model.RelationshipAccepted}, nil
		},
	}
	svc, mock := newTxRelationshipService(t, rels, &mockBlockRepository{}, &mockNotificationRepository{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	if _, err := svc.AcceptInvitation(context.Background(), "tok", 3); !errors.Is(err, model.ErrInvitationClosed) {
		t.Errorf("error = %v, want ErrInvitationClosed", err)
	}
}

func TestRelationshipService_AcceptInvitation_DeclinedIsClosed(t *testing.T) {
	rels := &mockRelationshipRepository{
		getByTokenForUpdateFn: func(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
			return &model.Relationship{ID: 4, InviterID: 1, InviteToken: token, Status: model.RelationshipDeclined}, nil
		},
	}
	svc, mock := newTxRelationshipService(t, rels, &mockBlockRepository{}, &mockNotificationRepository{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	if _, err := svc.AcceptInvitation(context.Background(), "tok", 2); !errors.Is(err, model.ErrInvitationClosed) {
		t.Errorf("error = %v, want ErrInvitationClosed", err)
	}
}

func TestRelationshipService_AcceptInvitation_SelfRejected(t *testing.T) {
	var blockChecked bool
	rels := &mockRelationshipRepository{
		getByTokenForUpdateFn: func(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
			return pendingInvitation(token, 1), nil
		},
	}
	blocks := &mockBlockRepository{
		existsBetweenFn: func(ctx context.Context, userA, userB int64) (bool, error) {
			blockChecked = true
			return false, nil
		},
	}
	svc, mock := newTxRelationshipService(t, rels, blocks, &mockNotificationRepository{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	if _, err := svc.AcceptInvitation(context.Background(), "tok", 1); !errors.Is(err, model.ErrSelfInvitation) {
		t.Errorf("error = %v, want ErrSelfInvitation", err)
	}
	if blockChecked {
		t.Error("the block list is irrelevant to a self-accept")
	}
}

func TestRelationshipService_AcceptInvitation_BlockedPairRejected(t *testing.T) {
	var writes int
	rels := &mockRelationshipRepository{
		getByTokenForUpdateFn: func(ctx context.Context, tx *sqlx.Tx, token string) (*model.Relationship, error) {
			return pendingInvitation(token, 1), nil
		},
		acceptFn: func(ctx context.Context, tx *sqlx.Tx, id, inviteeID int64) error {
			writes++
			return nil
		},
	}
	blocks := &mockBlockRepository{
		existsBetweenFn: func(ctx context.Context, userA, userB int64) (bool, error) {
			return true, nil
		},
	}
	svc, mock := newTxRelationshipService(t, rels, blocks, &mockNotificationRepository{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	if _, err := svc.AcceptInvitation(context.Background(), "tok", 2); !errors.Is(err, model.ErrPairBlocked) {
		t.Errorf("error = %v, want ErrPairBlocked", err)
	}
	if writes != 0 {
		t.Error("a blocked pair must never produce an accepted row")
	}
}

func TestRelationshipService_Get_OutsiderSeesNotFound(t *testing.T) {
	rels := &mockRelationshipRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Relationship, error) {
			return acceptedRelationship(1, 2), nil
		},
	}
	svc := newTestRelationshipService(rels, &mockUserRepository{}, &mockNotificationRepository{})

	if _, err := svc.Get(context.Background(), 10, 99); !errors.Is(err, model.ErrNotAParty) {
		t.Errorf("error = %v, want ErrNotAParty", err)
	}
}

func TestRelationshipService_Delete_NotifiesPartner(t *testing.T) {
	rels := &mockRelationshipRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Relationship, error) {
			return acceptedRelationship(1, 2), nil
		},
	}
	notifications := &mockNotificationRepository{}
	svc := newTestRelationshipService(rels, &mockUserRepository{}, notifications)

	if err := svc.Delete(context.Background(), 10, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels.deleted) != 1 || rels.deleted[0] != 10 {
		t.Fatalf("deleted = %v, want [10]", rels.deleted)
	}
	if len(notifications.created) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications.created))
	}
	n := notifications.created[0]
	if n.UserID != 2 {
		t.Errorf("notified user = %d, want the partner (2)", n.UserID)
	}
	if n.Type != model.NotificationRelationDeleted {
		t.Errorf("type = %q, want relation_deleted", n.Type)
	}
	if n.RelationshipID != nil {
		t.Error("deleted relationship must not be referenced by the notification")
	}
}

func TestRelationshipService_Delete_PendingHasNoPartnerToNotify(t *testing.T) {
	rels := &mockRelationshipRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Relationship, error) {
			return &model.Relationship{ID: 10, InviterID: 1, Status: model.RelationshipPending}, nil
		},
	}
	notifications := &mockNotificationRepository{}
	svc := newTestRelationshipService(rels, &mockUserRepository{}, notifications)

	if err := svc.Delete(context.Background(), 10, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications.created) != 0 {
		t.Errorf("notifications = %d, want 0 for a pending invitation", len(notifications.created))
	}
}

func TestRelationshipService_Delete_OutsiderRejected(t *testing.T) {
	rels := &mockRelationshipRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Relationship, error) {
			return acceptedRelationship(1, 2), nil
		},
	}
	svc := newTestRelationshipService(rels, &mockUserRepository{}, &mockNotificationRepository{})

	if err := svc.Delete(context.Background(), 10, 99); !errors.Is(err, model.ErrNotAParty) {
		t.Errorf("error = %v, want ErrNotAParty", err)
	}
	if len(rels.deleted) != 0 {
		t.Error("nothing may be deleted by an outsider")
	}
}
