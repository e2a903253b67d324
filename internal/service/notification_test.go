package service

import (
	"context"
	"strings"
	"testing"

	"noslimites/api/internal/model"
	"noslimites/api/internal/queue"
)

func TestNotificationService_NotifyRelationAccepted(t *testing.T) {
	name := "Benoît"
	users := &mockUserRepository{
		getSummaryFn: func(ctx context.Context, id int64) (*model.UserSummary, error) {
			return &model.UserSummary{ID: id, DisplayName: &name}, nil
		},
	}
	repo := &mockNotificationRepository{}
	publisher := &mockPublisher{}
	svc := NewNotificationService(repo, users, publisher)

	svc.NotifyRelationAccepted(context.Background(), 1, 2, 10)

	if len(repo.created) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.created))
	}
	n := repo.created[0]
	if n.UserID != 1 {
		t.Errorf("recipient = %d, want the inviter", n.UserID)
	}
	if n.Type != model.NotificationRelationAccepted {
		t.Errorf("type = %q", n.Type)
	}
	if !strings.Contains(n.Message, "Benoît") {
		t.Errorf("message %q should name the accepter", n.Message)
	}
	if n.RelationshipID == nil || *n.RelationshipID != 10 {
		t.Error("notification should reference the relationship")
	}

	if len(publisher.published) != 1 {
		t.Fatalf("events = %d, want 1", len(publisher.published))
	}
	event := publisher.published[0]
	if event.Type != queue.EventNotificationCreated {
		t.Errorf("event type = %q", event.Type)
	}
	if event.RecipientID != 1 || event.NotificationID != n.ID {
		t.Errorf("event = %+v, must reference the stored row", event)
	}
}

func TestNotificationService_FallbackDisplayName(t *testing.T) {
	// No display name yet: messages use a neutral French fallback
	repo := &mockNotificationRepository{}
	svc := NewNotificationService(repo, &mockUserRepository{}, nil)

	svc.NotifyNewCommonLimit(context.Background(), 2, 1, 10)

	if len(repo.created) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.created))
	}
	if !strings.Contains(repo.created[0].Message, "Votre partenaire") {
		t.Errorf("message = %q, want the fallback name", repo.created[0].Message)
	}
}

func TestNotificationService_WorksWithoutPublisher(t *testing.T) {
	// Without Redis the row is still created; only push delivery is skipped
	repo := &mockNotificationRepository{}
	svc := NewNotificationService(repo, &mockUserRepository{}, nil)

	svc.NotifyLimitRemoved(context.Background(), 2, 1, 10)

	if len(repo.created) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.created))
	}
	if repo.created[0].Type != model.NotificationLimitRemoved {
		t.Errorf("type = %q", repo.created[0].Type)
	}
}

func TestNotificationService_List(t *testing.T) {
	repo := &mockNotificationRepository{}
	svc := NewNotificationService(repo, &mockUserRepository{}, nil)
	ctx := context.Background()

	svc.NotifyNewCommonLimit(ctx, 5, 1, 10)
	svc.NotifyLimitRemoved(ctx, 5, 1, 10)
	svc.NotifyNewCommonLimit(ctx, 6, 1, 10) // someone else's feed

	resp, err := svc.List(ctx, 5, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Notifications) != 2 {
		t.Errorf("feed = %d entries, want 2", len(resp.Notifications))
	}
	if resp.UnreadCount != 2 {
		t.Errorf("unread = %d, want 2", resp.UnreadCount)
	}
}
