package service

import (
	"context"
	"fmt"
	"log"

	"noslimites/api/internal/model"
	"noslimites/api/internal/queue"
	"noslimites/api/internal/repository"
)

// NotificationService creates notification rows and hands them off to the
// push queue. Row creation is synchronous so the feed reflects the action
// immediately; web-push delivery is asynchronous and best-effort.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	publisher        queue.Publisher // nil when Redis is not configured
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		publisher:        publisher,
	}
}

// List returns the recipient's feed plus the unread count.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	notifications, unread, err := s.notificationRepo.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

// MarkAsRead marks the given notifications read, scoped to the recipient.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.notificationRepo.MarkAsRead(ctx, userID, ids)
}

// MarkAllAsRead marks every unread notification of the recipient read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

// NotifyRelationAccepted tells the inviter their invitation was accepted.
func (s *NotificationService) NotifyRelationAccepted(ctx context.Context, inviterID, accepterID, relationshipID int64) {
	name := s.displayName(ctx, accepterID)
	s.notify(ctx, &model.Notification{
		UserID:         inviterID,
		Type:           model.NotificationRelationAccepted,
		Title:          "Invitation acceptée",
		Message:        fmt.Sprintf("%s a accepté votre invitation.", name),
		RelatedUserID:  &accepterID,
		RelationshipID: &relationshipID,
	})
}

// NotifyNewCommonLimit tells the partner a new match appeared. The limit
// itself is not named in the message; matches are read from the common list.
func (s *NotificationService) NotifyNewCommonLimit(ctx context.Context, recipientID, actorID, relationshipID int64) {
	name := s.displayName(ctx, actorID)
	s.notify(ctx, &model.Notification{
		UserID:         recipientID,
		Type:           model.NotificationNewCommonLimit,
		Title:          "Nouvelle limite en commun",
		Message:        fmt.Sprintf("Vous avez une nouvelle limite en commun avec %s.", name),
		RelatedUserID:  &actorID,
		RelationshipID: &relationshipID,
	})
}

// NotifyLimitRemoved tells the partner a previously common limit is gone.
func (s *NotificationService) NotifyLimitRemoved(ctx context.Context, recipientID, actorID, relationshipID int64) {
	name := s.displayName(ctx, actorID)
	s.notify(ctx, &model.Notification{
		UserID:         recipientID,
		Type:           model.NotificationLimitRemoved,
		Title:          "Limite retirée",
		Message:        fmt.Sprintf("Une limite en commun avec %s a été retirée.", name),
		RelatedUserID:  &actorID,
		RelationshipID: &relationshipID,
	})
}

// NotifyRelationDeleted tells the partner the relationship was ended. The
// relationship row is already gone, so no relationship reference is kept.
func (s *NotificationService) NotifyRelationDeleted(ctx context.Context, recipientID, actorID int64) {
	name := s.displayName(ctx, actorID)
	s.notify(ctx, &model.Notification{
		UserID:        recipientID,
		Type:          model.NotificationRelationDeleted,
		Title:         "Relation supprimée",
		Message:       fmt.Sprintf("%s a mis fin à votre relation.", name),
		RelatedUserID: &actorID,
	})
}

// notify persists the row and enqueues the push event. Failures are logged,
// never propagated: a notification must not fail the action that caused it.
func (s *NotificationService) notify(ctx context.Context, n *model.Notification) {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Printf("[Notification] Create FAILED: type=%s recipient=%d err=%v", n.Type, n.UserID, err)
		return
	}

	if s.publisher == nil {
		return
	}
	event := queue.NewNotificationCreatedEvent(n.ID, n.UserID, n.Type, n.Title, n.Message)
	if _, err := s.publisher.Publish(ctx, queue.StreamNotifications, event); err != nil {
		log.Printf("[Notification] Publish FAILED: notif=%d err=%v", n.ID, err)
	}
}

func (s *NotificationService) displayName(ctx context.Context, userID int64) string {
	summary, err := s.userRepo.GetSummary(ctx, userID)
	if err != nil || summary == nil || summary.DisplayName == nil || *summary.DisplayName == "" {
		return "Votre partenaire"
	}
	return *summary.DisplayName
}
