package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"noslimites/api/internal/model"
	"noslimites/api/internal/push"
	"noslimites/api/internal/queue"
)

// SubscriptionProvider abstracts the push subscription repository so workers
// don't depend on the DB layer directly.
type SubscriptionProvider interface {
	// ListByUser returns the recipient's active push subscriptions.
	ListByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	// DeleteByEndpoint prunes a subscription the push service reported dead.
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// PushSender abstracts the web-push client for testing.
type PushSender interface {
	Send(sub *model.PushSubscription, payload push.Payload) error
}

// Handler processes notification events from the queue and delivers web
// push to every subscription the recipient holds.
type Handler struct {
	subs   SubscriptionProvider
	sender PushSender
}

// NewHandler creates a new event handler.
func NewHandler(subs SubscriptionProvider, sender PushSender) *Handler {
	return &Handler{
		subs:   subs,
		sender: sender,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.NotificationEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventNotificationCreated:
		err = h.handleNotificationCreated(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleNotificationCreated fans the notification out to every push
// subscription of the recipient. A dead endpoint (410) is pruned; other
// failures are logged and skipped so one bad endpoint cannot block the rest.
func (h *Handler) handleNotificationCreated(ctx context.Context, event queue.NotificationEvent) error {
	log.Printf("[Worker] NotificationCreated: notif=%d recipient=%d type=%s",
		event.NotificationID, event.RecipientID, event.NotifType)

	subs, err := h.subs.ListByUser(ctx, event.RecipientID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	payload := push.Payload{
		Title: event.Title,
		Body:  event.Message,
		URL:   "/notifications",
		Tag:   event.NotifType,
	}

	var failCount int
	for i := range subs {
		sub := subs[i]
		if err := h.sender.Send(&sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				log.Printf("[Worker] NotificationCreated: pruning expired subscription id=%d", sub.ID)
				if delErr := h.subs.DeleteByEndpoint(ctx, sub.Endpoint); delErr != nil {
					log.Printf("[Worker] NotificationCreated: prune failed err=%v", delErr)
				}
				continue
			}
			log.Printf("[Worker] NotificationCreated: send failed sub=%d err=%v", sub.ID, err)
			failCount++
			// Continue with other subscriptions - don't fail the entire fan-out
		}
	}

	log.Printf("[Worker] NotificationCreated DONE: notif=%d fanout=%d failed=%d",
		event.NotificationID, len(subs), failCount)

	return nil
}
