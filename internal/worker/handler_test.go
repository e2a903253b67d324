package worker

import (
	"context"
	"errors"
	"testing"

	"noslimites/api/internal/model"
	"noslimites/api/internal/push"
	"noslimites/api/internal/queue"
)

type mockSubscriptionProvider struct {
	subs    []model.PushSubscription
	pruned  []string
	listErr error
}

func (m *mockSubscriptionProvider) ListByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	return m.subs, m.listErr
}

func (m *mockSubscriptionProvider) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	m.pruned = append(m.pruned, endpoint)
	return nil
}

type mockPushSender struct {
	sent   []string // endpoints
	sendFn func(sub *model.PushSubscription, payload push.Payload) error
}

func (m *mockPushSender) Send(sub *model.PushSubscription, payload push.Payload) error {
	m.sent = append(m.sent, sub.Endpoint)
	if m.sendFn != nil {
		return m.sendFn(sub, payload)
	}
	return nil
}

func testEvent() queue.NotificationEvent {
	return queue.NewNotificationCreatedEvent(1, 5, model.NotificationNewCommonLimit,
		"Nouvelle limite en commun", "Vous avez une nouvelle limite en commun avec Alice.")
}

func TestHandler_FansOutToAllSubscriptions(t *testing.T) {
	subs := &mockSubscriptionProvider{
		subs: []model.PushSubscription{
			{ID: 1, Endpoint: "https://push/a"},
			{ID: 2, Endpoint: "https://push/b"},
		},
	}
	sender := &mockPushSender{}
	h := NewHandler(subs, sender)

	if err := h.HandleEvent(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent = %d, want fan-out to both subscriptions", len(sender.sent))
	}
}

func TestHandler_PrunesExpiredSubscription(t *testing.T) {
	subs := &mockSubscriptionProvider{
		subs: []model.PushSubscription{
			{ID: 1, Endpoint: "https://push/dead"},
			{ID: 2, Endpoint: "https://push/alive"},
		},
	}
	sender := &mockPushSender{
		sendFn: func(sub *model.PushSubscription, payload push.Payload) error {
			if sub.Endpoint == "https://push/dead" {
				return push.ErrExpired
			}
			return nil
		},
	}
	h := NewHandler(subs, sender)

	if err := h.HandleEvent(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs.pruned) != 1 || subs.pruned[0] != "https://push/dead" {
		t.Errorf("pruned = %v, want the dead endpoint", subs.pruned)
	}
	if len(sender.sent) != 2 {
		t.Error("the live endpoint must still receive the push")
	}
}

func TestHandler_OneFailureDoesNotBlockOthers(t *testing.T) {
	subs := &mockSubscriptionProvider{
		subs: []model.PushSubscription{
			{ID: 1, Endpoint: "https://push/flaky"},
			{ID: 2, Endpoint: "https://push/ok"},
		},
	}
	sender := &mockPushSender{
		sendFn: func(sub *model.PushSubscription, payload push.Payload) error {
			if sub.Endpoint == "https://push/flaky" {
				return errors.New("timeout")
			}
			return nil
		},
	}
	h := NewHandler(subs, sender)

	// Transient send failures are logged, not propagated: the message must
	// be acked, not redelivered to re-push to endpoints that succeeded.
	if err := h.HandleEvent(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs.pruned) != 0 {
		t.Error("a transient failure must not prune the subscription")
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := NewHandler(&mockSubscriptionProvider{}, &mockPushSender{})

	event := queue.NotificationEvent{Type: "mystery"}
	if err := h.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected an error for an unknown event type")
	}
}
