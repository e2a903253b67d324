package service

import (
	"context"
	"fmt"

	"noslimites/api/internal/model"
	"noslimites/api/internal/repository"
)

// PushSubscriptionService manages a user's web-push subscriptions.
type PushSubscriptionService struct {
	subscriptionRepo repository.PushSubscriptionRepository
}

func NewPushSubscriptionService(subscriptionRepo repository.PushSubscriptionRepository) *PushSubscriptionService {
	return &PushSubscriptionService{subscriptionRepo: subscriptionRepo}
}

// Subscribe registers or refreshes a browser's push subscription. The
// endpoint is the natural key: re-subscribing from the same browser updates
// the keys in place.
func (s *PushSubscriptionService) Subscribe(ctx context.Context, userID int64, req *model.SubscribeRequest) (*model.PushSubscription, error) {
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		return nil, fmt.Errorf("incomplete push subscription")
	}

	sub := &model.PushSubscription{
		UserID:    userID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dh,
		AuthKey:   req.Auth,
	}
	if err := s.subscriptionRepo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe removes a subscription by endpoint, scoped by ownership
// through the endpoint's uniqueness.
func (s *PushSubscriptionService) Unsubscribe(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return nil
	}
	return s.subscriptionRepo.DeleteByEndpoint(ctx, endpoint)
}

// Delete removes one subscription by ID, scoped to the owner.
func (s *PushSubscriptionService) Delete(ctx context.Context, id, userID int64) error {
	return s.subscriptionRepo.Delete(ctx, id, userID)
}

// List returns the caller's active subscriptions.
func (s *PushSubscriptionService) List(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	return s.subscriptionRepo.ListByUser(ctx, userID)
}
