package handler

import (
	"encoding/json"
	"net/http"

	"noslimites/api/internal/config"
	"noslimites/api/internal/httputil"
	"noslimites/api/internal/model"
	"noslimites/api/internal/service"
)

// PushHandler manages web-push subscription registration.
type PushHandler struct {
	subscriptionService *service.PushSubscriptionService
	config              *config.Config
}

func NewPushHandler(subscriptionService *service.PushSubscriptionService, cfg *config.Config) *PushHandler {
	return &PushHandler{
		subscriptionService: subscriptionService,
		config:              cfg,
	}
}

// VAPIDPublicKey handles GET /push/vapid-public-key. The browser needs the
// public key to create its subscription.
func (h *PushHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if h.config.VAPIDPublicKey == "" {
		httputil.WriteNotFound(w, "Push notifications are not configured")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"public_key": h.config.VAPIDPublicKey})
}

// Subscribe handles POST /push/subscribe.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	sub, err := h.subscriptionService.Subscribe(r.Context(), userID, &req)
	if err != nil {
		httputil.WriteValidationError(w, "Incomplete push subscription")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles POST /push/unsubscribe.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUserID(r); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.subscriptionService.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		httputil.WriteInternalError(w, "Failed to remove subscription")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Unsubscribed"})
}

// ListSubscriptions handles GET /push/subscriptions.
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	subs, err := h.subscriptionService.List(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list subscriptions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"subscriptions": subs})
}

// DeleteSubscription handles DELETE /push/subscriptions/{id}. The delete is
// scoped to the caller, so a foreign ID is a silent no-op.
func (h *PushHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid subscription ID")
		return
	}

	if err := h.subscriptionService.Delete(r.Context(), id, userID); err != nil {
		httputil.WriteInternalError(w, "Failed to remove subscription")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Unsubscribed"})
}
