package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"noslimites/api/internal/httputil"
	"noslimites/api/internal/model"
	"noslimites/api/internal/service"
)

const defaultNotificationLimit = 50

// NotificationHandler exposes the notification feed.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := defaultNotificationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	resp, err := h.notificationService.List(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list notifications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// MarkRead handles PUT /notifications/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.notificationService.MarkAsRead(r.Context(), userID, req.NotificationIDs); err != nil {
		httputil.WriteInternalError(w, "Failed to mark notifications read")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked read"})
}

// MarkAllRead handles PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.notificationService.MarkAllAsRead(r.Context(), userID); err != nil {
		httputil.WriteInternalError(w, "Failed to mark notifications read")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked read"})
}
