package handler

import (
	"errors"
	"net/http"

	"noslimites/api/internal/httputil"
	"noslimites/api/internal/model"
	"noslimites/api/internal/service"
)

// RelationshipHandler exposes the invitation and relationship lifecycle.
type RelationshipHandler struct {
	relationshipService *service.RelationshipService
}

func NewRelationshipHandler(relationshipService *service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

// CreateInvitation handles POST /relationships/invite.
func (h *RelationshipHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.relationshipService.CreateInvitation(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to create invitation")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// LookupInvitation handles GET /relationships/invite/{token}. Public: this is the
// landing page behind the shared link.
func (h *RelationshipHandler) LookupInvitation(w http.ResponseWriter, r *http.Request) {
	token := pathParam(r, "token")
	if token == "" {
		httputil.WriteBadRequest(w, "Invitation token is required")
		return
	}

	info, err := h.relationshipService.LookupInvitation(r.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrRelationshipNotFound) {
			httputil.WriteNotFound(w, "Invitation not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to load invitation")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

// AcceptInvitation handles POST /relationships/accept/{token}.
func (h *RelationshipHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	token := pathParam(r, "token")

	rel, err := h.relationshipService.AcceptInvitation(r.Context(), token, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRelationshipNotFound):
			httputil.WriteNotFound(w, "Invitation not found")
		case errors.Is(err, model.ErrSelfInvitation):
			httputil.WriteConflict(w, "You cannot accept your own invitation")
		case errors.Is(err, model.ErrPairBlocked):
			httputil.WriteBlocked(w, "This invitation cannot be accepted")
		case errors.Is(err, model.ErrInvitationClosed):
			httputil.WriteConflict(w, "This invitation is no longer open")
		default:
			httputil.WriteInternalError(w, "Failed to accept invitation")
		}
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rel)
}

// DeclineInvitation handles POST /relationships/decline/{token}.
func (h *RelationshipHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	token := pathParam(r, "token")

	if err := h.relationshipService.DeclineInvitation(r.Context(), token, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrRelationshipNotFound):
			httputil.WriteNotFound(w, "Invitation not found")
		case errors.Is(err, model.ErrSelfInvitation):
			httputil.WriteConflict(w, "You cannot decline your own invitation")
		case errors.Is(err, model.ErrInvitationClosed):
			httputil.WriteConflict(w, "This invitation is no longer open")
		default:
			httputil.WriteInternalError(w, "Failed to decline invitation")
		}
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Invitation declined"})
}

// List handles GET /relationships.
func (h *RelationshipHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	views, err := h.relationshipService.List(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list relationships")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"relationships": views})
}

// Get handles GET /relationships/{id}.
func (h *RelationshipHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	relID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid relationship ID")
		return
	}

	rel, err := h.relationshipService.Get(r.Context(), relID, userID)
	if err != nil {
		writeRelationshipError(w, err, "Failed to load relationship")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rel)
}

// Delete handles DELETE /relationships/{id}.
func (h *RelationshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	relID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid relationship ID")
		return
	}

	if err := h.relationshipService.Delete(r.Context(), relID, userID); err != nil {
		writeRelationshipError(w, err, "Failed to delete relationship")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Relationship deleted"})
}

// Block handles POST /relationships/{id}/block.
func (h *RelationshipHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	relID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid relationship ID")
		return
	}

	if err := h.relationshipService.Block(r.Context(), relID, userID); err != nil {
		if errors.Is(err, model.ErrNoPartner) {
			httputil.WriteConflict(w, "This relationship has no partner to block")
			return
		}
		writeRelationshipError(w, err, "Failed to block")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Relationship blocked"})
}

// writeRelationshipError maps the common relationship errors to HTTP.
// Non-party access deliberately reads as 404, not 403, so outsiders cannot
// probe which relationship IDs exist.
func writeRelationshipError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrRelationshipNotFound), errors.Is(err, model.ErrNotAParty):
		httputil.WriteNotFound(w, "Relationship not found")
	case errors.Is(err, model.ErrPairBlocked):
		httputil.WriteBlocked(w, "This relationship is blocked")
	default:
		httputil.WriteInternalError(w, fallback)
	}
}
