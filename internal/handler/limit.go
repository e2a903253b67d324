package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"noslimites/api/internal/httputil"
	"noslimites/api/internal/model"
	"noslimites/api/internal/service"
)

// LimitHandler exposes per-relationship limit choices, notes and the
// matched intersection.
type LimitHandler struct {
	limitService *service.LimitService
}

func NewLimitHandler(limitService *service.LimitService) *LimitHandler {
	return &LimitHandler{limitService: limitService}
}

// GetMyChoices handles GET /relationships/{id}/limits.
func (h *LimitHandler) GetMyChoices(w http.ResponseWriter, r *http.Request) {
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

	choices, err := h.limitService.GetMyChoices(r.Context(), relID, userID)
	if err != nil {
		writeRelationshipError(w, err, "Failed to load choices")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"choices": choices})
}

// UpsertChoices handles PUT /relationships/{id}/limits.
func (h *LimitHandler) UpsertChoices(w http.ResponseWriter, r *http.Request) {
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

	var req model.UpsertChoicesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if len(req.Choices) == 0 {
		httputil.WriteValidationError(w, "At least one choice is required")
		return
	}

	if err := h.limitService.UpsertChoices(r.Context(), relID, userID, req.Choices); err != nil {
		if errors.Is(err, model.ErrLimitNotFound) {
			httputil.WriteValidationError(w, "Unknown limit in choices")
			return
		}
		writeRelationshipError(w, err, "Failed to save choices")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Choices saved"})
}

// UpsertNote handles PUT /relationships/{id}/limits/{limitId}/note.
func (h *LimitHandler) UpsertNote(w http.ResponseWriter, r *http.Request) {
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
	limitID := pathParam(r, "limitId")

	var req model.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	row, err := h.limitService.UpsertNote(r.Context(), relID, userID, limitID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoteEmpty):
			httputil.WriteValidationError(w, "Note cannot be empty")
		case errors.Is(err, model.ErrNoteTooLong):
			httputil.WriteValidationError(w, "Note exceeds 500 characters")
		case errors.Is(err, model.ErrLimitNotFound):
			httputil.WriteNotFound(w, "Unknown limit")
		default:
			writeRelationshipError(w, err, "Failed to save note")
		}
		return
	}
	httputil.WriteJSON(w, http.StatusOK, row)
}

// DeleteNote handles DELETE /relationships/{id}/limits/{limitId}/note.
func (h *LimitHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
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
	limitID := pathParam(r, "limitId")

	if err := h.limitService.DeleteNote(r.Context(), relID, userID, limitID); err != nil {
		writeRelationshipError(w, err, "Failed to delete note")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

// GetCommonLimits handles GET /relationships/{id}/common-limits.
func (h *LimitHandler) GetCommonLimits(w http.ResponseWriter, r *http.Request) {
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

	common, err := h.limitService.GetCommonLimits(r.Context(), relID, userID)
	if err != nil {
		writeRelationshipError(w, err, "Failed to load common limits")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"common_limits": common})
}
