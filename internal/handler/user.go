package handler

import (
	"errors"
	"net/http"
	"strings"

	"noslimites/api/internal/httputil"
	"noslimites/api/internal/model"
	"noslimites/api/internal/service"
)

// UserHandler exposes the authenticated user's own profile.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me handles GET /me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /me with multipart form data: optional
// display_name field and optional avatar file.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	var displayName *string
	if values, present := r.MultipartForm.Value["display_name"]; present && len(values) > 0 {
		displayName = &values[0]
	}

	file, header, err := r.FormFile("avatar")
	if err != nil && err != http.ErrMissingFile {
		httputil.WriteBadRequest(w, "Invalid avatar upload")
		return
	}
	if file != nil {
		defer file.Close()
	}

	if displayName == nil && file == nil {
		httputil.WriteValidationError(w, "Nothing to update")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, displayName, file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyDisplayName):
			httputil.WriteValidationError(w, "Display name cannot be empty")
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			httputil.WriteInternalError(w, "Failed to update profile")
		}
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// DeleteMe handles DELETE /me: full account deletion with cascades.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), userID); err != nil {
		httputil.WriteInternalError(w, "Failed to delete account")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
