package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"noslimites/api/internal/config"
	"noslimites/api/internal/httputil"
	"noslimites/api/internal/model"
	"noslimites/api/internal/service"
)

// AuthHandler groups the magic-link and device-token endpoints.
type AuthHandler struct {
	authService   *service.AuthService
	deviceService *service.DeviceService
	config        *config.Config
}

func NewAuthHandler(authService *service.AuthService, deviceService *service.DeviceService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		deviceService: deviceService,
		config:        cfg,
	}
}

// RequestMagicLink handles POST /auth/magic-link.
// The response never reveals whether the address has an account.
func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req model.MagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.authService.RequestMagicLink(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, model.ErrInvalidEmail) {
			httputil.WriteValidationError(w, "Invalid email address")
			return
		}
		httputil.WriteInternalError(w, "Failed to send magic link")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// VerifyMagicLink handles GET /auth/verify?token=. The token rides in the
// query string because the endpoint is opened from an email link. On success
// the client receives a session: the access token plus the device
// credentials to refresh it.
func (h *AuthHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}
	deviceLabel := r.URL.Query().Get("device_label")

	resp, err := h.authService.VerifyMagicLink(r.Context(), token, deviceLabel)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMagicLinkNotFound):
			httputil.WriteNotFound(w, "Unknown or invalid link")
		case errors.Is(err, model.ErrMagicLinkExpired):
			httputil.WriteError(w, http.StatusGone, model.CodeLinkExpired, "This link has expired")
		case errors.Is(err, model.ErrMagicLinkAlreadyUsed):
			httputil.WriteError(w, http.StatusGone, model.CodeLinkUsed, "This link has already been used")
		default:
			httputil.WriteInternalError(w, "Failed to verify magic link")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /auth/device/refresh: rotates the device token and
// mints a fresh access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.DeviceID == "" || req.DeviceToken == "" {
		httputil.WriteBadRequest(w, "Device ID and device token are required")
		return
	}

	creds, userID, err := h.deviceService.Refresh(r.Context(), req.DeviceID, req.DeviceToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrDeviceExpired):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Device token has expired, please sign in again")
		case errors.Is(err, model.ErrDeviceNotFound):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid or revoked device token")
		default:
			httputil.WriteInternalError(w, "Failed to refresh session")
		}
		return
	}

	accessToken, err := h.authService.GenerateAccessToken(userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to refresh session")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.RefreshResponse{
		AccessToken: accessToken,
		DeviceToken: creds.DeviceToken,
		ExpiresIn:   h.config.AccessTokenMaxAge,
	})
}

// Logout handles POST /auth/logout: revokes the calling device's token.
// Access tokens are stateless and simply age out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.DeviceID == "" {
		httputil.WriteBadRequest(w, "Device ID is required")
		return
	}

	if err := h.deviceService.Revoke(r.Context(), req.DeviceID, userID); err != nil {
		if errors.Is(err, model.ErrDeviceNotFound) {
			httputil.WriteNotFound(w, "Device not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to log out")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ListDevices handles GET /auth/devices.
func (h *AuthHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	devices, err := h.deviceService.List(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list devices")
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"devices": devices})
}

// RevokeDevice handles DELETE /auth/devices/{id}.
func (h *AuthHandler) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	deviceID := pathParam(r, "id")
	if deviceID == "" {
		httputil.WriteBadRequest(w, "Device ID is required")
		return
	}

	if err := h.deviceService.Revoke(r.Context(), deviceID, userID); err != nil {
		if errors.Is(err, model.ErrDeviceNotFound) {
			httputil.WriteNotFound(w, "Device not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to revoke device")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Device revoked"})
}
