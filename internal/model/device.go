package model

import (
	"errors"
	"time"
)

// Device is a long-lived authenticator binding for one browser. Only the
// keyed hash of the current refresh token is stored; the token itself is a
// bearer secret held by the client and rotated on every refresh.
type Device struct {
	ID         string    `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"-"`
	Label      *string   `db:"label" json:"label"`
	TokenHash  string    `db:"token_hash" json:"-"` // Never expose hash
	Revoked    bool      `db:"revoked" json:"-"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// IsExpired returns true if the device binding has expired.
func (d *Device) IsExpired() bool {
	return time.Now().After(d.ExpiresAt)
}

var (
	ErrDeviceNotFound = errors.New("device not found or revoked")
	ErrDeviceExpired  = errors.New("device token expired")
)

// Device API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// DeviceCredentials is what the client stores after issue/rotation.
type DeviceCredentials struct {
	DeviceID    string `json:"device_id"`
	DeviceToken string `json:"device_token"`
}

// RefreshRequest is the request body for POST /auth/device/refresh.
type RefreshRequest struct {
	DeviceID    string `json:"device_id"`
	DeviceToken string `json:"device_token"`
}

// RefreshResponse is returned after a successful rotation.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	DeviceToken string `json:"device_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// LogoutRequest is the request body for POST /auth/logout.
type LogoutRequest struct {
	DeviceID string `json:"device_id"`
}
