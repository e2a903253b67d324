package model

import (
	"errors"
	"time"
)

// MagicLink is a one-time email sign-in credential. Rows are never deleted
// proactively; a used or expired row is simply permanently invalid.
type MagicLink struct {
	ID        int64     `db:"id" json:"-"`
	Email     string    `db:"email" json:"-"`
	Token     string    `db:"token" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"-"`
	Used      bool      `db:"used" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// IsExpired returns true if the link's expiry has passed.
func (m *MagicLink) IsExpired() bool {
	return time.Now().After(m.ExpiresAt)
}

var (
	ErrMagicLinkNotFound    = errors.New("magic link not found")
	ErrMagicLinkExpired     = errors.New("magic link expired")
	ErrMagicLinkAlreadyUsed = errors.New("magic link already used")
)

// Magic-link API error codes (used in HTTP responses)
const (
	CodeLinkExpired = "LINK_EXPIRED"
	CodeLinkUsed    = "LINK_ALREADY_USED"
)

// MagicLinkRequest is the request body for POST /auth/magic-link.
type MagicLinkRequest struct {
	Email string `json:"email"`
}

// MagicLinkResponse is always success-shaped so the endpoint does not leak
// whether an email is registered. DevLink is only populated in dev mode.
type MagicLinkResponse struct {
	Message string `json:"message"`
	DevLink string `json:"dev_link,omitempty"`
}

// VerifyResponse is returned after a successful magic-link verification.
type VerifyResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
	DeviceToken string `json:"device_token"`
	ExpiresIn   int    `json:"expires_in"` // Seconds until access token expires
}
