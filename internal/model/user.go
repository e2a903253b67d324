package model

import (
	"errors"
	"time"
)

// Auth provider tags
const (
	ProviderMagicLink = "magic_link"
	ProviderOAuth     = "oauth"
)

// User represents an account in the system. Accounts are created on first
// successful magic-link verification, never on link request.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	DisplayName  *string   `db:"display_name" json:"display_name"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey    *string   `db:"avatar_key" json:"-"`
	AuthProvider string    `db:"auth_provider" json:"auth_provider"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the public projection of a user, safe to show to partners
// and on invitation landing pages.
type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	DisplayName *string `db:"display_name" json:"display_name"`
	AvatarURL   *string `db:"avatar_url" json:"avatar_url"`
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"-"`
	AvatarKey   *string `json:"-"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidEmail is returned for malformed email addresses
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrEmptyDisplayName is returned when a display name update is blank
	ErrEmptyDisplayName = errors.New("display name cannot be empty")
)
