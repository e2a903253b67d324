package model

import (
	"time"
)

// PushSubscription is one browser's Web Push endpoint for a user.
type PushSubscription struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dhKey string    `db:"p256dh_key" json:"-"`
	AuthKey   string    `db:"auth_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubscribeRequest is the request body for POST /push/subscribe.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}
