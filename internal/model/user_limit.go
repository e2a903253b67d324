package model

import (
	"errors"
	"time"
)

// MaxNoteLength bounds the free-text note attached to a limit choice.
const MaxNoteLength = 500

// UserLimit is one user's choice on one limit within one relationship.
// (UserID, RelationshipID, LimitID) is unique. This is the only table whose
// rows must never cross the user boundary: no API returns another user's
// row, only the computed intersection.
type UserLimit struct {
	ID             int64     `db:"id" json:"-"`
	UserID         int64     `db:"user_id" json:"-"`
	RelationshipID int64     `db:"relationship_id" json:"-"`
	LimitID        string    `db:"limit_id" json:"limit_id"`
	IsAccepted     bool      `db:"is_accepted" json:"is_accepted"`
	Note           *string   `db:"note" json:"note,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

// ChoiceUpdate is one entry of the bulk upsert body.
type ChoiceUpdate struct {
	LimitID    string `json:"limit_id"`
	IsAccepted bool   `json:"is_accepted"`
}

// UpsertChoicesRequest is the request body for PUT /relationships/{id}/limits.
type UpsertChoicesRequest struct {
	Choices []ChoiceUpdate `json:"choices"`
}

// NoteRequest is the request body for PUT .../limits/{limitId}/note.
type NoteRequest struct {
	Note string `json:"note"`
}

// CommonLimit is one matched limit: both parties accepted it. Each party's
// note is only visible here, on the match.
type CommonLimit struct {
	LimitID     string  `db:"limit_id" json:"limit_id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	MyNote      *string `db:"my_note" json:"my_note,omitempty"`
	PartnerNote *string `db:"partner_note" json:"partner_note,omitempty"`
}

var (
	ErrNoteTooLong = errors.New("note exceeds maximum length")
	ErrNoteEmpty   = errors.New("note is empty")
)
