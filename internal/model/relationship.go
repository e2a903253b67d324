package model

import (
	"errors"
	"time"
)

// Relationship statuses. declined and blocked are terminal; accepted can
// only move to blocked.
const (
	RelationshipPending  = "pending"
	RelationshipAccepted = "accepted"
	RelationshipDeclined = "declined"
	RelationshipBlocked  = "blocked"
)

// Relationship is the pairing context between two users. InviteeID stays
// NULL until the invitation is accepted.
type Relationship struct {
	ID          int64     `db:"id" json:"id"`
	InviterID   int64     `db:"inviter_id" json:"inviter_id"`
	InviteeID   *int64    `db:"invitee_id" json:"invitee_id"`
	InviteToken string    `db:"invite_token" json:"-"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PartnerID returns the other party's ID from the given user's perspective.
// Returns (0, false) while the relationship is still pending.
func (r *Relationship) PartnerID(userID int64) (int64, bool) {
	if r.InviteeID == nil {
		return 0, false
	}
	switch userID {
	case r.InviterID:
		return *r.InviteeID, true
	case *r.InviteeID:
		return r.InviterID, true
	}
	return 0, false
}

// IsParty returns true if the user is the inviter or the invitee.
func (r *Relationship) IsParty(userID int64) bool {
	if r.InviterID == userID {
		return true
	}
	return r.InviteeID != nil && *r.InviteeID == userID
}

var (
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrSelfInvitation       = errors.New("cannot accept your own invitation")
	ErrInvitationClosed     = errors.New("invitation is no longer open")
	ErrPairBlocked          = errors.New("this pairing is blocked")
	ErrNotAParty            = errors.New("not a party to this relationship")
	ErrNoPartner            = errors.New("relationship has no partner yet")
)

// InvitationInfo is the public landing-page view of an invitation.
type InvitationInfo struct {
	Inviter UserSummary `json:"inviter"`
	Status  string      `json:"status"`
}

// InvitationResponse is returned when a new invitation is created.
type InvitationResponse struct {
	RelationshipID int64  `json:"relationship_id"`
	InviteToken    string `json:"invite_token"`
	InviteURL      string `json:"invite_url"`
}

// RelationshipView is a relationship decorated with the partner's summary
// for the authenticated caller's relationship list.
type RelationshipView struct {
	Relationship
	Partner *UserSummary `json:"partner,omitempty"`
}
