package model

import "testing"

func TestRelationship_PartnerID(t *testing.T) {
	invitee := int64(2)
	rel := &Relationship{ID: 1, InviterID: 1, InviteeID: &invitee, Status: RelationshipAccepted}

	if partner, ok := rel.PartnerID(1); !ok || partner != 2 {
		t.Errorf("PartnerID(1) = (%d, %v), want (2, true)", partner, ok)
	}
	if partner, ok := rel.PartnerID(2); !ok || partner != 1 {
		t.Errorf("PartnerID(2) = (%d, %v), want (1, true)", partner, ok)
	}
	if _, ok := rel.PartnerID(3); ok {
		t.Error("an outsider has no partner in the relationship")
	}
}

func TestRelationship_PartnerID_Pending(t *testing.T) {
	rel := &Relationship{ID: 1, InviterID: 1, Status: RelationshipPending}

	if _, ok := rel.PartnerID(1); ok {
		t.Error("a pending relationship has no partner yet")
	}
}

func TestRelationship_IsParty(t *testing.T) {
	invitee := int64(2)
	rel := &Relationship{ID: 1, InviterID: 1, InviteeID: &invitee}

	if !rel.IsParty(1) || !rel.IsParty(2) {
		t.Error("both inviter and invitee are parties")
	}
	if rel.IsParty(3) {
		t.Error("outsiders are not parties")
	}
}
