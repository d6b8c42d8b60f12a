package domain

import (
	"testing"
	"time"
)

func TestInviteUsable(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		inv    *Invite
		ok     bool
		reason string
	}{
		{"missing", nil, false, ReasonMissing},
		{"active no expiry", &Invite{Status: InviteActive}, true, ReasonOK},
		{"active future expiry", &Invite{Status: InviteActive, ExpiresAt: &future}, true, ReasonOK},
		{"active past expiry", &Invite{Status: InviteActive, ExpiresAt: &past}, false, ReasonExpired},
		{"active expiry equals now", &Invite{Status: InviteActive, ExpiresAt: &now}, false, ReasonExpired},
		{"used future expiry", &Invite{Status: InviteUsed, ExpiresAt: &future}, false, ReasonUsed},
		{"revoked no expiry", &Invite{Status: InviteRevoked}, false, ReasonRevoked},
		{"expired status", &Invite{Status: InviteExpired, ExpiresAt: &future}, false, ReasonExpired},
		{"unknown status", &Invite{Status: "pending"}, false, ReasonNotActive},
	}
	for _, tc := range tests {
		ok, reason := InviteUsable(tc.inv, now)
		if ok != tc.ok || reason != tc.reason {
			t.Errorf("%s: got (%v,%q); want (%v,%q)", tc.name, ok, reason, tc.ok, tc.reason)
		}
	}
}

func TestInviteUsable_DoesNotMutate(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	inv := &Invite{Status: InviteActive, ExpiresAt: &past}
	_, _ = InviteUsable(inv, time.Now())
	if inv.Status != InviteActive {
		t.Fatalf("status rewritten to %q", inv.Status)
	}
}

func TestInviteStatus_CanTransition(t *testing.T) {
	for _, next := range []InviteStatus{InviteUsed, InviteRevoked, InviteExpired} {
		if !InviteActive.CanTransition(next) {
			t.Fatalf("active -> %s should be allowed", next)
		}
	}
	if InviteActive.CanTransition(InviteActive) {
		t.Fatalf("active -> active should be rejected")
	}
	for _, from := range []InviteStatus{InviteUsed, InviteRevoked, InviteExpired} {
		if from.CanTransition(InviteActive) {
			t.Fatalf("%s -> active must never be allowed", from)
		}
	}
}
