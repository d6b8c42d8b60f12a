package domain

import "time"

// InviteStatus is the lifecycle status of an invite. Transitions only go
// forward: active → {used, revoked, expired}.
type InviteStatus string

const (
	InviteActive  InviteStatus = "active"
	InviteExpired InviteStatus = "expired"
	InviteUsed    InviteStatus = "used"
	InviteRevoked InviteStatus = "revoked"
)

// CanTransition reports whether s may move to next.
func (s InviteStatus) CanTransition(next InviteStatus) bool {
	if s != InviteActive {
		return false
	}
	switch next {
	case InviteUsed, InviteRevoked, InviteExpired:
		return true
	}
	return false
}

// Usability reasons returned by InviteUsable.
const (
	ReasonOK        = ""
	ReasonMissing   = "missing"
	ReasonUsed      = "used"
	ReasonRevoked   = "revoked"
	ReasonExpired   = "expired"
	ReasonNotActive = "not_active"
)

// Invite is an owner-scoped, single-use, expiring capability to join a
// relationship. It is keyed by (OwnerID, Token).
//
// Fields:
//   - OwnerID / Token: composite primary key; the token is unguessable.
//   - Area: product area of the relationship the invite creates.
//   - TargetID: optional client record the invite targets (cc).
//   - RelationshipID: optional pre-computed relationship id (BigGote uses the token).
//   - Label / Note: human label and free text for the owner.
//   - AIMode / Scene: BigGote defaults copied onto the relationship at accept.
//   - ExpiresAt: evaluated at read time; expiry is never written back.
//   - UsedAt / UsedBy: set exactly once when the invite is consumed.
type Invite struct {
	OwnerID        string       `json:"owner_id"                  gorm:"type:varchar(128);primaryKey"`
	Token          string       `json:"token"                     gorm:"type:varchar(128);primaryKey"`
	Area           string       `json:"area"                      gorm:"type:varchar(16);not null"`
	TargetID       string       `json:"target_id,omitempty"       gorm:"type:varchar(128)"`
	RelationshipID string       `json:"relationship_id,omitempty" gorm:"type:varchar(128)"`
	Label          string       `json:"label,omitempty"           gorm:"type:varchar(255)"`
	Note           string       `json:"note,omitempty"            gorm:"type:text"`
	Status         InviteStatus `json:"status"                    gorm:"type:varchar(16);not null;index"`
	AIMode         bool         `json:"ai_mode"`
	Scene          string       `json:"scene,omitempty"           gorm:"type:text"`
	CreatedAt      time.Time    `json:"created_at"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	UsedAt         *time.Time   `json:"used_at,omitempty"`
	UsedBy         string       `json:"used_by,omitempty"         gorm:"type:varchar(128)"`
}

// TableName returns the database table name for Invite.
func (Invite) TableName() string { return "invites" }

// InviteUsable is a pure predicate. It reports false with a reason when the
// invite is missing, not active, or past its expiry instant. It never
// mutates the invite.
func InviteUsable(inv *Invite, now time.Time) (bool, string) {
	if inv == nil {
		return false, ReasonMissing
	}
	switch inv.Status {
	case InviteActive:
	case InviteUsed:
		return false, ReasonUsed
	case InviteRevoked:
		return false, ReasonRevoked
	case InviteExpired:
		return false, ReasonExpired
	default:
		return false, ReasonNotActive
	}
	if inv.ExpiresAt != nil && !now.Before(*inv.ExpiresAt) {
		return false, ReasonExpired
	}
	return true, ReasonOK
}
