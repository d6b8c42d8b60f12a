// Package domain defines the persistence models for invites, relationships,
// messages, per-user summaries and the character sub-documents. These types
// are mapped with GORM and form the core data layer of the linking backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Product areas. Each area owns its own relationship id prefix and its own
// namespace of per-user summaries.
const (
	AreaCC         = "cc"
	AreaCommission = "commission"
	AreaBigGote    = "biggote"
)

// NarratorID is the reserved sender id of automated turn narration.
const NarratorID = "__narrator__"

// Message kinds.
const (
	MessageKindMessage = "message"
	MessageKindUpdate  = "update"
)

// Link roles.
const (
	LinkRoleOwner  = "owner"
	LinkRoleMember = "member"
)

// IsArea reports whether a is a known product area.
func IsArea(a string) bool {
	switch a {
	case AreaCC, AreaCommission, AreaBigGote:
		return true
	}
	return false
}

// Relationship is the canonical two-party document ("chat"). The id is either
// derived from the participant identities or, for BigGote, the invite token.
//
// Fields:
//   - ID: deterministic or token-based primary key.
//   - Area: product area that created the relationship.
//   - OwnerID / ClientID: the issuing owner and the optional client record the
//     relationship was linked through (cc only).
//   - Participants: participant user ids; exactly two at creation, one after unlink.
//   - SharedNote / BehaviorGuidance / Scene / AIMode: shared mutable fields.
//   - LastMessageAt: time of the newest message, never moves backwards.
type Relationship struct {
	ID               string                      `json:"id"                 gorm:"type:varchar(128);primaryKey"`
	Area             string                      `json:"area"               gorm:"type:varchar(16);not null;index"`
	OwnerID          string                      `json:"owner_id"           gorm:"type:varchar(128);not null;index"`
	ClientID         string                      `json:"client_id,omitempty" gorm:"type:varchar(128)"`
	Participants     datatypes.JSONSlice[string] `json:"participants"       gorm:"not null"`
	SharedNote       string                      `json:"shared_note"        gorm:"type:text"`
	BehaviorGuidance string                      `json:"behavior_guidance"  gorm:"type:text"`
	Scene            string                      `json:"scene"              gorm:"type:text"`
	AIMode           bool                        `json:"ai_mode"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	LastMessageAt    *time.Time                  `json:"last_message_at,omitempty"`
}

// TableName returns the database table name for Relationship.
func (Relationship) TableName() string { return "relationships" }

// HasParticipant reports whether userID is currently a participant.
func (r Relationship) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// SameParticipants reports whether the participant set (order ignored) is
// exactly {a, b}.
func (r Relationship) SameParticipants(a, b string) bool {
	if len(r.Participants) != 2 {
		return false
	}
	p0, p1 := r.Participants[0], r.Participants[1]
	return (p0 == a && p1 == b) || (p0 == b && p1 == a)
}

// Counterpart returns the participant that is not userID, or "" when none.
func (r Relationship) Counterpart(userID string) string {
	for _, p := range r.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// Message is a single append-only entry in a relationship. Messages are
// ordered by CreatedAt and never edited.
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	RelationshipID string    `json:"relationship_id" gorm:"type:varchar(128);not null;index:idx_rel_msgs,priority:1"`
	SenderID       string    `json:"sender_id"       gorm:"type:varchar(128);not null"`
	Kind           string    `json:"kind"            gorm:"type:varchar(16);not null;default:'message';check:kind IN ('message','update')"`
	Text           string    `json:"text"            gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_rel_msgs,priority:2"`

	// Relationship is the parent document; messages go with it.
	Relationship Relationship `json:"-" gorm:"foreignKey:RelationshipID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// IsNarration reports whether the message was written by the narrator.
func (m Message) IsNarration() bool { return m.SenderID == NarratorID }

// Summary is the per-user mirror of a relationship, nested under the user's
// own namespace so a user can list "their" relationships.
type Summary struct {
	UserID         string     `json:"user_id"         gorm:"type:varchar(128);primaryKey"`
	Area           string     `json:"area"            gorm:"type:varchar(16);primaryKey"`
	RelationshipID string     `json:"relationship_id" gorm:"type:varchar(128);primaryKey"`
	CounterpartID  string     `json:"counterpart_id"  gorm:"type:varchar(128)"`
	Label          string     `json:"label"           gorm:"type:varchar(255)"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Summary.
func (Summary) TableName() string { return "summaries" }

// Unread is derived, never stored: lastMessageAt > lastReadAt. A summary
// without any message is read; a message with no read marker is unread.
func (s Summary) Unread() bool {
	if s.LastMessageAt == nil {
		return false
	}
	if s.LastReadAt == nil {
		return true
	}
	return s.LastMessageAt.After(*s.LastReadAt)
}

// Link mirrors the owner/client/user association of a cc relationship under
// one user's namespace. An accept writes two of them (owner side and member
// side) and an unlink removes both.
type Link struct {
	UserID         string    `json:"user_id"         gorm:"type:varchar(128);primaryKey"`
	ClientID       string    `json:"client_id"       gorm:"type:varchar(128);primaryKey"`
	RelationshipID string    `json:"relationship_id" gorm:"type:varchar(128);primaryKey"`
	Role           string    `json:"role"            gorm:"type:varchar(16);not null"`
	CounterpartID  string    `json:"counterpart_id"  gorm:"type:varchar(128)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for Link.
func (Link) TableName() string { return "links" }

// UserProfile holds per-user settings that other components read: display
// name, linked Discord identity, role tags and product access flags.
type UserProfile struct {
	UserID          string                      `json:"user_id"          gorm:"type:varchar(128);primaryKey"`
	DisplayName     string                      `json:"display_name"     gorm:"type:varchar(255)"`
	DiscordID       string                      `json:"discord_id"       gorm:"type:varchar(64);index"`
	DiscordUsername string                      `json:"discord_username" gorm:"type:varchar(255)"`
	Roles           datatypes.JSONSlice[string] `json:"roles"`
	Access          datatypes.JSONSlice[string] `json:"access"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// HasAccess reports whether the profile carries the given access flag.
func (p UserProfile) HasAccess(flag string) bool {
	for _, a := range p.Access {
		if a == flag {
			return true
		}
	}
	return false
}

// PushToken is a browser push registration persisted under the user.
type PushToken struct {
	UserID    string    `json:"user_id"  gorm:"type:varchar(128);primaryKey"`
	Token     string    `json:"token"    gorm:"type:varchar(512);primaryKey"`
	Platform  string    `json:"platform" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for PushToken.
func (PushToken) TableName() string { return "push_tokens" }
