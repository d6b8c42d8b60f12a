package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Build is the body-build enumeration of a character sheet.
type Build string

const (
	BuildSlim     Build = "slim"
	BuildAverage  Build = "average"
	BuildAthletic Build = "athletic"
	BuildMuscular Build = "muscular"
	BuildHeavy    Build = "heavy"
)

// Builds lists the accepted build values in display order.
var Builds = []Build{BuildSlim, BuildAverage, BuildAthletic, BuildMuscular, BuildHeavy}

// IsBuild reports whether b is a known build (the empty build is allowed).
func IsBuild(b Build) bool {
	if b == "" {
		return true
	}
	for _, x := range Builds {
		if x == b {
			return true
		}
	}
	return false
}

// Gauge names of CharacterState.
const (
	GaugeHunger = "hunger"
	GaugeThirst = "thirst"
	GaugeOxygen = "oxygen"
)

// Five-level ordinal labels per gauge, best first.
var gaugeLevels = map[string][]string{
	GaugeHunger: {"sated", "fine", "peckish", "hungry", "starving"},
	GaugeThirst: {"quenched", "fine", "dry", "thirsty", "parched"},
	GaugeOxygen: {"full", "steady", "winded", "gasping", "suffocating"},
}

// GaugeLevels returns the ordered labels of gauge, or nil for an unknown gauge.
func GaugeLevels(gauge string) []string {
	lv := gaugeLevels[gauge]
	if lv == nil {
		return nil
	}
	out := make([]string, len(lv))
	copy(out, lv)
	return out
}

// GaugeOrdinal returns the 0-based level of label on gauge, or -1.
func GaugeOrdinal(gauge, label string) int {
	for i, l := range gaugeLevels[gauge] {
		if l == label {
			return i
		}
	}
	return -1
}

// CharacterProfile is the per-relationship, per-user character sheet. It is
// written once during setup; afterwards only the turn merge may patch the
// whitelisted fields (see ProfilePatchFields).
type CharacterProfile struct {
	RelationshipID string                      `json:"relationship_id" gorm:"type:varchar(128);primaryKey"`
	UserID         string                      `json:"user_id"         gorm:"type:varchar(128);primaryKey"`
	Name           string                      `json:"name"            gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Age            string                      `json:"age,omitempty"   gorm:"type:varchar(64)"           validate:"max=64"`
	Height         string                      `json:"height,omitempty" gorm:"type:varchar(64)"          validate:"max=64"`
	Weight         string                      `json:"weight,omitempty" gorm:"type:varchar(64)"          validate:"max=64"`
	Build          Build                       `json:"build,omitempty" gorm:"type:varchar(16)"            validate:"build"`
	Weaknesses     string                      `json:"weaknesses,omitempty" gorm:"type:text"             validate:"max=2000"`
	Background     string                      `json:"background,omitempty" gorm:"type:text"             validate:"max=4000"`
	Tags           datatypes.JSONSlice[string] `json:"tags"                                                validate:"max=32,dive,max=64"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for CharacterProfile.
func (CharacterProfile) TableName() string { return "character_profiles" }

// ProfilePatchFields are the only profile fields the turn merge may change.
var ProfilePatchFields = []string{"name", "height", "weight", "build", "weaknesses"}

// CharacterState is the mutable per-relationship, per-user state.
type CharacterState struct {
	RelationshipID string                      `json:"relationship_id" gorm:"type:varchar(128);primaryKey"`
	UserID         string                      `json:"user_id"         gorm:"type:varchar(128);primaryKey"`
	Hunger         string                      `json:"hunger"          gorm:"type:varchar(16)" validate:"omitempty,gauge=hunger"`
	Thirst         string                      `json:"thirst"          gorm:"type:varchar(16)" validate:"omitempty,gauge=thirst"`
	Oxygen         string                      `json:"oxygen"          gorm:"type:varchar(16)" validate:"omitempty,gauge=oxygen"`
	Status         datatypes.JSONSlice[string] `json:"status"`
	Clothing       datatypes.JSONSlice[string] `json:"clothing"`
	Accessories    datatypes.JSONSlice[string] `json:"accessories"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for CharacterState.
func (CharacterState) TableName() string { return "character_states" }

// NewCharacterState returns the starting state: every gauge at its best level.
func NewCharacterState(relID, userID string) CharacterState {
	return CharacterState{
		RelationshipID: relID,
		UserID:         userID,
		Hunger:         gaugeLevels[GaugeHunger][0],
		Thirst:         gaugeLevels[GaugeThirst][0],
		Oxygen:         gaugeLevels[GaugeOxygen][0],
		Status:         datatypes.JSONSlice[string]{},
		Clothing:       datatypes.JSONSlice[string]{},
		Accessories:    datatypes.JSONSlice[string]{},
	}
}

// InventoryItem is one named entry of a per-relationship, per-user
// inventory. A nil Quantity means "unspecified" rather than zero.
type InventoryItem struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	RelationshipID string    `json:"relationship_id" gorm:"type:varchar(128);not null;index:idx_inv_owner,priority:1"`
	UserID         string    `json:"user_id"         gorm:"type:varchar(128);not null;index:idx_inv_owner,priority:2"`
	Name           string    `json:"name"            gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Quantity       *int      `json:"quantity,omitempty"                                  validate:"omitempty,min=0"`
	Notes          string    `json:"notes,omitempty" gorm:"type:text"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for InventoryItem.
func (InventoryItem) TableName() string { return "inventory_items" }
