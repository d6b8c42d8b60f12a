package domain

// ItemOp is one inventory operation. Matching is by trimmed,
// case-insensitive name. A nil Qty means "unspecified".
type ItemOp struct {
	Name  string  `json:"name"`
	Qty   *int    `json:"qty,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// InventoryPatch groups inventory operations. They apply in the order
// set, add, remove.
type InventoryPatch struct {
	Set    []ItemOp `json:"set,omitempty"`
	Add    []ItemOp `json:"add,omitempty"`
	Remove []ItemOp `json:"remove,omitempty"`
}

// Empty reports whether the patch has no operations.
func (p InventoryPatch) Empty() bool {
	return len(p.Set) == 0 && len(p.Add) == 0 && len(p.Remove) == 0
}

// ProfilePatch is the whitelisted partial update of a character profile.
// Nil fields are left unchanged.
type ProfilePatch struct {
	Name       *string `json:"name,omitempty"`
	Height     *string `json:"height,omitempty"`
	Weight     *string `json:"weight,omitempty"`
	Build      *Build  `json:"build,omitempty"`
	Weaknesses *string `json:"weaknesses,omitempty"`
}

// StatePatch updates a character state. Gauge fields set a level label;
// for each list, a non-nil Set* replaces it, then Add* unions and Remove*
// filters.
type StatePatch struct {
	Hunger *string `json:"hunger,omitempty"`
	Thirst *string `json:"thirst,omitempty"`
	Oxygen *string `json:"oxygen,omitempty"`

	SetStatusTags    []string `json:"setStatusTags,omitempty"`
	AddStatusTags    []string `json:"addStatusTags,omitempty"`
	RemoveStatusTags []string `json:"removeStatusTags,omitempty"`

	SetClothing    []string `json:"setClothing,omitempty"`
	AddClothing    []string `json:"addClothing,omitempty"`
	RemoveClothing []string `json:"removeClothing,omitempty"`

	SetAccessories    []string `json:"setAccessories,omitempty"`
	AddAccessories    []string `json:"addAccessories,omitempty"`
	RemoveAccessories []string `json:"removeAccessories,omitempty"`
}

// TurnActions is the structured part of an AI turn, keyed by user id.
type TurnActions struct {
	Profiles    map[string]ProfilePatch   `json:"profiles,omitempty"`
	Inventories map[string]InventoryPatch `json:"inventories,omitempty"`
	States      map[string]StatePatch     `json:"states,omitempty"`
}
