package ai

import (
	"encoding/json"
	"strings"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// TurnInstruction is the system message of a BigGote turn. It fixes the
// JSON contract that ParseTurn reads back.
const TurnInstruction = `You are the narrator of a two-player interactive story.
You receive JSON with the scene, the behavior guidance, each player's character
sheet (profile, state, inventory) keyed by user id, and the recent messages.
Continue the story in response to the players' latest actions.

Reply with ONE JSON object and nothing else:
{
  "narrator": "the narration text shown to both players",
  "actions": {
    "profiles":    { "<userId>": { "name"?, "height"?, "weight"?, "build"?, "weaknesses"? } },
    "inventories": { "<userId>": { "set"?: [{"name","qty"?,"notes"?}], "add"?: [...], "remove"?: [{"name","qty"?}] } },
    "states":      { "<userId>": { "hunger"?, "thirst"?, "oxygen"?,
                                   "setStatusTags"?, "addStatusTags"?, "removeStatusTags"?,
                                   "setClothing"?, "addClothing"?, "removeClothing"?,
                                   "setAccessories"?, "addAccessories"?, "removeAccessories"? } }
  }
}
Only include actions that the story actually changes. Builds: slim, average,
athletic, muscular, heavy. Hunger: sated, fine, peckish, hungry, starving.
Thirst: quenched, fine, dry, thirsty, parched. Oxygen: full, steady, winded,
gasping, suffocating. Omit "remove" qty to drop an item entirely.`

// Turn is a parsed narrator reply.
type Turn struct {
	Narrator string
	Actions  *domain.TurnActions
	// Rejected lists action targets whose payload did not decode. The rest
	// of the reply is still usable.
	Rejected []Rejection
}

// Rejection names an action target that could not be decoded. UserID is
// "*" when the whole namespace was malformed.
type Rejection struct {
	Target string
	UserID string
	Err    error
}

// Action targets, as reported in Rejection.Target.
const (
	TargetProfile   = "profile"
	TargetInventory = "inventory"
	TargetState     = "state"
)

type rawTurn struct {
	Narrator string          `json:"narrator"`
	Actions  json.RawMessage `json:"actions"`
}

// ParseTurn reads the structured reply, optionally wrapped in a ``` fence.
// When the reply is not a JSON object with a narrator string, the raw text
// becomes the narration, no actions apply and structured is false.
//
// Actions decode per user: a mistyped entry is reported in Rejected and
// never discards the narrator or any other entry.
func ParseTurn(raw string) (t Turn, structured bool) {
	var rt rawTurn
	if err := json.Unmarshal([]byte(stripFence(raw)), &rt); err != nil || strings.TrimSpace(rt.Narrator) == "" {
		return Turn{Narrator: strings.TrimSpace(raw)}, false
	}
	t.Narrator = strings.TrimSpace(rt.Narrator)
	if isNull(rt.Actions) {
		return t, true
	}

	var ns map[string]json.RawMessage
	if err := json.Unmarshal(rt.Actions, &ns); err != nil {
		for _, target := range []string{TargetProfile, TargetInventory, TargetState} {
			t.Rejected = append(t.Rejected, Rejection{Target: target, UserID: "*", Err: err})
		}
		return t, true
	}
	t.Actions = &domain.TurnActions{
		Profiles:    decodeTargets[domain.ProfilePatch](ns["profiles"], TargetProfile, &t.Rejected),
		Inventories: decodeTargets[domain.InventoryPatch](ns["inventories"], TargetInventory, &t.Rejected),
		States:      decodeTargets[domain.StatePatch](ns["states"], TargetState, &t.Rejected),
	}
	return t, true
}

func decodeTargets[T any](raw json.RawMessage, target string, rejected *[]Rejection) map[string]T {
	if isNull(raw) {
		return nil
	}
	var byUser map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byUser); err != nil {
		*rejected = append(*rejected, Rejection{Target: target, UserID: "*", Err: err})
		return nil
	}
	out := make(map[string]T, len(byUser))
	for uid, body := range byUser {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			*rejected = append(*rejected, Rejection{Target: target, UserID: uid, Err: err})
			continue
		}
		out[uid] = v
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// stripFence removes a surrounding ```lang ... ``` block, if any.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
