package services

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"gorm.io/datatypes"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// foldKey is the matching key for names and list entries: trimmed and
// case-folded.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NormalizeList trims entries, drops blanks and drops later entries that
// match an earlier one case-insensitively. First-occurrence casing and
// order are kept.
func NormalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := foldKey(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// MergeList applies set (when non-nil), then add, then remove to cur.
func MergeList(cur, set, add, remove []string) []string {
	base := cur
	if set != nil {
		base = set
	}
	merged := make([]string, 0, len(base)+len(add))
	merged = append(merged, base...)
	merged = append(merged, add...)
	out := NormalizeList(merged)
	if len(remove) == 0 {
		return out
	}
	drop := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		drop[foldKey(r)] = struct{}{}
	}
	kept := out[:0]
	for _, v := range out {
		if _, ok := drop[foldKey(v)]; !ok {
			kept = append(kept, v)
		}
	}
	return kept
}

// PatchInventory returns items with p applied: set, then add, then remove.
// The input slice is not modified. An item with no quantity counts as one
// when adding to or removing from it. Operations with a blank name or a
// negative quantity are skipped.
func PatchInventory(items []domain.InventoryItem, p domain.InventoryPatch) []domain.InventoryItem {
	out := make([]domain.InventoryItem, len(items))
	copy(out, items)

	find := func(name string) int {
		k := foldKey(name)
		for i := range out {
			if foldKey(out[i].Name) == k {
				return i
			}
		}
		return -1
	}
	valid := func(op domain.ItemOp) bool {
		return strings.TrimSpace(op.Name) != "" && (op.Qty == nil || *op.Qty >= 0)
	}

	for _, op := range p.Set {
		if !valid(op) {
			continue
		}
		if i := find(op.Name); i >= 0 {
			out[i].Quantity = cloneInt(op.Qty)
			if op.Notes != nil {
				out[i].Notes = *op.Notes
			}
			continue
		}
		out = append(out, newItem(op, cloneInt(op.Qty)))
	}

	for _, op := range p.Add {
		if !valid(op) {
			continue
		}
		delta := 1
		if op.Qty != nil {
			delta = *op.Qty
		}
		if i := find(op.Name); i >= 0 {
			q := qtyOrOne(out[i].Quantity) + delta
			out[i].Quantity = &q
			if op.Notes != nil {
				out[i].Notes = *op.Notes
			}
			continue
		}
		out = append(out, newItem(op, &delta))
	}

	for _, op := range p.Remove {
		if !valid(op) {
			continue
		}
		i := find(op.Name)
		if i < 0 {
			continue
		}
		if op.Qty != nil {
			if q := qtyOrOne(out[i].Quantity) - *op.Qty; q > 0 {
				out[i].Quantity = &q
				continue
			}
		}
		out = append(out[:i], out[i+1:]...)
	}
	return out
}

func newItem(op domain.ItemOp, qty *int) domain.InventoryItem {
	it := domain.InventoryItem{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(op.Name),
		Quantity: qty,
	}
	if op.Notes != nil {
		it.Notes = *op.Notes
	}
	return it
}

func qtyOrOne(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ProfileFields converts a whitelisted profile patch into column updates.
// Invalid values (blank name, unknown build) are left out and named in
// skipped; the remaining fields still apply.
func ProfileFields(p domain.ProfilePatch) (fields map[string]any, skipped []string) {
	fields = map[string]any{}
	if p.Name != nil {
		if n := strings.TrimSpace(*p.Name); n != "" {
			fields["name"] = n
		} else {
			skipped = append(skipped, "name")
		}
	}
	if p.Height != nil {
		fields["height"] = strings.TrimSpace(*p.Height)
	}
	if p.Weight != nil {
		fields["weight"] = strings.TrimSpace(*p.Weight)
	}
	if p.Build != nil {
		b := domain.Build(strings.ToLower(strings.TrimSpace(string(*p.Build))))
		if domain.IsBuild(b) {
			fields["build"] = b
		} else {
			skipped = append(skipped, "build")
		}
	}
	if p.Weaknesses != nil {
		fields["weaknesses"] = *p.Weaknesses
	}
	return fields, skipped
}

// ApplyStatePatch mutates st with p. Unknown gauge labels are left out and
// named in skipped.
func ApplyStatePatch(st *domain.CharacterState, p domain.StatePatch) (skipped []string) {
	for _, g := range []struct {
		name  string
		level *string
		dst   *string
	}{
		{domain.GaugeHunger, p.Hunger, &st.Hunger},
		{domain.GaugeThirst, p.Thirst, &st.Thirst},
		{domain.GaugeOxygen, p.Oxygen, &st.Oxygen},
	} {
		if g.level == nil {
			continue
		}
		lv := strings.ToLower(strings.TrimSpace(*g.level))
		if domain.GaugeOrdinal(g.name, lv) < 0 {
			skipped = append(skipped, g.name)
			continue
		}
		*g.dst = lv
	}

	st.Status = datatypes.JSONSlice[string](MergeList(st.Status, p.SetStatusTags, p.AddStatusTags, p.RemoveStatusTags))
	st.Clothing = datatypes.JSONSlice[string](MergeList(st.Clothing, p.SetClothing, p.AddClothing, p.RemoveClothing))
	st.Accessories = datatypes.JSONSlice[string](MergeList(st.Accessories, p.SetAccessories, p.AddAccessories, p.RemoveAccessories))
	return skipped
}
