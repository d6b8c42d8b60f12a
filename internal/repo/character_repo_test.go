package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/masterworkhq/masterwork/internal/domain"
)

func intp(n int) *int { return &n }

func TestProfile_CreateOnceAndPatch(t *testing.T) {
	db := newTestDB(t, &domain.CharacterProfile{})
	ctx := context.Background()

	p := &domain.CharacterProfile{RelationshipID: "bg", UserID: "u", Name: "Ayla", Build: domain.BuildSlim}
	if err := CreateProfile(ctx, db, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := CreateProfile(ctx, db, &domain.CharacterProfile{RelationshipID: "bg", UserID: "u", Name: "Other"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second create: want ErrDuplicate, got %v", err)
	}
	if err := PatchProfile(ctx, db, "bg", "u", map[string]any{"weaknesses": "cold"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	got, err := GetProfile(ctx, db, "bg", "u")
	if err != nil || got.Name != "Ayla" || got.Weaknesses != "cold" {
		t.Fatalf("GetProfile = (%+v, %v)", got, err)
	}
	if err := PatchProfile(ctx, db, "bg", "nobody", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("patch missing: want ErrNotFound, got %v", err)
	}
}

func TestState_GetOrInitAndSave(t *testing.T) {
	db := newTestDB(t, &domain.CharacterState{})
	ctx := context.Background()

	st, err := GetOrInitState(ctx, db, "bg", "u")
	if err != nil || st.Hunger != "sated" {
		t.Fatalf("GetOrInitState = (%+v, %v)", st, err)
	}
	if _, err := GetState(ctx, db, "bg", "u"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("init state must not be persisted, got %v", err)
	}

	st.Hunger = "hungry"
	st.Status = append(st.Status, "Stunned")
	if err := SaveState(ctx, db, st); err != nil {
		t.Fatalf("save: %v", err)
	}
	st.Oxygen = "winded"
	if err := SaveState(ctx, db, st); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, err := GetState(ctx, db, "bg", "u")
	if err != nil || got.Hunger != "hungry" || got.Oxygen != "winded" || len(got.Status) != 1 {
		t.Fatalf("GetState = (%+v, %v)", got, err)
	}
}

func TestReplaceInventory(t *testing.T) {
	db := newTestDB(t, &domain.InventoryItem{})
	ctx := context.Background()

	items := []domain.InventoryItem{{Name: "Rope", Quantity: intp(2)}, {Name: "Lantern"}}
	if err := ReplaceInventory(ctx, db, "bg", "u", items); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := ListInventory(ctx, db, "bg", "u")
	if err != nil || len(got) != 2 || got[0].Name != "Rope" || got[1].Position != 1 || got[0].ID == "" {
		t.Fatalf("ListInventory = (%+v, %v)", got, err)
	}

	if err := ReplaceInventory(ctx, db, "bg", "u", got[1:]); err != nil {
		t.Fatalf("replace shrink: %v", err)
	}
	got2, _ := ListInventory(ctx, db, "bg", "u")
	if len(got2) != 1 || got2[0].Name != "Lantern" || got2[0].ID != got[1].ID || got2[0].Position != 0 {
		t.Fatalf("after shrink: %+v", got2)
	}

	if err := ReplaceInventory(ctx, db, "bg", "u", nil); err != nil {
		t.Fatalf("replace empty: %v", err)
	}
	got3, _ := ListInventory(ctx, db, "bg", "u")
	if len(got3) != 0 {
		t.Fatalf("expected empty inventory, got %+v", got3)
	}
}
