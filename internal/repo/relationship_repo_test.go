package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/masterworkhq/masterwork/internal/domain"
)

func TestUpsertRelationship_Idempotent(t *testing.T) {
	db := newTestDB(t, &domain.Relationship{})
	ctx := context.Background()

	first, err := UpsertRelationship(ctx, db, &domain.Relationship{ID: "cc_1", Area: domain.AreaCC, OwnerID: "o", Participants: []string{"o", "u"}})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := UpsertRelationship(ctx, db, &domain.Relationship{ID: "cc_1", Area: domain.AreaCC, OwnerID: "o", ClientID: "c1", Participants: []string{"u", "o"}})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var n int64
	db.Model(&domain.Relationship{}).Count(&n)
	if n != 1 {
		t.Fatalf("want one row, got %d", n)
	}
	if len(second.Participants) != 2 || second.Participants[0] != "o" || second.Participants[1] != "u" {
		t.Fatalf("participants changed: %v", second.Participants)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at moved: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.ClientID != "c1" {
		t.Fatalf("empty client id should be filled, got %q", second.ClientID)
	}
}

func TestBumpLastMessageAt_Monotonic(t *testing.T) {
	db := newTestDB(t, &domain.Relationship{})
	ctx := context.Background()
	if _, err := UpsertRelationship(ctx, db, &domain.Relationship{ID: "r", Area: domain.AreaCC, OwnerID: "o", Participants: []string{"o", "u"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	t1 := time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC)
	t0 := t1.Add(-time.Second)

	if changed, err := BumpLastMessageAt(ctx, db, "r", t1); err != nil || !changed {
		t.Fatalf("bump t1 = (%v, %v)", changed, err)
	}
	if changed, err := BumpLastMessageAt(ctx, db, "r", t0); err != nil || changed {
		t.Fatalf("bump backwards = (%v, %v)", changed, err)
	}
	got, _ := GetRelationship(ctx, db, "r")
	if got.LastMessageAt == nil || !got.LastMessageAt.Equal(t1) {
		t.Fatalf("last message at = %v; want %v", got.LastMessageAt, t1)
	}
	if _, err := BumpLastMessageAt(ctx, db, "missing", t1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing relationship: want ErrNotFound, got %v", err)
	}
}

func TestSetParticipants_AndFields(t *testing.T) {
	db := newTestDB(t, &domain.Relationship{})
	ctx := context.Background()
	if _, err := UpsertRelationship(ctx, db, &domain.Relationship{ID: "r", Area: domain.AreaCC, OwnerID: "o", Participants: []string{"o", "u"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := SetParticipants(ctx, db, "r", []string{"o"}); err != nil {
		t.Fatalf("SetParticipants: %v", err)
	}
	if err := UpdateRelationshipFields(ctx, db, "r", map[string]any{"scene": "forest", "ai_mode": true}); err != nil {
		t.Fatalf("UpdateRelationshipFields: %v", err)
	}
	got, _ := GetRelationship(ctx, db, "r")
	if len(got.Participants) != 1 || got.Participants[0] != "o" || got.Scene != "forest" || !got.AIMode {
		t.Fatalf("unexpected row: %+v", got)
	}
	if err := SetParticipants(ctx, db, "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	list, err := ListRelationships(ctx, db, []string{"r", "missing"})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListRelationships = (%v, %v)", list, err)
	}
}
