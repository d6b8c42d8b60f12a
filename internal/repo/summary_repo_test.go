package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/masterworkhq/masterwork/internal/domain"
)

func TestUpsertSummary_PreservesReadAndMonotonicMessage(t *testing.T) {
	db := newTestDB(t, &domain.Summary{})
	ctx := context.Background()
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)

	if err := UpsertSummary(ctx, db, &domain.Summary{UserID: "u", Area: domain.AreaCC, RelationshipID: "r", CounterpartID: "o", LastMessageAt: &t1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := MarkSummaryRead(ctx, db, "u", domain.AreaCC, "r", t1); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := UpsertSummary(ctx, db, &domain.Summary{UserID: "u", Area: domain.AreaCC, RelationshipID: "r", CounterpartID: "o", Label: "Owner", LastMessageAt: &t0}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := GetSummary(ctx, db, "u", domain.AreaCC, "r")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if got.Label != "Owner" {
		t.Fatalf("label not refreshed: %q", got.Label)
	}
	if got.LastMessageAt == nil || !got.LastMessageAt.Equal(t1) {
		t.Fatalf("last message moved backwards: %v", got.LastMessageAt)
	}
	if got.LastReadAt == nil || !got.LastReadAt.Equal(t1) {
		t.Fatalf("last read lost: %v", got.LastReadAt)
	}
	if got.Unread() {
		t.Fatalf("summary should be read")
	}
}

func TestTouchSummary(t *testing.T) {
	db := newTestDB(t, &domain.Summary{})
	ctx := context.Background()
	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	if err := TouchSummary(ctx, db, "u", domain.AreaCC, "r", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: want ErrNotFound, got %v", err)
	}
	if err := UpsertSummary(ctx, db, &domain.Summary{UserID: "u", Area: domain.AreaCC, RelationshipID: "r"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := TouchSummary(ctx, db, "u", domain.AreaCC, "r", at); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := TouchSummary(ctx, db, "u", domain.AreaCC, "r", at.Add(-time.Minute)); err != nil {
		t.Fatalf("touch backwards: %v", err)
	}
	got, _ := GetSummary(ctx, db, "u", domain.AreaCC, "r")
	if got.LastMessageAt == nil || !got.LastMessageAt.Equal(at) || !got.Unread() {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestListAndDeleteSummaries(t *testing.T) {
	db := newTestDB(t, &domain.Summary{})
	ctx := context.Background()
	t1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	_ = UpsertSummary(ctx, db, &domain.Summary{UserID: "u", Area: domain.AreaCC, RelationshipID: "a", LastMessageAt: &t1})
	_ = UpsertSummary(ctx, db, &domain.Summary{UserID: "u", Area: domain.AreaCC, RelationshipID: "b", LastMessageAt: &t2})
	_ = UpsertSummary(ctx, db, &domain.Summary{UserID: "u", Area: domain.AreaBigGote, RelationshipID: "c"})

	n, err := CountSummaries(ctx, db, "u", domain.AreaCC)
	if err != nil || n != 2 {
		t.Fatalf("CountSummaries = (%d, %v)", n, err)
	}
	page, err := ListSummariesPage(ctx, db, "u", domain.AreaCC, 0, 10)
	if err != nil || len(page) != 2 || page[0].RelationshipID != "b" {
		t.Fatalf("ListSummariesPage = (%+v, %v)", page, err)
	}

	if err := DeleteSummary(ctx, db, "u", domain.AreaCC, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteSummary(ctx, db, "u", domain.AreaCC, "a"); err != nil {
		t.Fatalf("deleting a missing summary must not fail: %v", err)
	}
	if err := MarkSummaryRead(ctx, db, "u", domain.AreaCC, "a", t2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mark read missing: want ErrNotFound, got %v", err)
	}
}

func TestLinks_UpsertListDelete(t *testing.T) {
	db := newTestDB(t, &domain.Link{})
	ctx := context.Background()

	if err := UpsertLink(ctx, db, &domain.Link{UserID: "o", ClientID: "c", RelationshipID: "r", Role: domain.LinkRoleOwner, CounterpartID: "u"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := UpsertLink(ctx, db, &domain.Link{UserID: "o", ClientID: "c", RelationshipID: "r", Role: domain.LinkRoleOwner, CounterpartID: "u2"}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	links, err := ListLinks(ctx, db, "o")
	if err != nil || len(links) != 1 || links[0].CounterpartID != "u2" {
		t.Fatalf("ListLinks = (%+v, %v)", links, err)
	}
	if err := DeleteLink(ctx, db, "o", "c", "r"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteLink(ctx, db, "o", "c", "r"); err != nil {
		t.Fatalf("deleting a missing link must not fail: %v", err)
	}
}
