package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

func TestRelationshipService_GetAndUpdateShared(t *testing.T) {
	db := newSvcDB(t)
	s := NewRelationshipService(db)
	ctx := context.Background()
	seedRelationship(t, db, "rel", domain.AreaBigGote, "gm", "hero")

	if _, err := s.Get(ctx, "nope", "gm"); !errors.Is(err, ErrRelationshipNotFound) {
		t.Fatalf("want ErrRelationshipNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, "rel", "stranger"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("want ErrNotParticipant, got %v", err)
	}

	on := true
	rel, err := s.UpdateShared(ctx, "rel", "hero", SharedUpdate{Scene: strp("A ruined keep"), AIMode: &on})
	if err != nil {
		t.Fatalf("UpdateShared: %v", err)
	}
	if rel.Scene != "A ruined keep" || !rel.AIMode || rel.SharedNote != "" {
		t.Fatalf("rel = %#v", rel)
	}

	long := strings.Repeat("x", maxSharedRunes+1)
	if _, err := s.UpdateShared(ctx, "rel", "gm", SharedUpdate{SharedNote: &long}); !errors.Is(err, ErrTooLong) {
		t.Fatalf("want ErrTooLong, got %v", err)
	}
	if _, err := s.UpdateShared(ctx, "rel", "stranger", SharedUpdate{Scene: strp("x")}); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("want ErrNotParticipant, got %v", err)
	}
}

func TestRelationshipService_ListForUserAndMarkRead(t *testing.T) {
	db := newSvcDB(t)
	s := NewRelationshipService(db)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	msgs := NewMessageService(db, &recordingQueue{}, nil, 0)
	msgs.now = stepClock(base, time.Minute)
	seedRelationship(t, db, "r1", domain.AreaCC, "coach", "u")
	seedRelationship(t, db, "r2", domain.AreaCC, "coach", "v")
	if _, err := msgs.Send(ctx, "r1", "u", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := msgs.Send(ctx, "r2", "v", "second"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.ListForUser(ctx, "coach", "teach", 1, 10); !errors.Is(err, ErrUnknownArea) {
		t.Fatalf("want ErrUnknownArea, got %v", err)
	}
	list, total, err := s.ListForUser(ctx, "coach", domain.AreaCC, 1, 10)
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("list = %#v, %d, %v", list, total, err)
	}
	if list[0].RelationshipID != "r2" || !list[0].Unread {
		t.Fatalf("most recent first and unread: %#v", list[0])
	}

	s.now = fixedClock(base.Add(time.Hour))
	v, err := s.MarkRead(ctx, "r2", "coach")
	if err != nil || v.Unread {
		t.Fatalf("MarkRead = %#v, %v", v, err)
	}

	// A lost summary is recreated by MarkRead.
	if err := repo.DeleteSummary(ctx, db, "u", domain.AreaCC, "r1"); err != nil {
		t.Fatal(err)
	}
	v, err = s.MarkRead(ctx, "r1", "u")
	if err != nil || v.CounterpartID != "coach" || v.Unread {
		t.Fatalf("recreated summary = %#v, %v", v, err)
	}

	empty, total, err := s.ListForUser(ctx, "nobody", domain.AreaCC, 1, 10)
	if err != nil || total != 0 || len(empty) != 0 {
		t.Fatalf("empty list = %#v, %d, %v", empty, total, err)
	}
}
