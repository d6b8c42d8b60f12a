package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/masterworkhq/masterwork/internal/domain"
)

func TestAddAccess_CreatesProfileThenDedups(t *testing.T) {
	db := newTestDB(t, &domain.UserProfile{})
	ctx := context.Background()

	if err := AddAccess(ctx, db, "u", "biggote"); err != nil {
		t.Fatalf("AddAccess create: %v", err)
	}
	if err := AddAccess(ctx, db, "u", "biggote"); err != nil {
		t.Fatalf("AddAccess again: %v", err)
	}
	if err := AddAccess(ctx, db, "u", "teach"); err != nil {
		t.Fatalf("AddAccess second flag: %v", err)
	}
	p, err := GetUserProfile(ctx, db, "u")
	if err != nil {
		t.Fatalf("GetUserProfile: %v", err)
	}
	if len(p.Access) != 2 || !p.HasAccess("biggote") || !p.HasAccess("teach") {
		t.Fatalf("unexpected access: %v", p.Access)
	}
}

func TestUpsertUserProfile_ColumnsAndDiscordLookup(t *testing.T) {
	db := newTestDB(t, &domain.UserProfile{})
	ctx := context.Background()

	if err := UpsertUserProfile(ctx, db, &domain.UserProfile{UserID: "u", DisplayName: "Ann"}, "display_name"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := AddAccess(ctx, db, "u", "biggote"); err != nil {
		t.Fatalf("AddAccess: %v", err)
	}
	if err := UpsertUserProfile(ctx, db, &domain.UserProfile{UserID: "u", DiscordID: "42", DiscordUsername: "ann#1"}, "discord_id", "discord_username"); err != nil {
		t.Fatalf("update discord: %v", err)
	}

	p, err := FindUserProfileByDiscordID(ctx, db, "42")
	if err != nil {
		t.Fatalf("FindUserProfileByDiscordID: %v", err)
	}
	if p.DisplayName != "Ann" || !p.HasAccess("biggote") || p.DiscordUsername != "ann#1" {
		t.Fatalf("unlisted columns must be kept: %+v", p)
	}
	if _, err := FindUserProfileByDiscordID(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPushTokens(t *testing.T) {
	db := newTestDB(t, &domain.PushToken{})
	ctx := context.Background()

	if _, err := UpsertPushToken(ctx, db, "u", "tok-1", "web"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := UpsertPushToken(ctx, db, "u", "tok-1", "android"); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if _, err := UpsertPushToken(ctx, db, "u", "tok-2", "web"); err != nil {
		t.Fatalf("second token: %v", err)
	}
	list, err := ListPushTokens(ctx, db, "u")
	if err != nil || len(list) != 2 {
		t.Fatalf("ListPushTokens = (%+v, %v)", list, err)
	}
	for _, pt := range list {
		if pt.Token == "tok-1" && pt.Platform != "android" {
			t.Fatalf("platform not refreshed: %+v", pt)
		}
	}
}
