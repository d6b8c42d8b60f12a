package services

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakeRoles struct {
	calls [][]string
	err   error
}

func (f *fakeRoles) SyncRoles(_ context.Context, discordID string, roles []string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, append([]string{discordID}, roles...))
	return nil
}

func TestProfileService_GetUpdateAndRoleSync(t *testing.T) {
	roles := &fakeRoles{}
	q := &recordingQueue{}
	s := NewProfileService(newSvcDB(t), q, roles)
	ctx := context.Background()

	p, err := s.Get(ctx, "u1")
	if err != nil || p.UserID != "u1" || len(p.Roles) != 0 {
		t.Fatalf("empty profile = %#v, %v", p, err)
	}

	p, err = s.Update(ctx, "u1", ProfileUpdate{DisplayName: strp(" Ada "), Roles: []string{"Artist", "artist", "Coach"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.DisplayName != "Ada" || !reflect.DeepEqual([]string(p.Roles), []string{"Artist", "Coach"}) {
		t.Fatalf("profile = %#v", p)
	}
	if len(roles.calls) != 0 {
		t.Fatalf("no discord link yet, sync must not run: %v", roles.calls)
	}

	if _, err := s.LinkDiscord(ctx, "u1", "d-1", "ada#1"); err != nil {
		t.Fatalf("LinkDiscord: %v", err)
	}
	if len(roles.calls) != 1 || !reflect.DeepEqual(roles.calls[0], []string{"d-1", "Artist", "Coach"}) {
		t.Fatalf("sync calls = %v", roles.calls)
	}

	roles.err = errInjected
	if _, err := s.Update(ctx, "u1", ProfileUpdate{Roles: []string{"Artist"}}); err != nil {
		t.Fatalf("sync failure must not fail the update: %v", err)
	}
	if k := q.kinds(); len(k) != 1 || k[0] != KindRoleSync {
		t.Fatalf("queued = %v", k)
	}

	got, _ := s.Get(ctx, "u1")
	if got.DisplayName != "Ada" || got.DiscordID != "d-1" {
		t.Fatalf("partial update lost fields: %#v", got)
	}
}

func TestProfileService_LinkDiscordConflicts(t *testing.T) {
	s := NewProfileService(newSvcDB(t), &recordingQueue{}, nil)
	ctx := context.Background()

	if _, err := s.LinkDiscord(ctx, "u1", "d-1", "one"); err != nil {
		t.Fatalf("LinkDiscord: %v", err)
	}
	if _, err := s.LinkDiscord(ctx, "u2", "d-1", "two"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := s.LinkDiscord(ctx, "u1", " ", "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	p, err := s.FindByDiscordID(ctx, "d-1")
	if err != nil || p.UserID != "u1" {
		t.Fatalf("FindByDiscordID = %#v, %v", p, err)
	}
}

func TestProfileService_AccessAndPushTokens(t *testing.T) {
	s := NewProfileService(newSvcDB(t), &recordingQueue{}, nil)
	ctx := context.Background()

	if ok, err := s.HasAccess(ctx, "u", AccessBigGote); err != nil || ok {
		t.Fatalf("HasAccess before grant = %v, %v", ok, err)
	}
	if err := s.GrantAccess(ctx, "u", AccessBigGote); err != nil {
		t.Fatalf("GrantAccess: %v", err)
	}
	if err := s.GrantAccess(ctx, "u", AccessBigGote); err != nil {
		t.Fatalf("second GrantAccess: %v", err)
	}
	if ok, _ := s.HasAccess(ctx, "u", AccessBigGote); !ok {
		t.Fatalf("access not granted")
	}

	pt, err := s.RegisterPushToken(ctx, "u", " tok ", "")
	if err != nil || pt.Token != "tok" || pt.Platform != "web" {
		t.Fatalf("RegisterPushToken = %#v, %v", pt, err)
	}
	if _, err := s.RegisterPushToken(ctx, "u", strings.Repeat("x", 513), "ios"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestOutboxHandlers(t *testing.T) {
	roles := &fakeRoles{}
	if err := RoleSyncHandler(roles)(context.Background(), json.RawMessage(`{"discord_id":"d","roles":["A"]}`)); err != nil {
		t.Fatalf("RoleSyncHandler: %v", err)
	}
	if !reflect.DeepEqual(roles.calls, [][]string{{"d", "A"}}) {
		t.Fatalf("calls = %v", roles.calls)
	}

	n := &fakeNotifier{}
	if err := NotifyHandler(n)(context.Background(), json.RawMessage(`{"content":"hi"}`)); err != nil {
		t.Fatalf("NotifyHandler: %v", err)
	}
	if len(n.sent) != 1 || n.sent[0] != "hi" {
		t.Fatalf("sent = %v", n.sent)
	}
	if err := NotifyHandler(n)(context.Background(), json.RawMessage(`[`)); err == nil {
		t.Fatalf("malformed payload must fail")
	}
}
