package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

func newTestReconciler(t *testing.T) *Reconciler {
	t.Helper()
	r := NewReconciler(newSvcDB(t), ReconcilerOptions{MaxAttempts: 3, RetryBackoff: time.Second, RetryMaxDelay: 10 * time.Second})
	r.now = fixedClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	return r
}

func outboxEntries(t *testing.T, r *Reconciler) []domain.OutboxEntry {
	t.Helper()
	var out []domain.OutboxEntry
	if err := r.DB.Order("created_at").Find(&out).Error; err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	return out
}

func TestReconciler_MirrorUpsertConverges(t *testing.T) {
	r := newTestReconciler(t)
	ctx := context.Background()

	p := MirrorPayload{UserID: "owner", Area: domain.AreaCommission, RelationshipID: "rel-1", CounterpartID: "client", Label: "L"}
	if err := r.Enqueue(ctx, KindMirrorUpsert, p); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	n, err := r.RunOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	s, err := repo.GetSummary(ctx, r.DB, "owner", domain.AreaCommission, "rel-1")
	if err != nil || s.CounterpartID != "client" {
		t.Fatalf("summary = %#v, %v", s, err)
	}
	if left := outboxEntries(t, r); len(left) != 0 {
		t.Fatalf("processed entry must be deleted, got %d", len(left))
	}
}

func TestReconciler_FailureReschedulesThenDies(t *testing.T) {
	r := newTestReconciler(t)
	ctx := context.Background()
	calls := 0
	r.Register("test.flaky", func(context.Context, json.RawMessage) error {
		calls++
		return errInjected
	})
	if err := r.Enqueue(ctx, "test.flaky", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	base := r.now()
	if _, err := r.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	e := outboxEntries(t, r)[0]
	if e.Status != domain.OutboxPending || e.Attempts != 1 || !e.NextAttemptAt.After(base) {
		t.Fatalf("after first failure: %#v", e)
	}
	if e.LastError == "" {
		t.Fatalf("last error must be recorded")
	}

	// Not due yet.
	if n, _ := r.RunOnce(ctx); n != 0 {
		t.Fatalf("entry ran before it was due")
	}

	for i := 0; i < 2; i++ {
		r.now = fixedClock(r.now().Add(time.Minute))
		if _, err := r.RunOnce(ctx); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}
	e = outboxEntries(t, r)[0]
	if e.Status != domain.OutboxDead || e.Attempts != 3 {
		t.Fatalf("entry should be dead after max attempts: %#v", e)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}

	r.now = fixedClock(r.now().Add(time.Hour))
	if n, _ := r.RunOnce(ctx); n != 0 {
		t.Fatalf("dead entries must not run")
	}
}

func TestReconciler_PermanentAndUnknownKind(t *testing.T) {
	r := newTestReconciler(t)
	ctx := context.Background()
	r.Register("test.permanent", func(context.Context, json.RawMessage) error {
		return backoff.Permanent(errors.New("bad payload"))
	})
	_ = r.Enqueue(ctx, "test.permanent", 1)
	_ = r.Enqueue(ctx, "test.unknown", 1)

	if n, err := r.RunOnce(ctx); err != nil || n != 2 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	for _, e := range outboxEntries(t, r) {
		if e.Status != domain.OutboxDead || e.Attempts != 1 {
			t.Fatalf("%s should be dead after one attempt: %#v", e.Kind, e)
		}
	}
}

func TestReconciler_MalformedPayloadIsDead(t *testing.T) {
	r := newTestReconciler(t)
	ctx := context.Background()
	if _, err := repo.CreateOutbox(ctx, r.DB, KindMirrorUpsert, []byte(`"not an object"`), r.now()); err != nil {
		t.Fatalf("CreateOutbox: %v", err)
	}
	if _, err := r.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n, _ := repo.CountOutbox(ctx, r.DB, domain.OutboxDead); n != 1 {
		t.Fatalf("dead = %d", n)
	}
}

func TestReconciler_RetryDelayGrowsAndCaps(t *testing.T) {
	r := newTestReconciler(t)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := r.RetryDelay(i + 1); got < w || got > w+time.Millisecond {
			t.Fatalf("RetryDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestReconciler_LinkAndGrantHandlers(t *testing.T) {
	r := newTestReconciler(t)
	ctx := context.Background()

	_ = r.Enqueue(ctx, KindLinkUpsert, LinkPayload{UserID: "o", ClientID: "c", RelationshipID: "rel", Role: domain.LinkRoleOwner, CounterpartID: "u"})
	_ = r.Enqueue(ctx, KindGrantAccess, GrantAccessPayload{UserID: "u", Flag: AccessBigGote})
	if _, err := r.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	links, _ := repo.ListLinks(ctx, r.DB, "o")
	if len(links) != 1 || links[0].Role != domain.LinkRoleOwner {
		t.Fatalf("links = %#v", links)
	}
	p, err := repo.GetUserProfile(ctx, r.DB, "u")
	if err != nil || !p.HasAccess(AccessBigGote) {
		t.Fatalf("profile = %#v, %v", p, err)
	}

	_ = r.Enqueue(ctx, KindLinkDelete, LinkPayload{UserID: "o", ClientID: "c", RelationshipID: "rel"})
	if _, err := r.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if links, _ := repo.ListLinks(ctx, r.DB, "o"); len(links) != 0 {
		t.Fatalf("link not deleted: %#v", links)
	}
}

func TestAttempt_QueuesOnlyOnFailure(t *testing.T) {
	q := &recordingQueue{}
	ctx := context.Background()

	attempt(ctx, q, KindNotify, NotifyPayload{Content: "ok"}, func(context.Context) error { return nil })
	attempt(ctx, q, KindNotify, NotifyPayload{Content: "fail"}, func(context.Context) error { return errInjected })

	if len(q.items) != 1 || q.items[0].Payload.(NotifyPayload).Content != "fail" {
		t.Fatalf("queued = %#v", q.items)
	}

	// A nil queue or a failing queue never panics or propagates.
	attempt(ctx, nil, KindNotify, nil, func(context.Context) error { return errInjected })
	attempt(ctx, &recordingQueue{err: errInjected}, KindNotify, nil, func(context.Context) error { return errInjected })
}

func TestReconciler_SweepPurgesExpiredIdempotency(t *testing.T) {
	r := NewReconciler(newSvcDB(t), ReconcilerOptions{SweepEvery: time.Hour})
	ctx := context.Background()

	if _, err := repo.CreateIdempotency(ctx, r.DB, "u", "rel", "old", "m1", 201, -time.Minute); err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if _, err := repo.CreateIdempotency(ctx, r.DB, "u", "rel", "fresh", "m2", 201, time.Hour); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	now := time.Now().UTC()
	r.now = fixedClock(now)
	r.maybeSweep(ctx)

	var left []domain.Idempotency
	if err := r.DB.Find(&left).Error; err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 1 || left[0].Key != "fresh" {
		t.Fatalf("left = %#v", left)
	}

	// A second call inside the interval is a no-op.
	if _, err := repo.CreateIdempotency(ctx, r.DB, "u", "rel", "old2", "m3", 201, -time.Minute); err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	r.now = fixedClock(now.Add(time.Minute))
	r.maybeSweep(ctx)
	if n, _ := r.Sweep(ctx); n != 1 {
		t.Fatalf("explicit Sweep purged %d, want 1", n)
	}
}
