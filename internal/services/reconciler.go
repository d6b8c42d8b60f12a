// Package services – Reconciler
//
// This file implements the outbox that replaces swallowed best-effort writes.
// A write that is not on the critical path of a user action (the other
// participant's mirror, an owner preview, orphan cleanup, access grants,
// Discord calls) is first attempted inline; if it fails, it is queued here
// and retried with exponential backoff until it succeeds or runs out of
// attempts. Both sides of a relationship converge once the queue drains.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/observability"
	"github.com/masterworkhq/masterwork/internal/repo"
)

// Outbox kinds.
const (
	KindMirrorUpsert = "mirror.upsert"
	KindMirrorTouch  = "mirror.touch"
	KindMirrorDelete = "mirror.delete"
	KindLinkUpsert   = "link.upsert"
	KindLinkDelete   = "link.delete"
	KindGrantAccess  = "profile.grant_access"
	KindRoleSync     = "discord.role_sync"
	KindNotify       = "discord.notify"
)

// Queue accepts best-effort writes for later retry.
type Queue interface {
	Enqueue(ctx context.Context, kind string, payload any) error
}

// OutboxHandler performs one queued write. Returning an error wrapped with
// backoff.Permanent parks the entry as dead without further retries.
type OutboxHandler func(ctx context.Context, payload json.RawMessage) error

// ReconcilerOptions tunes polling and retry.
type ReconcilerOptions struct {
	PollInterval  time.Duration
	BatchSize     int
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
	// Jitter is the randomization factor applied to retry delays (0 disables).
	Jitter float64
	// SweepEvery is how often Run purges expired idempotency records.
	SweepEvery time.Duration
}

// Reconciler drains the outbox table.
type Reconciler struct {
	DB   *gorm.DB
	Opts ReconcilerOptions

	mu        sync.RWMutex
	handlers  map[string]OutboxHandler
	now       func() time.Time
	lastSweep time.Time
}

// NewReconciler builds a reconciler with the store-backed handlers
// (mirrors, links, access grants) already registered.
func NewReconciler(db *gorm.DB, opts ReconcilerOptions) *Reconciler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = 5 * time.Minute
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Hour
	}
	r := &Reconciler{
		DB:       db,
		Opts:     opts,
		handlers: map[string]OutboxHandler{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	r.Register(KindMirrorUpsert, r.handleMirrorUpsert)
	r.Register(KindMirrorTouch, r.handleMirrorTouch)
	r.Register(KindMirrorDelete, r.handleMirrorDelete)
	r.Register(KindLinkUpsert, r.handleLinkUpsert)
	r.Register(KindLinkDelete, r.handleLinkDelete)
	r.Register(KindGrantAccess, r.handleGrantAccess)
	return r
}

// Register installs (or replaces) the handler for kind.
func (r *Reconciler) Register(kind string, h OutboxHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Reconciler) handler(kind string) (OutboxHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Enqueue stores payload (JSON-encoded) as a pending entry due immediately.
func (r *Reconciler) Enqueue(ctx context.Context, kind string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", kind, err)
	}
	_, err = repo.CreateOutbox(ctx, r.DB, kind, b, r.now())
	return err
}

// RetryDelay returns the wait before attempt number attempts+1.
func (r *Reconciler) RetryDelay(attempts int) time.Duration {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.Opts.RetryBackoff,
		RandomizationFactor: r.Opts.Jitter,
		Multiplier:          2,
		MaxInterval:         r.Opts.RetryMaxDelay,
	}
	b.Reset()
	d := b.NextBackOff()
	for i := 1; i < attempts; i++ {
		d = b.NextBackOff()
	}
	return d
}

// RunOnce processes one batch of due entries and returns how many it handled.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	entries, err := repo.ListDueOutbox(ctx, r.DB, r.now(), r.Opts.BatchSize)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		r.process(ctx, e)
	}
	return len(entries), nil
}

func (r *Reconciler) process(ctx context.Context, e domain.OutboxEntry) {
	lg := log.Ctx(ctx).With().Str("outbox_id", e.ID).Str("kind", e.Kind).Int("attempts", e.Attempts).Logger()

	h, ok := r.handler(e.Kind)
	var err error
	if !ok {
		err = backoff.Permanent(fmt.Errorf("no handler for kind %q", e.Kind))
	} else {
		err = h(ctx, json.RawMessage(e.Payload))
	}

	if err == nil {
		if derr := repo.DeleteOutbox(ctx, r.DB, e.ID); derr != nil {
			lg.Warn().Err(derr).Msg("outbox entry done but not deleted")
		}
		observability.OutboxProcessed.WithLabelValues(e.Kind, "ok").Inc()
		return
	}

	attempts := e.Attempts + 1
	var perm *backoff.PermanentError
	if errors.As(err, &perm) || attempts >= r.Opts.MaxAttempts {
		if uerr := repo.RescheduleOutbox(ctx, r.DB, e.ID, attempts, r.now(), domain.OutboxDead, err.Error()); uerr != nil {
			lg.Error().Err(uerr).Msg("outbox park failed")
		}
		observability.OutboxProcessed.WithLabelValues(e.Kind, "dead").Inc()
		lg.Error().Err(err).Msg("outbox entry gave up")
		return
	}

	next := r.now().Add(r.RetryDelay(attempts))
	if uerr := repo.RescheduleOutbox(ctx, r.DB, e.ID, attempts, next, domain.OutboxPending, err.Error()); uerr != nil {
		lg.Error().Err(uerr).Msg("outbox reschedule failed")
	}
	observability.OutboxProcessed.WithLabelValues(e.Kind, "retry").Inc()
	lg.Warn().Err(err).Time("next_attempt_at", next).Msg("outbox entry failed, will retry")
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// another pass; otherwise it waits PollInterval.
func (r *Reconciler) Run(ctx context.Context) error {
	t := time.NewTicker(r.Opts.PollInterval)
	defer t.Stop()
	for {
		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			log.Ctx(ctx).Error().Err(err).Msg("outbox poll failed")
		}
		r.maybeSweep(ctx)
		if n >= r.Opts.BatchSize {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Sweep deletes expired idempotency records and returns how many went.
func (r *Reconciler) Sweep(ctx context.Context) (int64, error) {
	return repo.PurgeIdempotency(ctx, r.DB, r.now())
}

func (r *Reconciler) maybeSweep(ctx context.Context) {
	now := r.now()
	if now.Sub(r.lastSweep) < r.Opts.SweepEvery {
		return
	}
	r.lastSweep = now
	n, err := r.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Ctx(ctx).Warn().Err(err).Msg("idempotency sweep failed")
		}
		return
	}
	if n > 0 {
		log.Ctx(ctx).Debug().Int64("purged", n).Msg("idempotency records expired")
	}
}

// ---- payloads + built-in handlers ----

// MirrorPayload describes a summary write for one user.
type MirrorPayload struct {
	UserID         string     `json:"user_id"`
	Area           string     `json:"area"`
	RelationshipID string     `json:"relationship_id"`
	CounterpartID  string     `json:"counterpart_id,omitempty"`
	Label          string     `json:"label,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
}

func (p MirrorPayload) summary() *domain.Summary {
	return &domain.Summary{
		UserID:         p.UserID,
		Area:           p.Area,
		RelationshipID: p.RelationshipID,
		CounterpartID:  p.CounterpartID,
		Label:          p.Label,
		LastMessageAt:  p.LastMessageAt,
	}
}

// LinkPayload identifies a link-mirror record.
type LinkPayload struct {
	UserID         string `json:"user_id"`
	ClientID       string `json:"client_id"`
	RelationshipID string `json:"relationship_id"`
	Role           string `json:"role,omitempty"`
	CounterpartID  string `json:"counterpart_id,omitempty"`
}

// GrantAccessPayload adds an access flag to a profile.
type GrantAccessPayload struct {
	UserID string `json:"user_id"`
	Flag   string `json:"flag"`
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, backoff.Permanent(fmt.Errorf("decode payload: %w", err))
	}
	return v, nil
}

func (r *Reconciler) handleMirrorUpsert(ctx context.Context, raw json.RawMessage) error {
	p, err := decode[MirrorPayload](raw)
	if err != nil {
		return err
	}
	return repo.UpsertSummary(ctx, r.DB, p.summary())
}

func (r *Reconciler) handleMirrorTouch(ctx context.Context, raw json.RawMessage) error {
	p, err := decode[MirrorPayload](raw)
	if err != nil {
		return err
	}
	return touchOrCreate(ctx, r.DB, defaultSummaries{}, p)
}

func (r *Reconciler) handleMirrorDelete(ctx context.Context, raw json.RawMessage) error {
	p, err := decode[MirrorPayload](raw)
	if err != nil {
		return err
	}
	return repo.DeleteSummary(ctx, r.DB, p.UserID, p.Area, p.RelationshipID)
}

func (r *Reconciler) handleLinkUpsert(ctx context.Context, raw json.RawMessage) error {
	p, err := decode[LinkPayload](raw)
	if err != nil {
		return err
	}
	return repo.UpsertLink(ctx, r.DB, &domain.Link{
		UserID: p.UserID, ClientID: p.ClientID, RelationshipID: p.RelationshipID,
		Role: p.Role, CounterpartID: p.CounterpartID,
	})
}

func (r *Reconciler) handleLinkDelete(ctx context.Context, raw json.RawMessage) error {
	p, err := decode[LinkPayload](raw)
	if err != nil {
		return err
	}
	return repo.DeleteLink(ctx, r.DB, p.UserID, p.ClientID, p.RelationshipID)
}

func (r *Reconciler) handleGrantAccess(ctx context.Context, raw json.RawMessage) error {
	p, err := decode[GrantAccessPayload](raw)
	if err != nil {
		return err
	}
	return repo.AddAccess(ctx, r.DB, p.UserID, p.Flag)
}

// attempt runs fn inline and, when it fails, counts the failure and queues
// payload under kind. It never returns an error: the caller's operation has
// already succeeded.
func attempt(ctx context.Context, q Queue, kind string, payload any, fn func(context.Context) error) {
	err := fn(ctx)
	if err == nil {
		return
	}
	observability.BestEffortFailures.WithLabelValues(kind).Inc()
	lg := log.Ctx(ctx)
	if q == nil {
		lg.Warn().Err(err).Str("kind", kind).Msg("best-effort write failed, no queue configured")
		return
	}
	if qerr := q.Enqueue(ctx, kind, payload); qerr != nil {
		lg.Error().Err(qerr).AnErr("cause", err).Str("kind", kind).Msg("best-effort write lost")
		return
	}
	lg.Warn().Err(err).Str("kind", kind).Msg("best-effort write queued for retry")
}
