package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// stepClock returns start, start+step, start+2*step, ... on each call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start.Add(-step)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(step)
		return cur
	}
}

type queued struct {
	Kind    string
	Payload any
}

// recordingQueue captures enqueued best-effort writes.
type recordingQueue struct {
	mu    sync.Mutex
	items []queued
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, kind string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, queued{Kind: kind, Payload: payload})
	return nil
}

func (q *recordingQueue) kinds() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.Kind)
	}
	return out
}

var errInjected = errors.New("injected failure")

// flakySummaries fails the writes whose target user is listed.
type flakySummaries struct {
	defaultSummaries
	failUpsertFor map[string]bool
	failTouchFor  map[string]bool
	failDelete    bool
	failLinkFor   map[string]bool
}

func (f flakySummaries) UpsertSummary(ctx context.Context, db *gorm.DB, s *domain.Summary) error {
	if f.failUpsertFor[s.UserID] {
		return errInjected
	}
	return f.defaultSummaries.UpsertSummary(ctx, db, s)
}

func (f flakySummaries) TouchSummary(ctx context.Context, db *gorm.DB, userID, area, relID string, at time.Time) error {
	if f.failTouchFor[userID] {
		return errInjected
	}
	return f.defaultSummaries.TouchSummary(ctx, db, userID, area, relID, at)
}

func (f flakySummaries) DeleteSummary(ctx context.Context, db *gorm.DB, userID, area, relID string) error {
	if f.failDelete {
		return errInjected
	}
	return f.defaultSummaries.DeleteSummary(ctx, db, userID, area, relID)
}

func (f flakySummaries) UpsertLink(ctx context.Context, db *gorm.DB, l *domain.Link) error {
	if f.failLinkFor[l.UserID] {
		return errInjected
	}
	return f.defaultSummaries.UpsertLink(ctx, db, l)
}

func seedRelationship(t *testing.T, db *gorm.DB, id, area string, participants ...string) *domain.Relationship {
	t.Helper()
	owner := ""
	if len(participants) > 0 {
		owner = participants[0]
	}
	rel, err := repo.UpsertRelationship(context.Background(), db, &domain.Relationship{
		ID:           id,
		Area:         area,
		OwnerID:      owner,
		Participants: datatypes.JSONSlice[string](participants),
	})
	if err != nil {
		t.Fatalf("seed relationship: %v", err)
	}
	return rel
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
