package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

// SummaryRepo defines the mirror writes used by the linking and messaging
// services. The default implementation delegates to the repo package;
// tests substitute failing variants to exercise the best-effort paths.
type SummaryRepo interface {
	// UpsertSummary creates or refreshes a user's summary.
	UpsertSummary(ctx context.Context, db *gorm.DB, s *domain.Summary) error

	// TouchSummary advances lastMessageAt; ErrNotFound when missing.
	TouchSummary(ctx context.Context, db *gorm.DB, userID, area, relID string, at time.Time) error

	// DeleteSummary removes a summary; missing is not an error.
	DeleteSummary(ctx context.Context, db *gorm.DB, userID, area, relID string) error

	// UpsertLink writes a link-mirror record.
	UpsertLink(ctx context.Context, db *gorm.DB, l *domain.Link) error

	// DeleteLink removes a link-mirror record; missing is not an error.
	DeleteLink(ctx context.Context, db *gorm.DB, userID, clientID, relID string) error
}

type defaultSummaries struct{}

func (defaultSummaries) UpsertSummary(ctx context.Context, db *gorm.DB, s *domain.Summary) error {
	return repo.UpsertSummary(ctx, db, s)
}

func (defaultSummaries) TouchSummary(ctx context.Context, db *gorm.DB, userID, area, relID string, at time.Time) error {
	return repo.TouchSummary(ctx, db, userID, area, relID, at)
}

func (defaultSummaries) DeleteSummary(ctx context.Context, db *gorm.DB, userID, area, relID string) error {
	return repo.DeleteSummary(ctx, db, userID, area, relID)
}

func (defaultSummaries) UpsertLink(ctx context.Context, db *gorm.DB, l *domain.Link) error {
	return repo.UpsertLink(ctx, db, l)
}

func (defaultSummaries) DeleteLink(ctx context.Context, db *gorm.DB, userID, clientID, relID string) error {
	return repo.DeleteLink(ctx, db, userID, clientID, relID)
}

// DefaultSummaries returns the repo-backed SummaryRepo.
func DefaultSummaries() SummaryRepo { return defaultSummaries{} }

// touchOrCreate advances a participant's mirror, creating it when it was
// never written (a lost owner preview heals on the next message).
func touchOrCreate(ctx context.Context, db *gorm.DB, sums SummaryRepo, p MirrorPayload) error {
	at := time.Now().UTC()
	if p.LastMessageAt != nil {
		at = *p.LastMessageAt
	}
	err := sums.TouchSummary(ctx, db, p.UserID, p.Area, p.RelationshipID, at)
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	s := p.summary()
	s.LastMessageAt = &at
	return sums.UpsertSummary(ctx, db, s)
}
