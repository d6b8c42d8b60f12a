// Package services – RelationshipService
//
// Read and shared-field operations on canonical relationships, plus the
// per-user listing built from mirror summaries.
package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/utils"
)

// maxSharedRunes bounds each shared free-text field.
const maxSharedRunes = 8000

// SharedUpdate is a partial update of the shared mutable fields. Nil
// fields are left unchanged.
type SharedUpdate struct {
	SharedNote       *string `json:"shared_note,omitempty"`
	BehaviorGuidance *string `json:"behavior_guidance,omitempty"`
	Scene            *string `json:"scene,omitempty"`
	AIMode           *bool   `json:"ai_mode,omitempty"`
}

// SummaryView is a summary with its derived unread flag.
type SummaryView struct {
	domain.Summary
	Unread bool `json:"unread"`
}

// RelationshipService exposes relationship reads and shared updates.
type RelationshipService struct {
	DB  *gorm.DB
	now func() time.Time
}

// NewRelationshipService constructs a RelationshipService.
func NewRelationshipService(db *gorm.DB) *RelationshipService {
	return &RelationshipService{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the relationship if userID is a current participant.
func (s *RelationshipService) Get(ctx context.Context, relID, userID string) (*domain.Relationship, error) {
	rel, err := repo.GetRelationship(ctx, s.DB, relID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRelationshipNotFound
	}
	if err != nil {
		return nil, err
	}
	if !rel.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return rel, nil
}

// ListForUser pages through userID's summaries in area, most recent first.
func (s *RelationshipService) ListForUser(ctx context.Context, userID, area string, page, pageSize int) ([]SummaryView, int64, error) {
	tr := otel.Tracer("services/RelationshipService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("area", area),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if !domain.IsArea(area) {
		return nil, 0, ErrUnknownArea
	}
	if pageSize <= 0 {
		pageSize = utils.DefaultPageSize
	}
	total, err := repo.CountSummaries(ctx, s.DB, userID, area)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []SummaryView{}, 0, nil
	}
	list, err := repo.ListSummariesPage(ctx, s.DB, userID, area, utils.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SummaryView, 0, len(list))
	for _, sm := range list {
		out = append(out, SummaryView{Summary: sm, Unread: sm.Unread()})
	}
	return out, total, nil
}

// UpdateShared patches the shared fields. Only participants may write.
func (s *RelationshipService) UpdateShared(ctx context.Context, relID, userID string, in SharedUpdate) (*domain.Relationship, error) {
	tr := otel.Tracer("services/RelationshipService")
	ctx, span := tr.Start(ctx, "UpdateShared",
		trace.WithAttributes(
			attribute.String("relationship.id", relID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := s.Get(ctx, relID, userID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	for col, v := range map[string]*string{
		"shared_note":       in.SharedNote,
		"behavior_guidance": in.BehaviorGuidance,
		"scene":             in.Scene,
	} {
		if v == nil {
			continue
		}
		if utf8.RuneCountInString(*v) > maxSharedRunes {
			return nil, ErrTooLong
		}
		fields[col] = *v
	}
	if in.AIMode != nil {
		fields["ai_mode"] = *in.AIMode
	}
	if err := repo.UpdateRelationshipFields(ctx, s.DB, relID, fields); err != nil {
		return nil, err
	}
	return repo.GetRelationship(ctx, s.DB, relID)
}

// MarkRead sets the caller's read marker to now. A participant whose
// summary was lost gets it recreated.
func (s *RelationshipService) MarkRead(ctx context.Context, relID, userID string) (*SummaryView, error) {
	rel, err := s.Get(ctx, relID, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = repo.MarkSummaryRead(ctx, s.DB, userID, rel.Area, relID, now)
	if errors.Is(err, repo.ErrNotFound) {
		err = repo.UpsertSummary(ctx, s.DB, &domain.Summary{
			UserID:         userID,
			Area:           rel.Area,
			RelationshipID: relID,
			CounterpartID:  rel.Counterpart(userID),
			LastMessageAt:  rel.LastMessageAt,
			LastReadAt:     &now,
		})
	}
	if err != nil {
		return nil, err
	}
	sm, err := repo.GetSummary(ctx, s.DB, userID, rel.Area, relID)
	if err != nil {
		return nil, err
	}
	return &SummaryView{Summary: *sm, Unread: sm.Unread()}, nil
}
