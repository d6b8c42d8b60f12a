package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/utils"
)

// StartCommissionInput is a client's request to open a commission.
type StartCommissionInput struct {
	ArtistID string `json:"artist_id" validate:"required,max=128"`
	Title    string `json:"title"     validate:"max=255"`
	Brief    string `json:"brief"     validate:"required,max=4000"`
}

// CommissionResult is the opened relationship and the posted brief.
type CommissionResult struct {
	Relationship *domain.Relationship `json:"relationship"`
	Brief        *domain.Message      `json:"brief,omitempty"`
}

// CommissionService opens commission relationships without an invite.
type CommissionService struct {
	DB        *gorm.DB
	Summaries SummaryRepo
	Queue     Queue
	Messages  *MessageService
}

// NewCommissionService constructs a CommissionService; messages posts the brief.
func NewCommissionService(db *gorm.DB, q Queue, messages *MessageService) *CommissionService {
	return &CommissionService{DB: db, Summaries: defaultSummaries{}, Queue: q, Messages: messages}
}

// Start opens (or reopens) the commission between clientID and the artist
// and posts the brief as the first message.
func (s *CommissionService) Start(ctx context.Context, clientID string, in StartCommissionInput) (*CommissionResult, error) {
	tr := otel.Tracer("services/CommissionService")
	ctx, span := tr.Start(ctx, "Start",
		trace.WithAttributes(
			attribute.String("client.id", clientID),
			attribute.String("artist.id", in.ArtistID),
		),
	)
	defer span.End()

	in.ArtistID = strings.TrimSpace(in.ArtistID)
	in.Title = strings.TrimSpace(in.Title)
	if err := domain.Validate(in); err != nil {
		return nil, invalid("%v", err)
	}
	if clientID == "" || clientID == in.ArtistID {
		return nil, invalid("a commission needs two different users")
	}

	relID := utils.DeterministicRelationshipID(utils.PrefixCommission, in.ArtistID, clientID)
	cur, err := repo.GetRelationship(ctx, s.DB, relID)
	switch {
	case err == nil:
		if !cur.SameParticipants(in.ArtistID, clientID) {
			return nil, linkErr(LinkIDCollision, "", nil)
		}
	case errors.Is(err, repo.ErrNotFound):
	default:
		return nil, err
	}

	rel, err := repo.UpsertRelationship(ctx, s.DB, &domain.Relationship{
		ID:           relID,
		Area:         domain.AreaCommission,
		OwnerID:      in.ArtistID,
		Participants: datatypes.JSONSlice[string]{in.ArtistID, clientID},
	})
	if err != nil {
		return nil, err
	}

	if err := s.Summaries.UpsertSummary(ctx, s.DB, &domain.Summary{
		UserID:         clientID,
		Area:           domain.AreaCommission,
		RelationshipID: relID,
		CounterpartID:  in.ArtistID,
		Label:          in.Title,
	}); err != nil {
		return nil, err
	}
	artist := MirrorPayload{UserID: in.ArtistID, Area: domain.AreaCommission, RelationshipID: relID, CounterpartID: clientID, Label: in.Title}
	attempt(ctx, s.Queue, KindMirrorUpsert, artist, func(ctx context.Context) error {
		return s.Summaries.UpsertSummary(ctx, s.DB, artist.summary())
	})

	msg, err := s.Messages.Send(ctx, relID, clientID, in.Brief)
	if err != nil {
		return nil, err
	}
	if rel, err = repo.GetRelationship(ctx, s.DB, relID); err != nil {
		return nil, err
	}
	return &CommissionResult{Relationship: rel, Brief: msg}, nil
}
