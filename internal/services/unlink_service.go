package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

// UnlinkService removes a member from a cc relationship. The relationship
// row and its messages stay for audit; only the participant list and the
// four mirror records change.
type UnlinkService struct {
	DB        *gorm.DB
	Summaries SummaryRepo
	Queue     Queue
}

// NewUnlinkService constructs an UnlinkService backed by the repo package.
func NewUnlinkService(db *gorm.DB, q Queue) *UnlinkService {
	return &UnlinkService{DB: db, Summaries: defaultSummaries{}, Queue: q}
}

// UnlinkResult reports what an unlink touched.
type UnlinkResult struct {
	RelationshipID string   `json:"relationship_id"`
	Existed        bool     `json:"existed"`
	Participants   []string `json:"participants"`
}

// Unlink removes userID from the cc relationship of (ownerID, clientID,
// userID). The caller must be the owner or the departing user. A missing
// relationship is not an error: the mirror cleanup still runs.
func (s *UnlinkService) Unlink(ctx context.Context, callerID, ownerID, clientID, userID string) (*UnlinkResult, error) {
	tr := otel.Tracer("services/UnlinkService")
	ctx, span := tr.Start(ctx, "Unlink",
		trace.WithAttributes(
			attribute.String("owner.id", ownerID),
			attribute.String("client.id", clientID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	ownerID, clientID, userID = strings.TrimSpace(ownerID), strings.TrimSpace(clientID), strings.TrimSpace(userID)
	if ownerID == "" || userID == "" {
		return nil, invalid("owner and user are required")
	}
	if callerID != ownerID && callerID != userID {
		return nil, ErrForbidden
	}

	relID := CCRelationshipID(ownerID, clientID, userID)
	res := &UnlinkResult{RelationshipID: relID}

	rel, err := repo.GetRelationship(ctx, s.DB, relID)
	switch {
	case err == nil:
		res.Existed = true
		keep := make([]string, 0, len(rel.Participants))
		for _, p := range rel.Participants {
			if p != userID || p == ownerID {
				keep = append(keep, p)
			}
		}
		if len(keep) != len(rel.Participants) {
			if err := repo.SetParticipants(ctx, s.DB, relID, keep); err != nil {
				return nil, err
			}
		}
		res.Participants = keep
	case errors.Is(err, repo.ErrNotFound):
	default:
		return nil, err
	}

	for _, uid := range []string{userID, ownerID} {
		mp := MirrorPayload{UserID: uid, Area: domain.AreaCC, RelationshipID: relID}
		attempt(ctx, s.Queue, KindMirrorDelete, mp, func(ctx context.Context) error {
			return s.Summaries.DeleteSummary(ctx, s.DB, mp.UserID, mp.Area, mp.RelationshipID)
		})
		lp := LinkPayload{UserID: uid, ClientID: clientID, RelationshipID: relID}
		attempt(ctx, s.Queue, KindLinkDelete, lp, func(ctx context.Context) error {
			return s.Summaries.DeleteLink(ctx, s.DB, lp.UserID, lp.ClientID, lp.RelationshipID)
		})
	}
	return res, nil
}
