// Package services – LinkService
//
// Accept turns an invite into a relationship. The critical writes (the
// canonical relationship, the accepting user's own mirror, the member link
// record and consuming the invite) run in one transaction; consumption is
// conditional on the invite still being active, so two users racing for the
// same invite cannot both succeed. Writes on behalf of the other party run
// after commit and fall back to the reconciler.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/observability"
	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/utils"
)

// ReasonSelf is the not_usable reason for an owner accepting their own invite.
const ReasonSelf = "self"

// AccessBigGote is the profile access flag granted by a BigGote accept.
const AccessBigGote = "biggote"

// LinkService implements invite acceptance.
type LinkService struct {
	DB        *gorm.DB
	Summaries SummaryRepo
	Queue     Queue

	now         func() time.Time
	grantAccess func(ctx context.Context, db *gorm.DB, userID, flag string) error
}

// NewLinkService constructs a LinkService backed by the repo package.
func NewLinkService(db *gorm.DB, q Queue) *LinkService {
	return &LinkService{
		DB:          db,
		Summaries:   defaultSummaries{},
		Queue:       q,
		now:         func() time.Time { return time.Now().UTC() },
		grantAccess: repo.AddAccess,
	}
}

// AcceptResult describes the relationship an accept joined.
type AcceptResult struct {
	RelationshipID string               `json:"relationship_id"`
	Area           string               `json:"area"`
	Relationship   *domain.Relationship `json:"relationship"`
	Summary        *domain.Summary      `json:"summary"`
}

// RelationshipIDFor returns the id the invite's relationship will have once
// userID accepts it: the embedded id when present, otherwise derived from
// the owner (and cc target client) and the accepting user.
func RelationshipIDFor(inv *domain.Invite, userID string) string {
	if inv.RelationshipID != "" {
		return inv.RelationshipID
	}
	switch inv.Area {
	case domain.AreaCC:
		return CCRelationshipID(inv.OwnerID, inv.TargetID, userID)
	case domain.AreaCommission:
		return utils.DeterministicRelationshipID(utils.PrefixCommission, inv.OwnerID, userID)
	default:
		return inv.Token
	}
}

// CCRelationshipID derives the client-chat relationship id.
func CCRelationshipID(ownerID, clientID, userID string) string {
	return utils.DeterministicRelationshipID(utils.PrefixCC, ownerID, clientID, userID)
}

// Accept joins userID to the relationship described by the owner's invite.
// Failures are *LinkError values carrying one of the Link* codes.
func (s *LinkService) Accept(ctx context.Context, ownerID, token, userID string) (*AcceptResult, error) {
	tr := otel.Tracer("services/LinkService")
	ctx, span := tr.Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.String("owner.id", ownerID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	res, err := s.accept(ctx, ownerID, token, userID)
	if err != nil {
		var le *LinkError
		if errors.As(err, &le) {
			observability.LinkFailures.WithLabelValues(le.Code).Inc()
			span.SetAttributes(attribute.String("link.error", le.Code))
		}
		return nil, err
	}
	observability.InvitesAccepted.WithLabelValues(res.Area).Inc()
	span.SetAttributes(attribute.String("relationship.id", res.RelationshipID))
	return res, nil
}

func (s *LinkService) accept(ctx context.Context, ownerID, token, userID string) (*AcceptResult, error) {
	ownerID, token, userID = strings.TrimSpace(ownerID), strings.TrimSpace(token), strings.TrimSpace(userID)
	if ownerID == "" || token == "" {
		return nil, linkErr(LinkInviteNotFound, "", nil)
	}
	if userID == "" {
		return nil, linkErr(LinkReadDenied, "", ErrForbidden)
	}

	// 1. read
	inv, err := repo.GetInvite(ctx, s.DB, ownerID, token)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, linkErr(LinkInviteNotFound, "", err)
	}
	if err != nil {
		return nil, linkErr(LinkReadDenied, "", err)
	}

	// 2. usable
	now := s.now()
	if ok, reason := domain.InviteUsable(inv, now); !ok {
		return nil, linkErr(LinkNotUsable, reason, ErrInviteNotUsable)
	}
	if userID == ownerID {
		return nil, linkErr(LinkNotUsable, ReasonSelf, ErrInviteNotUsable)
	}

	// 3. id
	relID := RelationshipIDFor(inv, userID)
	mine := &domain.Summary{
		UserID:         userID,
		Area:           inv.Area,
		RelationshipID: relID,
		CounterpartID:  ownerID,
		Label:          inv.Label,
	}

	var rel *domain.Relationship
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetRelationship(ctx, tx, relID)
		switch {
		case err == nil:
			for _, p := range cur.Participants {
				if p != ownerID && p != userID {
					return linkErr(LinkIDCollision, "", nil)
				}
			}
		case errors.Is(err, repo.ErrNotFound):
		default:
			return linkErr(LinkCreateDenied, "", err)
		}

		// 4. relationship
		rel, err = repo.UpsertRelationship(ctx, tx, &domain.Relationship{
			ID:           relID,
			Area:         inv.Area,
			OwnerID:      ownerID,
			ClientID:     inv.TargetID,
			Participants: datatypes.JSONSlice[string]{ownerID, userID},
			AIMode:       inv.AIMode,
			Scene:        inv.Scene,
		})
		if err != nil {
			return linkErr(LinkCreateDenied, "", err)
		}
		// A rejoin after unlink restores the departed participant.
		if !rel.SameParticipants(ownerID, userID) {
			both := []string{ownerID, userID}
			if err := repo.SetParticipants(ctx, tx, relID, both); err != nil {
				return linkErr(LinkCreateDenied, "", err)
			}
			rel.Participants = both
		}

		// 5. own mirror
		if err := s.Summaries.UpsertSummary(ctx, tx, mine); err != nil {
			return linkErr(LinkSummaryWriteDenied, "", err)
		}
		if inv.Area == domain.AreaCC {
			if err := s.Summaries.UpsertLink(ctx, tx, &domain.Link{
				UserID:         userID,
				ClientID:       inv.TargetID,
				RelationshipID: relID,
				Role:           domain.LinkRoleMember,
				CounterpartID:  ownerID,
			}); err != nil {
				return linkErr(LinkSummaryWriteDenied, "", err)
			}
		}

		// 7. consume
		if err := repo.ConsumeInvite(ctx, tx, ownerID, token, userID, now); err != nil {
			if errors.Is(err, repo.ErrStale) {
				return linkErr(LinkNotUsable, domain.ReasonUsed, ErrInviteNotUsable)
			}
			return linkErr(LinkInviteUpdateDenied, "", err)
		}
		return nil
	})
	if err != nil {
		var le *LinkError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, linkErr(LinkCreateDenied, "", err)
	}

	// 6. owner mirror
	owner := MirrorPayload{UserID: ownerID, Area: inv.Area, RelationshipID: relID, CounterpartID: userID, Label: inv.Label}
	attempt(ctx, s.Queue, KindMirrorUpsert, owner, func(ctx context.Context) error {
		return s.Summaries.UpsertSummary(ctx, s.DB, owner.summary())
	})
	if inv.Area == domain.AreaCC {
		ol := LinkPayload{UserID: ownerID, ClientID: inv.TargetID, RelationshipID: relID, Role: domain.LinkRoleOwner, CounterpartID: userID}
		attempt(ctx, s.Queue, KindLinkUpsert, ol, func(ctx context.Context) error {
			return s.Summaries.UpsertLink(ctx, s.DB, &domain.Link{
				UserID: ol.UserID, ClientID: ol.ClientID, RelationshipID: ol.RelationshipID,
				Role: ol.Role, CounterpartID: ol.CounterpartID,
			})
		})
	}

	// 8. access
	if inv.Area == domain.AreaBigGote {
		g := GrantAccessPayload{UserID: userID, Flag: AccessBigGote}
		attempt(ctx, s.Queue, KindGrantAccess, g, func(ctx context.Context) error {
			return s.grantAccess(ctx, s.DB, g.UserID, g.Flag)
		})
	}

	return &AcceptResult{RelationshipID: relID, Area: inv.Area, Relationship: rel, Summary: mine}, nil
}
