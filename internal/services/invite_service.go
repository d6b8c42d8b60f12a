// Package services – InviteService
//
// This file implements the invite lifecycle: minting owner-scoped,
// single-use, expiring tokens, listing and revoking them, and the pure
// usability check. Expiry is evaluated on read and never written back.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/observability"
	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/utils"
)

// inviteTokenBytes is the entropy of a minted token (32 base64 chars).
const inviteTokenBytes = 24

// CreateInviteInput carries the owner-chosen fields of a new invite.
type CreateInviteInput struct {
	Area          string `json:"area"            validate:"area"`
	TargetID      string `json:"target_id"       validate:"max=128"`
	Label         string `json:"label"           validate:"max=255"`
	Note          string `json:"note"            validate:"max=2000"`
	AIMode        bool   `json:"ai_mode"`
	Scene         string `json:"scene"           validate:"max=4000"`
	ExpiresInDays int    `json:"expires_in_days" validate:"min=0,max=365"`
}

// InviteService owns invite creation and status changes.
type InviteService struct {
	DB *gorm.DB
	// Summaries writes the eager owner preview of BigGote invites.
	Summaries SummaryRepo
	Queue     Queue

	// PublicBaseURL prefixes shareable links (e.g. https://masterwork.gg).
	PublicBaseURL string
	// DefaultTTLDays applies when the caller does not choose an expiry.
	DefaultTTLDays int

	now      func() time.Time
	newToken func(int) (string, error)
}

// NewInviteService constructs an InviteService with crypto-random tokens.
func NewInviteService(db *gorm.DB, q Queue, publicBaseURL string, ttlDays int) *InviteService {
	return &InviteService{
		DB:             db,
		Summaries:      defaultSummaries{},
		Queue:          q,
		PublicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		DefaultTTLDays: ttlDays,
		now:            func() time.Time { return time.Now().UTC() },
		newToken:       utils.SecureRandomToken,
	}
}

// CreatedInvite is the invite plus its shareable URL.
type CreatedInvite struct {
	Invite *domain.Invite `json:"invite"`
	URL    string         `json:"url"`
}

// Create mints a token and stores an active invite under ownerID.
func (s *InviteService) Create(ctx context.Context, ownerID string, in CreateInviteInput) (*CreatedInvite, error) {
	tr := otel.Tracer("services/InviteService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("owner.id", ownerID),
			attribute.String("invite.area", in.Area),
		),
	)
	defer span.End()

	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrForbidden
	}
	in.Area = strings.TrimSpace(in.Area)
	if !domain.IsArea(in.Area) {
		return nil, ErrUnknownArea
	}
	if err := domain.Validate(in); err != nil {
		return nil, invalid("%v", err)
	}
	if in.Area == domain.AreaCC && strings.TrimSpace(in.TargetID) == "" {
		return nil, invalid("cc invites need a target client id")
	}

	token, err := s.newToken(inviteTokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.now()
	days := in.ExpiresInDays
	if days == 0 {
		days = s.DefaultTTLDays
	}
	exp := utils.DefaultInviteExpiry(now, days)

	inv := &domain.Invite{
		OwnerID:   ownerID,
		Token:     token,
		Area:      in.Area,
		TargetID:  strings.TrimSpace(in.TargetID),
		Label:     strings.TrimSpace(in.Label),
		Note:      in.Note,
		Status:    domain.InviteActive,
		AIMode:    in.AIMode,
		Scene:     in.Scene,
		CreatedAt: now,
		ExpiresAt: &exp,
	}
	if in.Area == domain.AreaBigGote {
		inv.RelationshipID = token
	}
	if err := repo.CreateInvite(ctx, s.DB, inv); err != nil {
		return nil, err
	}
	observability.InvitesCreated.WithLabelValues(inv.Area).Inc()

	// BigGote shows the pending relationship to the owner before acceptance.
	if inv.Area == domain.AreaBigGote {
		p := MirrorPayload{UserID: ownerID, Area: inv.Area, RelationshipID: inv.RelationshipID, Label: inv.Label}
		attempt(ctx, s.Queue, KindMirrorUpsert, p, func(ctx context.Context) error {
			return s.Summaries.UpsertSummary(ctx, s.DB, p.summary())
		})
	}

	return &CreatedInvite{Invite: inv, URL: s.ShareURL(ownerID, token)}, nil
}

// ShareURL builds PUBLIC_BASE_URL/join?owner=<owner>&token=<token>.
func (s *InviteService) ShareURL(ownerID, token string) string {
	q := url.Values{}
	q.Set("owner", ownerID)
	q.Set("token", token)
	return s.PublicBaseURL + "/join?" + q.Encode()
}

// Get reads one invite. Any caller holding (owner, token) may read it; the
// token is the capability.
func (s *InviteService) Get(ctx context.Context, ownerID, token string) (*domain.Invite, error) {
	inv, err := repo.GetInvite(ctx, s.DB, ownerID, token)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInviteNotFound
	}
	return inv, err
}

// InviteView is an invite with its read-time usability.
type InviteView struct {
	domain.Invite
	Usable bool   `json:"usable"`
	Reason string `json:"reason,omitempty"`
}

// View reads an invite and evaluates IsInviteUsable at the current time.
func (s *InviteService) View(ctx context.Context, ownerID, token string) (*InviteView, error) {
	inv, err := s.Get(ctx, ownerID, token)
	if err != nil {
		return nil, err
	}
	ok, reason := IsInviteUsable(inv, s.now())
	return &InviteView{Invite: *inv, Usable: ok, Reason: reason}, nil
}

// ListForOwner returns the owner's invites (newest first), optionally by area.
func (s *InviteService) ListForOwner(ctx context.Context, ownerID, area string) ([]InviteView, error) {
	list, err := repo.ListInvites(ctx, s.DB, ownerID, area)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]InviteView, 0, len(list))
	for i := range list {
		ok, reason := IsInviteUsable(&list[i], now)
		out = append(out, InviteView{Invite: list[i], Usable: ok, Reason: reason})
	}
	return out, nil
}

// Revoke moves an active invite to revoked. Only the owner can revoke.
func (s *InviteService) Revoke(ctx context.Context, ownerID, token string) error {
	err := repo.RevokeInvite(ctx, s.DB, ownerID, token)
	if errors.Is(err, repo.ErrStale) {
		if _, gerr := repo.GetInvite(ctx, s.DB, ownerID, token); errors.Is(gerr, repo.ErrNotFound) {
			return ErrInviteNotFound
		}
		return ErrInviteNotUsable
	}
	return err
}

// IsInviteUsable is the pure usability predicate; see domain.InviteUsable.
func IsInviteUsable(inv *domain.Invite, now time.Time) (bool, string) {
	return domain.InviteUsable(inv, now)
}
