// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and validate input, call the
// application services through the contracts below, and translate results
// into HTTP responses (including conditional and replayed responses).
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/ai"
	"github.com/masterworkhq/masterwork/internal/auth"
	"github.com/masterworkhq/masterwork/internal/discord"
	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/http/middleware"
	"github.com/masterworkhq/masterwork/internal/services"
	"github.com/masterworkhq/masterwork/internal/utils"
)

//
// Service contracts (context-aware)
//

// InviteService creates, reads and revokes invites.
type InviteService interface {
	Create(ctx context.Context, ownerID string, in services.CreateInviteInput) (*services.CreatedInvite, error)
	View(ctx context.Context, ownerID, token string) (*services.InviteView, error)
	ListForOwner(ctx context.Context, ownerID, area string) ([]services.InviteView, error)
	Revoke(ctx context.Context, ownerID, token string) error
}

// LinkService accepts invites.
type LinkService interface {
	Accept(ctx context.Context, ownerID, token, userID string) (*services.AcceptResult, error)
}

// RelationshipService reads relationships and the caller's summaries.
type RelationshipService interface {
	Get(ctx context.Context, relID, userID string) (*domain.Relationship, error)
	ListForUser(ctx context.Context, userID, area string, page, pageSize int) ([]services.SummaryView, int64, error)
	UpdateShared(ctx context.Context, relID, userID string, in services.SharedUpdate) (*domain.Relationship, error)
	MarkRead(ctx context.Context, relID, userID string) (*services.SummaryView, error)
}

// MessageService appends and lists messages.
type MessageService interface {
	Send(ctx context.Context, relID, senderID, text string) (*domain.Message, error)
	SendUpdate(ctx context.Context, relID, senderID, text string) (*domain.Message, error)
	ListPage(ctx context.Context, relID, userID string, page, pageSize int) ([]domain.Message, int64, error)
}

// UnlinkService removes a member from a client chat.
type UnlinkService interface {
	Unlink(ctx context.Context, callerID, ownerID, clientID, userID string) (*services.UnlinkResult, error)
}

// CommissionService opens commissions.
type CommissionService interface {
	Start(ctx context.Context, clientID string, in services.StartCommissionInput) (*services.CommissionResult, error)
}

// CharacterService manages BigGote characters.
type CharacterService interface {
	CreateProfile(ctx context.Context, relID, userID string, in services.ProfileInput) (*domain.CharacterProfile, error)
	GetProfile(ctx context.Context, relID, callerID, userID string) (*domain.CharacterProfile, error)
	GetState(ctx context.Context, relID, callerID, userID string) (*domain.CharacterState, error)
	PatchState(ctx context.Context, relID, userID string, p domain.StatePatch) (*domain.CharacterState, error)
	GetInventory(ctx context.Context, relID, callerID, userID string) ([]domain.InventoryItem, error)
	PatchInventory(ctx context.Context, relID, userID string, p domain.InventoryPatch) ([]domain.InventoryItem, error)
	Sheets(ctx context.Context, relID, callerID string) ([]services.CharacterSheet, error)
}

// TurnService runs AI narrator turns.
type TurnService interface {
	FinishTurn(ctx context.Context, relID, userID string) (*services.TurnResult, error)
}

// ProfileService manages the signed-in user's profile.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Update(ctx context.Context, userID string, in services.ProfileUpdate) (*domain.UserProfile, error)
	LinkDiscord(ctx context.Context, userID, discordID, username string) (*domain.UserProfile, error)
	RegisterPushToken(ctx context.Context, userID, token, platform string) (*domain.PushToken, error)
}

// SessionIssuer signs session tokens.
type SessionIssuer interface {
	Issue(id auth.Identity) (string, time.Time, error)
}

// Completer is the chat-completion backend used by the AI proxy.
type Completer interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// DiscordOAuth runs the account-linking flow.
type DiscordOAuth interface {
	Enabled() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*discord.User, error)
}

// Interactions verifies and answers Discord slash commands.
type Interactions interface {
	Verify(signatureHex, timestamp string, body []byte) bool
	Handle(ctx context.Context, body []byte) (discord.Response, error)
}

//
// Handler wiring
//

// CookieOptions controls the session and OAuth state cookies.
type CookieOptions struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Deps are the collaborators of Handlers. Optional integrations may be nil;
// their endpoints then answer 503.
type Deps struct {
	DB            *gorm.DB
	Invites       InviteService
	Links         LinkService
	Relationships RelationshipService
	Messages      MessageService
	Unlinks       UnlinkService
	Commissions   CommissionService
	Characters    CharacterService
	Turns         TurnService
	Profiles      ProfileService

	Sessions SessionIssuer
	Verifier auth.Verifier
	Cookie   CookieOptions

	AI           Completer
	DiscordOAuth DiscordOAuth
	Interactions Interactions
	Notifier     services.Notifier

	VAPIDPublicKey string
	IdempotencyTTL time.Duration
	// MaxMessageRunes is the edge check on message length; the service
	// enforces its own limit too.
	MaxMessageRunes int
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	Deps
}

// New constructs a Handlers bound to d.
func New(d Deps) *Handlers {
	if d.IdempotencyTTL <= 0 {
		d.IdempotencyTTL = 24 * time.Hour
	}
	if d.Cookie.Name == "" {
		d.Cookie.Name = "mw_session"
	}
	return &Handlers{Deps: d}
}

// userID returns the authenticated user set by middleware.Authenticate.
func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Shared DTOs and helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(c.Query("page"), c.Query("page_size"))
}
