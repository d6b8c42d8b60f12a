package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

// RoleSyncer pushes a user's role tags to the external community platform.
type RoleSyncer interface {
	SyncRoles(ctx context.Context, discordID string, roles []string) error
}

// RoleSyncPayload is the queued form of a role sync.
type RoleSyncPayload struct {
	UserID    string   `json:"user_id"`
	DiscordID string   `json:"discord_id"`
	Roles     []string `json:"roles"`
}

// ProfileUpdate is the caller-editable part of a user profile. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	DisplayName *string  `json:"display_name,omitempty" validate:"omitempty,max=255"`
	Roles       []string `json:"roles,omitempty"        validate:"omitempty,max=25,dive,max=64"`
}

// ProfileService manages user profiles, access flags and push tokens.
type ProfileService struct {
	DB    *gorm.DB
	Queue Queue
	// Roles is optional; nil disables role sync.
	Roles RoleSyncer
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, q Queue, roles RoleSyncer) *ProfileService {
	return &ProfileService{DB: db, Queue: q, Roles: roles}
}

// Get returns the user's profile, or an empty one when none is stored.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := repo.GetUserProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return &domain.UserProfile{UserID: userID, Roles: datatypes.JSONSlice[string]{}, Access: datatypes.JSONSlice[string]{}}, nil
	}
	return p, err
}

// Update stores the profile fields and, when the user has a linked Discord
// account and a role syncer is configured, syncs roles best-effort.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*domain.UserProfile, error) {
	if err := domain.Validate(in); err != nil {
		return nil, invalid("%v", err)
	}
	p := &domain.UserProfile{UserID: userID}
	var cols []string
	if in.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*in.DisplayName)
		cols = append(cols, "display_name")
	}
	if in.Roles != nil {
		p.Roles = datatypes.JSONSlice[string](NormalizeList(in.Roles))
		cols = append(cols, "roles")
	}
	if err := repo.UpsertUserProfile(ctx, s.DB, p, cols...); err != nil {
		return nil, err
	}
	cur, err := repo.GetUserProfile(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if in.Roles != nil {
		s.syncRoles(ctx, cur)
	}
	return cur, nil
}

func (s *ProfileService) syncRoles(ctx context.Context, p *domain.UserProfile) {
	if s.Roles == nil || p.DiscordID == "" {
		return
	}
	rp := RoleSyncPayload{UserID: p.UserID, DiscordID: p.DiscordID, Roles: append([]string{}, p.Roles...)}
	attempt(ctx, s.Queue, KindRoleSync, rp, func(ctx context.Context) error {
		return s.Roles.SyncRoles(ctx, rp.DiscordID, rp.Roles)
	})
}

// LinkDiscord records the user's Discord identity. An account already
// linked to another user is rejected with ErrForbidden.
func (s *ProfileService) LinkDiscord(ctx context.Context, userID, discordID, username string) (*domain.UserProfile, error) {
	discordID = strings.TrimSpace(discordID)
	if discordID == "" {
		return nil, invalid("discord id is required")
	}
	other, err := repo.FindUserProfileByDiscordID(ctx, s.DB, discordID)
	switch {
	case err == nil && other.UserID != userID:
		return nil, ErrForbidden
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}
	p := &domain.UserProfile{UserID: userID, DiscordID: discordID, DiscordUsername: username}
	if err := repo.UpsertUserProfile(ctx, s.DB, p, "discord_id", "discord_username"); err != nil {
		return nil, err
	}
	cur, err := repo.GetUserProfile(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if len(cur.Roles) > 0 {
		s.syncRoles(ctx, cur)
	}
	return cur, nil
}

// FindByDiscordID returns the profile linked to a Discord account.
func (s *ProfileService) FindByDiscordID(ctx context.Context, discordID string) (*domain.UserProfile, error) {
	return repo.FindUserProfileByDiscordID(ctx, s.DB, discordID)
}

// GrantAccess adds an access flag, creating the profile when missing.
func (s *ProfileService) GrantAccess(ctx context.Context, userID, flag string) error {
	return repo.AddAccess(ctx, s.DB, userID, flag)
}

// HasAccess reports whether the user carries flag. A missing profile has
// no flags.
func (s *ProfileService) HasAccess(ctx context.Context, userID, flag string) (bool, error) {
	p, err := repo.GetUserProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.HasAccess(flag), nil
}

// RegisterPushToken stores a browser push token under the user.
func (s *ProfileService) RegisterPushToken(ctx context.Context, userID, token, platform string) (*domain.PushToken, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > 512 {
		return nil, invalid("push token must be 1..512 characters")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = "web"
	}
	return repo.UpsertPushToken(ctx, s.DB, userID, token, platform)
}

// RoleSyncHandler adapts rs into the reconciler handler for KindRoleSync.
func RoleSyncHandler(rs RoleSyncer) OutboxHandler {
	return func(ctx context.Context, raw json.RawMessage) error {
		p, err := decode[RoleSyncPayload](raw)
		if err != nil {
			return err
		}
		return rs.SyncRoles(ctx, p.DiscordID, p.Roles)
	}
}

// NotifyHandler adapts n into the reconciler handler for KindNotify.
func NotifyHandler(n Notifier) OutboxHandler {
	return func(ctx context.Context, raw json.RawMessage) error {
		p, err := decode[NotifyPayload](raw)
		if err != nil {
			return err
		}
		return n.Notify(ctx, p.Content)
	}
}
