package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ErrRolesDisabled is returned when the bot token or guild is missing.
var ErrRolesDisabled = errors.New("discord role sync not configured")

// Roles keeps guild roles in step with profile role tags. Only roles named
// in the role map are managed; anything else on the member is untouched.
type Roles struct {
	apiBase string
	token   string
	guildID string
	roleMap map[string]string
	http    *http.Client
}

// NewRoles builds a Roles syncer; a nil hc uses a client with cfg.Timeout.
func NewRoles(cfg Config, hc *http.Client) *Roles {
	m := make(map[string]string, len(cfg.RoleMap))
	for tag, id := range cfg.RoleMap {
		tag = strings.ToLower(strings.TrimSpace(tag))
		id = strings.TrimSpace(id)
		if tag != "" && id != "" {
			m[tag] = id
		}
	}
	return &Roles{
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		token:   cfg.BotToken,
		guildID: cfg.GuildID,
		roleMap: m,
		http:    newHTTPClient(cfg, hc),
	}
}

// Enabled reports whether the syncer can reach a guild.
func (r *Roles) Enabled() bool {
	return r != nil && r.token != "" && r.guildID != "" && len(r.roleMap) > 0
}

// SyncRoles adds every managed role whose tag is in tags and removes every
// other managed role. Tags match case-insensitively.
func (r *Roles) SyncRoles(ctx context.Context, discordID string, tags []string) error {
	if !r.Enabled() {
		return ErrRolesDisabled
	}
	if strings.TrimSpace(discordID) == "" {
		return errors.New("discord id is required")
	}
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(strings.TrimSpace(t))] = true
	}

	managed := make([]string, 0, len(r.roleMap))
	for tag := range r.roleMap {
		managed = append(managed, tag)
	}
	sort.Strings(managed)

	for _, tag := range managed {
		method := http.MethodDelete
		if want[tag] {
			method = http.MethodPut
		}
		u := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", r.apiBase,
			url.PathEscape(r.guildID), url.PathEscape(discordID), url.PathEscape(r.roleMap[tag]))
		if err := do(ctx, r.http, method, u, "Bot "+r.token, nil, nil); err != nil {
			return fmt.Errorf("%s role %q: %w", strings.ToLower(method), tag, err)
		}
	}
	return nil
}
