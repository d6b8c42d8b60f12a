package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// ErrOAuthDisabled is returned when client credentials are missing.
var ErrOAuthDisabled = errors.New("discord oauth not configured")

const authorizeURL = "https://discord.com/oauth2/authorize"

// User is the subset of /users/@me the server keeps.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// DisplayName prefers the global display name over the unique username.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.GlobalName) != "" {
		return u.GlobalName
	}
	return u.Username
}

// OAuth runs the authorization-code flow with the identify scope.
type OAuth struct {
	conf    *oauth2.Config
	apiBase string
	http    *http.Client
}

// NewOAuth builds an OAuth helper; a nil hc uses a client with cfg.Timeout.
func NewOAuth(cfg Config, hc *http.Client) *OAuth {
	base := strings.TrimRight(cfg.APIBase, "/")
	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  base + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiBase: base,
		http:    newHTTPClient(cfg, hc),
	}
}

// Enabled reports whether client credentials are configured.
func (o *OAuth) Enabled() bool {
	return o != nil && o.conf.ClientID != "" && o.conf.ClientSecret != "" && o.conf.RedirectURL != ""
}

// AuthCodeURL returns the consent URL carrying state.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange trades the callback code for a token and fetches the user.
func (o *OAuth) Exchange(ctx context.Context, code string) (*User, error) {
	if !o.Enabled() {
		return nil, ErrOAuthDisabled
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("authorization code is required")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.http)
	tok, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	var u User
	if err := do(ctx, o.http, http.MethodGet, o.apiBase+"/users/@me", tok.Type()+" "+tok.AccessToken, nil, &u); err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("fetch user: empty id")
	}
	return &u, nil
}
