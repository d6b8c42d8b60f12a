// Package discord integrates the Masterwork community server: account
// linking over OAuth2, webhook notifications, signed slash-command
// interactions and role synchronisation.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config is parsed from the environment.
type Config struct {
	ClientID     string `env:"DISCORD_CLIENT_ID"`
	ClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	RedirectURL  string `env:"DISCORD_REDIRECT_URL"`
	WebhookURL   string `env:"DISCORD_WEBHOOK_URL"`
	// PublicKey is the hex-encoded ed25519 application key.
	PublicKey string `env:"DISCORD_PUBLIC_KEY"`
	BotToken  string `env:"DISCORD_BOT_TOKEN"`
	GuildID   string `env:"DISCORD_GUILD_ID"`
	// RoleMap maps profile role tags to guild role ids, e.g. "artist:1234,coach:5678".
	RoleMap map[string]string `env:"DISCORD_ROLE_MAP"`
	APIBase string            `env:"DISCORD_API_BASE" envDefault:"https://discord.com/api/v10"`
	Timeout time.Duration     `env:"DISCORD_TIMEOUT"  envDefault:"10s"`
}

// OAuthEnabled reports whether account linking is configured.
func (c Config) OAuthEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// APIError is a non-2xx answer from the Discord REST API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api status %d: %s", e.Status, e.Body)
}

// Retryable reports whether the request may succeed if tried again later.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func newHTTPClient(cfg Config, hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	t := cfg.Timeout
	if t <= 0 {
		t = 10 * time.Second
	}
	return &http.Client{Timeout: t}
}

// do sends a JSON request and decodes a JSON answer into out when non-nil.
// Non-retryable API errors are marked permanent for the outbox reconciler.
func do(ctx context.Context, hc *http.Client, method, url, auth string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal discord request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("discord request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		ae := &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(raw))}
		if !ae.Retryable() {
			return backoff.Permanent(ae)
		}
		return ae
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode discord response: %w", err)
	}
	return nil
}
