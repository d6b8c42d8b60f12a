package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// MaxContentRunes is Discord's message content limit.
const MaxContentRunes = 2000

// ErrWebhookDisabled is returned when no webhook URL is configured.
var ErrWebhookDisabled = errors.New("discord webhook not configured")

// Webhook posts plain messages to a channel webhook.
type Webhook struct {
	url  string
	http *http.Client
}

// NewWebhook builds a Webhook; a nil hc uses a client with cfg.Timeout.
func NewWebhook(cfg Config, hc *http.Client) *Webhook {
	return &Webhook{url: strings.TrimSpace(cfg.WebhookURL), http: newHTTPClient(cfg, hc)}
}

// Enabled reports whether a webhook URL is configured.
func (w *Webhook) Enabled() bool { return w != nil && w.url != "" }

type webhookMessage struct {
	Content         string          `json:"content"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
}

// Notify posts content, truncated to MaxContentRunes. Mentions are never
// expanded.
func (w *Webhook) Notify(ctx context.Context, content string) error {
	if !w.Enabled() {
		return ErrWebhookDisabled
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("content is required")
	}
	msg := webhookMessage{Content: Truncate(content, MaxContentRunes), AllowedMentions: allowedMentions{Parse: []string{}}}
	return do(ctx, w.http, http.MethodPost, w.url, "", msg, nil)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
