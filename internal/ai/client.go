// Package ai is the chat-completion client used by the AI chat proxy and
// by BigGote turns, plus parsing of the structured turn contract.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ai client not configured")

// Config is parsed from the environment.
type Config struct {
	URL         string        `env:"AI_API_URL"      envDefault:"https://api.openai.com/v1/chat/completions"`
	APIKey      string        `env:"AI_API_KEY"`
	Model       string        `env:"AI_MODEL"        envDefault:"gpt-4o-mini"`
	Temperature float64       `env:"AI_TEMPERATURE"  envDefault:"0.8"`
	MaxTokens   int           `env:"AI_MAX_TOKENS"   envDefault:"1200"`
	Timeout     time.Duration `env:"AI_TIMEOUT"      envDefault:"45s"`
	MaxTries    uint          `env:"AI_MAX_TRIES"    envDefault:"3"`
}

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion status %d: %s", e.Code, e.Body)
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a Client; a nil hc uses a client with cfg.Timeout.
func NewClient(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 1
	}
	return &Client{cfg: cfg, http: hc}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends messages and returns the first choice's content. 429 and
// 5xx answers are retried with exponential backoff up to MaxTries.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("messages are required")
	}
	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	return backoff.Retry(ctx, func() (string, error) {
		return c.once(ctx, body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.cfg.MaxTries))
}

func (c *Client) once(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build completion request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		se := &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(raw))}
		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return "", se
		}
		return "", backoff.Permanent(se)
	}

	var payload completionResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode completion response: %w", err))
	}
	if len(payload.Choices) == 0 {
		return "", backoff.Permanent(fmt.Errorf("completion response has no choices"))
	}
	return payload.Choices[0].Message.Content, nil
}
