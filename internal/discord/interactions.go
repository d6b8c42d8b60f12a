package discord

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// Interaction and response types used by the endpoint.
const (
	InteractionPing          = 1
	InteractionCommand       = 2
	ResponsePong             = 1
	ResponseChannelMessage   = 4
	messageFlagEphemeral     = 1 << 6
	SignatureHeader          = "X-Signature-Ed25519"
	SignatureTimestampHeader = "X-Signature-Timestamp"
)

// ErrUnknownInteraction is returned for interaction types the bot ignores.
var ErrUnknownInteraction = errors.New("unsupported interaction type")

// ProfileFinder resolves a Discord account to a Masterwork profile.
type ProfileFinder interface {
	FindByDiscordID(ctx context.Context, discordID string) (*domain.UserProfile, error)
}

// Interaction is the subset of an incoming interaction the bot reads.
type Interaction struct {
	Type   int `json:"type"`
	Member *struct {
		User User `json:"user"`
	} `json:"member,omitempty"`
	User *User `json:"user,omitempty"`
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

// Invoker returns the id of the user who ran the command.
func (in Interaction) Invoker() string {
	if in.Member != nil {
		return in.Member.User.ID
	}
	if in.User != nil {
		return in.User.ID
	}
	return ""
}

// Response is written back as the interaction callback.
type Response struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData carries the reply message.
type ResponseData struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// Interactions verifies and answers slash-command interactions.
type Interactions struct {
	key      ed25519.PublicKey
	profiles ProfileFinder
}

// NewInteractions decodes the application's public key. profiles may be nil,
// in which case whoami reports that lookups are unavailable.
func NewInteractions(publicKeyHex string, profiles ProfileFinder) (*Interactions, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &Interactions{key: ed25519.PublicKey(raw), profiles: profiles}, nil
}

// Verify checks the request signature over timestamp+body.
func (i *Interactions) Verify(signatureHex, timestamp string, body []byte) bool {
	if i == nil || signatureHex == "" || timestamp == "" {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(i.key, msg, sig)
}

// Handle answers a verified interaction body.
func (i *Interactions) Handle(ctx context.Context, body []byte) (Response, error) {
	var in Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		return Response{}, fmt.Errorf("decode interaction: %w", err)
	}
	switch in.Type {
	case InteractionPing:
		return Response{Type: ResponsePong}, nil
	case InteractionCommand:
		return reply(i.command(ctx, in)), nil
	default:
		return Response{}, ErrUnknownInteraction
	}
}

func (i *Interactions) command(ctx context.Context, in Interaction) string {
	switch strings.ToLower(in.Data.Name) {
	case "ping":
		return "pong"
	case "help":
		return "Commands: /ping checks the bot, /whoami shows the Masterwork account linked to you."
	case "whoami":
		return i.whoami(ctx, in.Invoker())
	default:
		return fmt.Sprintf("Unknown command %q. Try /help.", in.Data.Name)
	}
}

func (i *Interactions) whoami(ctx context.Context, discordID string) string {
	if i.profiles == nil {
		return "Account lookups are unavailable right now."
	}
	if discordID == "" {
		return "Could not tell who you are."
	}
	p, err := i.profiles.FindByDiscordID(ctx, discordID)
	if err != nil || p == nil {
		return "Your Discord account is not linked to Masterwork yet."
	}
	name := p.DisplayName
	if name == "" {
		name = p.UserID
	}
	if len(p.Roles) > 0 {
		return fmt.Sprintf("You are %s (%s).", name, strings.Join(p.Roles, ", "))
	}
	return fmt.Sprintf("You are %s.", name)
}

func reply(content string) Response {
	return Response{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Content: Truncate(content, MaxContentRunes), Flags: messageFlagEphemeral},
	}
}
