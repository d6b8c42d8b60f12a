// Package services – MessageService
//
// This file implements MessageService, which appends messages to a
// relationship. It validates input, checks participation, persists the
// message and the relationship's lastMessageAt in one transaction, and
// then mirrors the new lastMessageAt onto every participant's summary.
// Each mirror write is independent: a failure is queued on the reconciler
// and never fails the send.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include relationship/user identifiers and pagination parameters.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Notifier posts a short text to an external channel (the Discord webhook).
type Notifier interface {
	Notify(ctx context.Context, content string) error
}

// NotifyPayload is the queued form of a failed notification.
type NotifyPayload struct {
	Content string `json:"content"`
}

// notifyPreviewRunes caps the message excerpt sent to the notifier.
const notifyPreviewRunes = 140

// MessageService coordinates message persistence and mirror fan-out.
type MessageService struct {
	DB        *gorm.DB
	Summaries SummaryRepo
	Queue     Queue
	// Notifier is optional; nil disables notifications.
	Notifier Notifier

	// MaxTextRunes rejects longer messages when > 0.
	MaxTextRunes int

	now func() time.Time
}

// NewMessageService constructs a MessageService backed by the repo package.
func NewMessageService(db *gorm.DB, q Queue, n Notifier, maxTextRunes int) *MessageService {
	return &MessageService{
		DB:           db,
		Summaries:    defaultSummaries{},
		Queue:        q,
		Notifier:     n,
		MaxTextRunes: maxTextRunes,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Send appends a normal message. Blank text is a silent no-op: it returns
// (nil, nil) and writes nothing.
func (s *MessageService) Send(ctx context.Context, relID, senderID, text string) (*domain.Message, error) {
	return s.post(ctx, "Send", relID, senderID, domain.MessageKindMessage, text)
}

// SendUpdate is Send with the "update" kind, rendered as a highlighted
// announcement by clients.
func (s *MessageService) SendUpdate(ctx context.Context, relID, senderID, text string) (*domain.Message, error) {
	return s.post(ctx, "SendUpdate", relID, senderID, domain.MessageKindUpdate, text)
}

// PostNarration appends a message authored by the narrator sentinel.
func (s *MessageService) PostNarration(ctx context.Context, relID, text string) (*domain.Message, error) {
	return s.post(ctx, "PostNarration", relID, domain.NarratorID, domain.MessageKindMessage, text)
}

func (s *MessageService) post(ctx context.Context, op, relID, senderID, kind, text string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("relationship.id", relID),
			attribute.String("sender.id", senderID),
		),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(text) > s.MaxTextRunes {
		return nil, ErrTooLong
	}

	rel, err := repo.GetRelationship(ctx, s.DB, relID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRelationshipNotFound
	}
	if err != nil {
		return nil, err
	}
	if senderID != domain.NarratorID && !rel.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	at := s.now()
	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(ctx, tx, relID, senderID, kind, text, at)
		if err != nil {
			return err
		}
		if _, err := repo.BumpLastMessageAt(ctx, tx, relID, at); err != nil {
			return err
		}
		fresh, err := repo.GetRelationship(ctx, tx, relID)
		if err != nil {
			return err
		}
		msg, rel = m, fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	// rel was re-read inside the transaction, so a user who left after the
	// participant check is not mirrored.
	for _, p := range rel.Participants {
		mp := MirrorPayload{
			UserID:         p,
			Area:           rel.Area,
			RelationshipID: rel.ID,
			CounterpartID:  rel.Counterpart(p),
			LastMessageAt:  &at,
		}
		attempt(ctx, s.Queue, KindMirrorTouch, mp, func(ctx context.Context) error {
			return touchOrCreate(ctx, s.DB, s.Summaries, mp)
		})
	}

	if s.Notifier != nil {
		np := NotifyPayload{Content: notificationText(rel, msg)}
		attempt(ctx, s.Queue, KindNotify, np, func(ctx context.Context) error {
			return s.Notifier.Notify(ctx, np.Content)
		})
	}
	return msg, nil
}

// notificationText renders a one-line preview of msg.
func notificationText(rel *domain.Relationship, msg *domain.Message) string {
	body := msg.Text
	if utf8.RuneCountInString(body) > notifyPreviewRunes {
		body = string([]rune(body)[:notifyPreviewRunes]) + "…"
	}
	tag := "message"
	if msg.Kind == domain.MessageKindUpdate {
		tag = "update"
	}
	return fmt.Sprintf("[%s] new %s in %s from %s: %s", rel.Area, tag, rel.ID, msg.SenderID, body)
}

// ListPage returns a page of the relationship's messages, oldest first,
// plus the total count. Only current participants may read.
func (s *MessageService) ListPage(ctx context.Context, relID, userID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("relationship.id", relID),
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = utils.DefaultPageSize
	}

	rel, err := repo.GetRelationship(ctx, s.DB, relID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, 0, ErrRelationshipNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	if !rel.HasParticipant(userID) {
		return nil, 0, ErrNotParticipant
	}

	total, err := repo.CountMessages(ctx, s.DB, relID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(ctx, s.DB, relID, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}
