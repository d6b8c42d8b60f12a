package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, content)
	return nil
}

func newMsgSvc(t *testing.T) (*MessageService, *recordingQueue) {
	t.Helper()
	q := &recordingQueue{}
	s := NewMessageService(newSvcDB(t), q, nil, 0)
	s.now = stepClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), time.Second)
	return s, q
}

func TestMessageService_Send_BlankIsNoop(t *testing.T) {
	s, q := newMsgSvc(t)
	seedRelationship(t, s.DB, "rel", domain.AreaCommission, "a", "b")

	msg, err := s.Send(context.Background(), "rel", "a", "   \n\t ")
	if err != nil || msg != nil {
		t.Fatalf("blank send = %#v, %v", msg, err)
	}
	if n, _ := repo.CountMessages(context.Background(), s.DB, "rel"); n != 0 {
		t.Fatalf("blank send wrote %d messages", n)
	}
	if len(q.kinds()) != 0 {
		t.Fatalf("queued = %v", q.kinds())
	}
}

func TestMessageService_Send_Rejections(t *testing.T) {
	s, _ := newMsgSvc(t)
	ctx := context.Background()
	seedRelationship(t, s.DB, "rel", domain.AreaCommission, "a", "b")

	if _, err := s.Send(ctx, "missing", "a", "hi"); !errors.Is(err, ErrRelationshipNotFound) {
		t.Fatalf("want ErrRelationshipNotFound, got %v", err)
	}
	if _, err := s.Send(ctx, "rel", "stranger", "hi"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("want ErrNotParticipant, got %v", err)
	}

	s.MaxTextRunes = 5
	if _, err := s.Send(ctx, "rel", "a", "héllo!"); !errors.Is(err, ErrTooLong) {
		t.Fatalf("want ErrTooLong, got %v", err)
	}
	if _, err := s.Send(ctx, "rel", "a", "héllo"); err != nil {
		t.Fatalf("five runes should fit: %v", err)
	}
}

func TestMessageService_Send_TimestampsAreMonotonic(t *testing.T) {
	s, _ := newMsgSvc(t)
	ctx := context.Background()
	seedRelationship(t, s.DB, "rel", domain.AreaCommission, "a", "b")

	var last *domain.Message
	for i, text := range []string{"one", "two", "three"} {
		from := "a"
		if i%2 == 1 {
			from = "b"
		}
		m, err := s.Send(ctx, "rel", from, text)
		if err != nil {
			t.Fatalf("Send %q: %v", text, err)
		}
		last = m
	}

	rel, _ := repo.GetRelationship(ctx, s.DB, "rel")
	if rel.LastMessageAt == nil || !rel.LastMessageAt.Equal(last.CreatedAt) {
		t.Fatalf("relationship lastMessageAt = %v, want %v", rel.LastMessageAt, last.CreatedAt)
	}
	for _, uid := range []string{"a", "b"} {
		sm, err := repo.GetSummary(ctx, s.DB, uid, domain.AreaCommission, "rel")
		if err != nil {
			t.Fatalf("summary for %s: %v", uid, err)
		}
		if sm.LastMessageAt == nil || !sm.LastMessageAt.Equal(last.CreatedAt) {
			t.Fatalf("%s summary lastMessageAt = %v", uid, sm.LastMessageAt)
		}
		if sm.CounterpartID == uid || sm.CounterpartID == "" {
			t.Fatalf("%s counterpart = %q", uid, sm.CounterpartID)
		}
	}

	msgs, total, err := s.ListPage(ctx, "rel", "b", 1, 2)
	if err != nil || total != 3 || len(msgs) != 2 || msgs[0].Text != "one" {
		t.Fatalf("ListPage = %#v, %d, %v", msgs, total, err)
	}
}

func TestMessageService_Send_MirrorFailureIsQueued(t *testing.T) {
	s, q := newMsgSvc(t)
	ctx := context.Background()
	seedRelationship(t, s.DB, "rel", domain.AreaCommission, "a", "b")
	s.Summaries = flakySummaries{failTouchFor: map[string]bool{"b": true}}

	if _, err := s.Send(ctx, "rel", "a", "hello"); err != nil {
		t.Fatalf("mirror failure must not fail the send: %v", err)
	}
	if k := q.kinds(); len(k) != 1 || k[0] != KindMirrorTouch {
		t.Fatalf("queued = %v", k)
	}
	if p := q.items[0].Payload.(MirrorPayload); p.UserID != "b" || p.LastMessageAt == nil {
		t.Fatalf("payload = %#v", p)
	}
	if _, err := repo.GetSummary(ctx, s.DB, "a", domain.AreaCommission, "rel"); err != nil {
		t.Fatalf("sender's own mirror should be written: %v", err)
	}
}

func TestMessageService_Send_FanOutUsesCurrentParticipants(t *testing.T) {
	s, _ := newMsgSvc(t)
	ctx := context.Background()
	seedRelationship(t, s.DB, "rel", domain.AreaCommission, "a", "b")

	// "b" leaves while the message is being written.
	left := false
	err := s.DB.Callback().Create().After("gorm:create").Register("test:leave", func(d *gorm.DB) {
		if left || d.Statement.Table != "messages" {
			return
		}
		left = true
		if err := repo.SetParticipants(ctx, d.Session(&gorm.Session{NewDB: true}), "rel", []string{"a"}); err != nil {
			d.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := s.Send(ctx, "rel", "a", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !left {
		t.Fatalf("callback did not run")
	}
	if _, err := repo.GetSummary(ctx, s.DB, "a", domain.AreaCommission, "rel"); err != nil {
		t.Fatalf("sender mirror missing: %v", err)
	}
	if _, err := repo.GetSummary(ctx, s.DB, "b", domain.AreaCommission, "rel"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("departed user mirrored: %v", err)
	}
}

func TestMessageService_UpdateNarrationAndNotify(t *testing.T) {
	s, q := newMsgSvc(t)
	ctx := context.Background()
	seedRelationship(t, s.DB, "rel", domain.AreaBigGote, "gm", "hero")
	n := &fakeNotifier{}
	s.Notifier = n

	up, err := s.SendUpdate(ctx, "rel", "gm", "Session moved to Friday")
	if err != nil || up.Kind != domain.MessageKindUpdate {
		t.Fatalf("SendUpdate = %#v, %v", up, err)
	}
	nar, err := s.PostNarration(ctx, "rel", "The cave grows dark.")
	if err != nil || !nar.IsNarration() {
		t.Fatalf("PostNarration = %#v, %v", nar, err)
	}

	if len(n.sent) != 2 || !strings.Contains(n.sent[0], "update") || !strings.Contains(n.sent[1], "The cave grows dark.") {
		t.Fatalf("notifications = %#v", n.sent)
	}

	n.err = errInjected
	if _, err := s.Send(ctx, "rel", "hero", "hi"); err != nil {
		t.Fatalf("notify failure must not fail the send: %v", err)
	}
	if k := q.kinds(); len(k) != 1 || k[0] != KindNotify {
		t.Fatalf("queued = %v", k)
	}
}

func TestMessageService_ListPage_ParticipantsOnly(t *testing.T) {
	s, _ := newMsgSvc(t)
	seedRelationship(t, s.DB, "rel", domain.AreaCommission, "a", "b")

	if _, _, err := s.ListPage(context.Background(), "rel", "c", 1, 10); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("want ErrNotParticipant, got %v", err)
	}
	msgs, total, err := s.ListPage(context.Background(), "rel", "a", 1, 10)
	if err != nil || total != 0 || len(msgs) != 0 {
		t.Fatalf("empty list = %#v, %d, %v", msgs, total, err)
	}
}

func TestNotificationText_Truncates(t *testing.T) {
	rel := &domain.Relationship{ID: "r", Area: domain.AreaCC}
	msg := &domain.Message{SenderID: "u", Kind: domain.MessageKindMessage, Text: strings.Repeat("é", notifyPreviewRunes+10)}
	got := notificationText(rel, msg)
	if !strings.HasSuffix(got, "…") || strings.Count(got, "é") != notifyPreviewRunes {
		t.Fatalf("text = %q", got)
	}
}
