// Package services – TurnService
//
// FinishTurn runs one BigGote narrator turn: it assembles the relationship's
// context, asks the chat-completion backend for the next beat, applies the
// structured actions in the reply to each participant's character documents
// and posts the narration as a narrator message. Each action target is
// applied on its own; a failure is logged and counted and never blocks the
// other targets or the narration.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/ai"
	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/observability"
	"github.com/masterworkhq/masterwork/internal/repo"
)

// Completer is the chat-completion backend.
type Completer interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// TurnService runs narrator turns.
type TurnService struct {
	DB         *gorm.DB
	AI         Completer
	Messages   *MessageService
	Characters *CharacterService

	// HistoryLimit is how many recent messages go into the context.
	HistoryLimit int
}

// NewTurnService constructs a TurnService.
func NewTurnService(db *gorm.DB, c Completer, messages *MessageService, chars *CharacterService, historyLimit int) *TurnService {
	if historyLimit <= 0 {
		historyLimit = 30
	}
	return &TurnService{DB: db, AI: c, Messages: messages, Characters: chars, HistoryLimit: historyLimit}
}

// TurnResult is the posted narration and what was applied.
type TurnResult struct {
	Message    *domain.Message `json:"message"`
	Structured bool            `json:"structured"`
	Applied    []string        `json:"applied"`
	Failed     []string        `json:"failed"`
}

// turnContext is the user message sent with TurnInstruction.
type turnContext struct {
	Scene            string           `json:"scene"`
	BehaviorGuidance string           `json:"behavior_guidance"`
	RequestedBy      string           `json:"requested_by"`
	Characters       []CharacterSheet `json:"characters"`
	History          []historyLine    `json:"history"`
}

type historyLine struct {
	From string `json:"from"`
	Kind string `json:"kind,omitempty"`
	Text string `json:"text"`
}

// FinishTurn asks the narrator for the next turn of relID on behalf of
// userID.
func (s *TurnService) FinishTurn(ctx context.Context, relID, userID string) (*TurnResult, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "FinishTurn",
		trace.WithAttributes(
			attribute.String("relationship.id", relID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	rel, err := s.Characters.relationship(ctx, relID, userID)
	if err != nil {
		return nil, err
	}
	prompt, err := s.buildContext(ctx, rel, userID)
	if err != nil {
		return nil, err
	}

	raw, err := s.AI.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: ai.TurnInstruction},
		{Role: ai.RoleUser, Content: prompt},
	})
	if err != nil {
		observability.TurnOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	turn, structured := ai.ParseTurn(raw)
	res := &TurnResult{Structured: structured, Applied: []string{}, Failed: []string{}}
	if structured {
		observability.TurnOutcomes.WithLabelValues("structured").Inc()
		s.apply(ctx, rel, turn, res)
	} else {
		observability.TurnOutcomes.WithLabelValues("fallback").Inc()
	}

	msg, err := s.Messages.PostNarration(ctx, relID, turn.Narrator)
	if err != nil {
		return nil, err
	}
	res.Message = msg
	return res, nil
}

func (s *TurnService) buildContext(ctx context.Context, rel *domain.Relationship, userID string) (string, error) {
	sheets, err := s.Characters.sheets(ctx, rel)
	if err != nil {
		return "", err
	}
	recent, err := repo.ListRecentMessages(ctx, s.DB, rel.ID, s.HistoryLimit)
	if err != nil {
		return "", err
	}
	hist := make([]historyLine, 0, len(recent))
	for _, m := range recent {
		hl := historyLine{From: m.SenderID, Text: m.Text}
		if m.Kind == domain.MessageKindUpdate {
			hl.Kind = m.Kind
		}
		hist = append(hist, hl)
	}
	b, err := json.Marshal(turnContext{
		Scene:            rel.Scene,
		BehaviorGuidance: rel.BehaviorGuidance,
		RequestedBy:      userID,
		Characters:       sheets,
		History:          hist,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// apply runs every action target independently. Targets for users that are
// not participants are ignored; entries that did not decode count as failed.
func (s *TurnService) apply(ctx context.Context, rel *domain.Relationship, turn ai.Turn, res *TurnResult) {
	lg := log.Ctx(ctx).With().Str("relationship_id", rel.ID).Logger()
	record := func(target, uid string, err error) {
		name := target + ":" + uid
		if err == nil {
			res.Applied = append(res.Applied, name)
			return
		}
		res.Failed = append(res.Failed, name)
		observability.MergeFailures.WithLabelValues(target).Inc()
		lg.Warn().Err(err).Str("target", target).Str("user_id", uid).Msg("turn action not applied")
	}

	for _, rj := range turn.Rejected {
		if rj.UserID != "*" && !rel.HasParticipant(rj.UserID) {
			continue
		}
		record(rj.Target, rj.UserID, invalid("malformed action: %v", rj.Err))
	}
	if turn.Actions == nil {
		return
	}
	acts := *turn.Actions

	for uid, p := range acts.Profiles {
		if !rel.HasParticipant(uid) {
			continue
		}
		record(ai.TargetProfile, uid, s.applyProfile(ctx, rel.ID, uid, p))
	}
	for uid, p := range acts.Inventories {
		if !rel.HasParticipant(uid) || p.Empty() {
			continue
		}
		_, err := s.Characters.patchInventory(ctx, rel.ID, uid, p)
		record(ai.TargetInventory, uid, err)
	}
	for uid, p := range acts.States {
		if !rel.HasParticipant(uid) {
			continue
		}
		record(ai.TargetState, uid, s.applyState(ctx, rel.ID, uid, p))
	}
}

func (s *TurnService) applyProfile(ctx context.Context, relID, uid string, p domain.ProfilePatch) error {
	fields, skipped := ProfileFields(p)
	if err := repo.PatchProfile(ctx, s.DB, relID, uid, fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	if len(skipped) > 0 {
		return invalid("skipped %v", skipped)
	}
	return nil
}

func (s *TurnService) applyState(ctx context.Context, relID, uid string, p domain.StatePatch) error {
	st, err := repo.GetOrInitState(ctx, s.DB, relID, uid)
	if err != nil {
		return err
	}
	skipped := ApplyStatePatch(st, p)
	if err := repo.SaveState(ctx, s.DB, st); err != nil {
		return err
	}
	if len(skipped) > 0 {
		return invalid("skipped %v", skipped)
	}
	return nil
}
