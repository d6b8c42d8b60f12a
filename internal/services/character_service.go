// Package services – CharacterService
//
// Character sub-documents of BigGote relationships: the immutable profile,
// the mutable state and the inventory. Profiles are written once through
// this service; only the turn merge changes them afterwards.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/repo"
)

// ProfileInput is the setup form of a character profile.
type ProfileInput struct {
	Name       string   `json:"name"`
	Age        string   `json:"age"`
	Height     string   `json:"height"`
	Weight     string   `json:"weight"`
	Build      string   `json:"build"`
	Weaknesses string   `json:"weaknesses"`
	Background string   `json:"background"`
	Tags       []string `json:"tags"`
}

// CharacterSheet is one participant's full character snapshot.
type CharacterSheet struct {
	UserID    string                   `json:"user_id"`
	Profile   *domain.CharacterProfile `json:"profile,omitempty"`
	State     *domain.CharacterState   `json:"state"`
	Inventory []domain.InventoryItem   `json:"inventory"`
}

// CharacterService manages profiles, states and inventories.
type CharacterService struct {
	DB *gorm.DB
}

// NewCharacterService constructs a CharacterService.
func NewCharacterService(db *gorm.DB) *CharacterService {
	return &CharacterService{DB: db}
}

// relationship loads relID and checks it is a BigGote relationship with
// callerID as a participant.
func (s *CharacterService) relationship(ctx context.Context, relID, callerID string) (*domain.Relationship, error) {
	rel, err := repo.GetRelationship(ctx, s.DB, relID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRelationshipNotFound
	}
	if err != nil {
		return nil, err
	}
	if !rel.HasParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	if rel.Area != domain.AreaBigGote {
		return nil, ErrWrongArea
	}
	return rel, nil
}

// CreateProfile stores the caller's profile. A second call returns
// ErrProfileImmutable.
func (s *CharacterService) CreateProfile(ctx context.Context, relID, userID string, in ProfileInput) (*domain.CharacterProfile, error) {
	tr := otel.Tracer("services/CharacterService")
	ctx, span := tr.Start(ctx, "CreateProfile",
		trace.WithAttributes(
			attribute.String("relationship.id", relID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := s.relationship(ctx, relID, userID); err != nil {
		return nil, err
	}
	p := &domain.CharacterProfile{
		RelationshipID: relID,
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		Age:            strings.TrimSpace(in.Age),
		Height:         strings.TrimSpace(in.Height),
		Weight:         strings.TrimSpace(in.Weight),
		Build:          domain.Build(strings.ToLower(strings.TrimSpace(in.Build))),
		Weaknesses:     in.Weaknesses,
		Background:     in.Background,
		Tags:           datatypes.JSONSlice[string](NormalizeList(in.Tags)),
	}
	if err := domain.Validate(p); err != nil {
		return nil, invalid("%v", err)
	}
	if err := repo.CreateProfile(ctx, s.DB, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrProfileImmutable
		}
		return nil, err
	}
	return p, nil
}

// GetProfile returns userID's profile in relID; callerID must participate.
func (s *CharacterService) GetProfile(ctx context.Context, relID, callerID, userID string) (*domain.CharacterProfile, error) {
	if _, err := s.relationship(ctx, relID, callerID); err != nil {
		return nil, err
	}
	p, err := repo.GetProfile(ctx, s.DB, relID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// GetState returns userID's state, or the default state when none is stored.
func (s *CharacterService) GetState(ctx context.Context, relID, callerID, userID string) (*domain.CharacterState, error) {
	if _, err := s.relationship(ctx, relID, callerID); err != nil {
		return nil, err
	}
	return repo.GetOrInitState(ctx, s.DB, relID, userID)
}

// PatchState applies p to the caller's own state. Unknown gauge labels are
// rejected.
func (s *CharacterService) PatchState(ctx context.Context, relID, userID string, p domain.StatePatch) (*domain.CharacterState, error) {
	if _, err := s.relationship(ctx, relID, userID); err != nil {
		return nil, err
	}
	st, err := repo.GetOrInitState(ctx, s.DB, relID, userID)
	if err != nil {
		return nil, err
	}
	if skipped := ApplyStatePatch(st, p); len(skipped) > 0 {
		return nil, invalid("unknown level for %s", strings.Join(skipped, ", "))
	}
	if err := repo.SaveState(ctx, s.DB, st); err != nil {
		return nil, err
	}
	return st, nil
}

// GetInventory returns userID's inventory in display order.
func (s *CharacterService) GetInventory(ctx context.Context, relID, callerID, userID string) ([]domain.InventoryItem, error) {
	if _, err := s.relationship(ctx, relID, callerID); err != nil {
		return nil, err
	}
	return repo.ListInventory(ctx, s.DB, relID, userID)
}

// PatchInventory applies p to the caller's own inventory.
func (s *CharacterService) PatchInventory(ctx context.Context, relID, userID string, p domain.InventoryPatch) ([]domain.InventoryItem, error) {
	if _, err := s.relationship(ctx, relID, userID); err != nil {
		return nil, err
	}
	return s.patchInventory(ctx, relID, userID, p)
}

// patchInventory reads, merges and rewrites inside one transaction.
func (s *CharacterService) patchInventory(ctx context.Context, relID, userID string, p domain.InventoryPatch) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.ListInventory(ctx, tx, relID, userID)
		if err != nil {
			return err
		}
		if err := repo.ReplaceInventory(ctx, tx, relID, userID, PatchInventory(cur, p)); err != nil {
			return err
		}
		out, err = repo.ListInventory(ctx, tx, relID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sheets returns the character sheet of every current participant.
func (s *CharacterService) Sheets(ctx context.Context, relID, callerID string) ([]CharacterSheet, error) {
	rel, err := s.relationship(ctx, relID, callerID)
	if err != nil {
		return nil, err
	}
	return s.sheets(ctx, rel)
}

func (s *CharacterService) sheets(ctx context.Context, rel *domain.Relationship) ([]CharacterSheet, error) {
	out := make([]CharacterSheet, 0, len(rel.Participants))
	for _, uid := range rel.Participants {
		sh := CharacterSheet{UserID: uid}
		p, err := repo.GetProfile(ctx, s.DB, rel.ID, uid)
		switch {
		case err == nil:
			sh.Profile = p
		case !errors.Is(err, repo.ErrNotFound):
			return nil, err
		}
		if sh.State, err = repo.GetOrInitState(ctx, s.DB, rel.ID, uid); err != nil {
			return nil, err
		}
		if sh.Inventory, err = repo.ListInventory(ctx, s.DB, rel.ID, uid); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, nil
}
