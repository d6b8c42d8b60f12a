// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for character
// profiles, character states and inventories.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// CreateProfile inserts a character profile. A second profile for the same
// (relationship, user) yields ErrDuplicate.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.CharacterProfile) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetProfile fetches a character profile, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, relID, userID string) (*domain.CharacterProfile, error) {
	var p domain.CharacterProfile
	err := db.WithContext(ctx).
		Where("relationship_id = ? AND user_id = ?", relID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PatchProfile updates columns of an existing profile.
func PatchProfile(ctx context.Context, db *gorm.DB, relID, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.CharacterProfile{}).
		Where("relationship_id = ? AND user_id = ?", relID, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetState fetches a character state, or ErrNotFound.
func GetState(ctx context.Context, db *gorm.DB, relID, userID string) (*domain.CharacterState, error) {
	var s domain.CharacterState
	err := db.WithContext(ctx).
		Where("relationship_id = ? AND user_id = ?", relID, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOrInitState returns the stored state or a fresh default one (unsaved).
func GetOrInitState(ctx context.Context, db *gorm.DB, relID, userID string) (*domain.CharacterState, error) {
	s, err := GetState(ctx, db, relID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st := domain.NewCharacterState(relID, userID)
		return &st, nil
	}
	return s, err
}

// SaveState upserts a whole character state.
func SaveState(ctx context.Context, db *gorm.DB, s *domain.CharacterState) error {
	s.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "relationship_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hunger", "thirst", "oxygen", "status", "clothing", "accessories", "updated_at"}),
		}).
		Create(s).Error
}

// ListInventory returns a user's inventory in display order.
func ListInventory(ctx context.Context, db *gorm.DB, relID, userID string) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	err := db.WithContext(ctx).
		Where("relationship_id = ? AND user_id = ?", relID, userID).
		Order("position ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

// ReplaceInventory atomically replaces a user's inventory with items. Items
// without an id get one; positions follow slice order.
func ReplaceInventory(ctx context.Context, db *gorm.DB, relID, userID string, items []domain.InventoryItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("relationship_id = ? AND user_id = ?", relID, userID).
			Delete(&domain.InventoryItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		now := time.Now().UTC()
		rows := make([]domain.InventoryItem, len(items))
		for i, it := range items {
			it.RelationshipID, it.UserID, it.Position = relID, userID, i
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			if it.CreatedAt.IsZero() {
				it.CreatedAt = now
			}
			it.UpdatedAt = now
			rows[i] = it
		}
		return tx.Create(&rows).Error
	})
}
