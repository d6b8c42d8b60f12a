// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for user
// profiles and push tokens.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// GetUserProfile fetches a profile, or ErrNotFound.
func GetUserProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindUserProfileByDiscordID returns the profile linked to a Discord account.
func FindUserProfileByDiscordID(ctx context.Context, db *gorm.DB, discordID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("discord_id = ?", discordID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertUserProfile creates the profile or overwrites the given columns.
// When the profile is created, columns not listed keep their zero values.
func UpsertUserProfile(ctx context.Context, db *gorm.DB, p *domain.UserProfile, columns ...string) error {
	now := time.Now().UTC()
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Roles == nil {
		p.Roles = datatypes.JSONSlice[string]{}
	}
	if p.Access == nil {
		p.Access = datatypes.JSONSlice[string]{}
	}
	cols := append([]string{"updated_at"}, columns...)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(p).Error
}

// AddAccess adds flag to the user's access list, creating the profile when
// it does not exist yet. Adding an existing flag is a no-op.
func AddAccess(ctx context.Context, db *gorm.DB, userID, flag string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := GetUserProfile(ctx, tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UpsertUserProfile(ctx, tx, &domain.UserProfile{
				UserID: userID,
				Access: datatypes.JSONSlice[string]{flag},
			})
		}
		if err != nil {
			return err
		}
		if p.HasAccess(flag) {
			return nil
		}
		access := append(datatypes.JSONSlice[string]{}, p.Access...)
		access = append(access, flag)
		return tx.Model(&domain.UserProfile{}).Where("user_id = ?", userID).
			Updates(map[string]any{"access": access, "updated_at": time.Now().UTC()}).Error
	})
}

// UpsertPushToken stores (or refreshes) a push token for the user.
func UpsertPushToken(ctx context.Context, db *gorm.DB, userID, token, platform string) (*domain.PushToken, error) {
	now := time.Now().UTC()
	pt := &domain.PushToken{UserID: userID, Token: token, Platform: platform, CreatedAt: now, UpdatedAt: now}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"platform", "updated_at"}),
		}).
		Create(pt).Error
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// ListPushTokens returns every registered push token of a user.
func ListPushTokens(ctx context.Context, db *gorm.DB, userID string) ([]domain.PushToken, error) {
	var out []domain.PushToken
	err := db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error
	return out, err
}
