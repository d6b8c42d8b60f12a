// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the canonical
// Relationship documents.
//
// Functions:
//
//   - GetRelationship(ctx, db, id) -> *domain.Relationship, error
//   - UpsertRelationship(ctx, db, rel) -> *domain.Relationship, error
//     Create-or-merge; an existing row keeps its participants and creation time.
//   - SetParticipants(ctx, db, id, participants) -> error
//   - UpdateRelationshipFields(ctx, db, id, fields) -> error
//   - BumpLastMessageAt(ctx, db, id, at) -> (bool, error)
//     Monotonic: never moves the timestamp backwards.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// GetRelationship fetches a relationship by id, or ErrNotFound.
func GetRelationship(ctx context.Context, db *gorm.DB, id string) (*domain.Relationship, error) {
	var r domain.Relationship
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertRelationship creates rel, or merges it into an existing row with
// the same id. On merge the participant set and CreatedAt are left as
// stored; area, owner and client are filled in only where empty. The
// stored row is returned.
func UpsertRelationship(ctx context.Context, db *gorm.DB, rel *domain.Relationship) (*domain.Relationship, error) {
	var out *domain.Relationship
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := GetRelationship(ctx, tx, rel.ID)
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now().UTC()
			if rel.CreatedAt.IsZero() {
				rel.CreatedAt = now
			}
			rel.UpdatedAt = now
			if rel.Participants == nil {
				rel.Participants = datatypes.JSONSlice[string]{}
			}
			if err := tx.Create(rel).Error; err != nil {
				return err
			}
			out = rel
			return nil
		default:
			return err
		}

		fill := map[string]any{}
		if cur.Area == "" && rel.Area != "" {
			fill["area"] = rel.Area
		}
		if cur.OwnerID == "" && rel.OwnerID != "" {
			fill["owner_id"] = rel.OwnerID
		}
		if cur.ClientID == "" && rel.ClientID != "" {
			fill["client_id"] = rel.ClientID
		}
		if len(fill) > 0 {
			if err := tx.Model(&domain.Relationship{}).Where("id = ?", cur.ID).Updates(fill).Error; err != nil {
				return err
			}
			if err := tx.Where("id = ?", cur.ID).First(cur).Error; err != nil {
				return err
			}
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetParticipants rewrites the participant list of a relationship.
func SetParticipants(ctx context.Context, db *gorm.DB, id string, participants []string) error {
	res := db.WithContext(ctx).
		Model(&domain.Relationship{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"participants": datatypes.JSONSlice[string](participants),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRelationshipFields applies a column→value patch to a relationship.
func UpdateRelationshipFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Relationship{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpLastMessageAt advances last_message_at to at unless the stored value
// is already later. It reports whether the row changed.
func BumpLastMessageAt(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error) {
	changed := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r domain.Relationship
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			return err
		}
		if r.LastMessageAt != nil && !at.After(*r.LastMessageAt) {
			return nil
		}
		changed = true
		return tx.Model(&domain.Relationship{}).Where("id = ?", id).
			Updates(map[string]any{"last_message_at": at, "updated_at": time.Now().UTC()}).Error
	})
	return changed, err
}

// ListRelationships returns the relationships with the given ids.
func ListRelationships(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Relationship, error) {
	var out []domain.Relationship
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}
