// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for invites.
//
// Invites are keyed by (owner_id, token). Status changes are conditional
// updates guarded on status = 'active' so a stale reader can never move an
// invite backwards or consume it twice.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// CreateInvite inserts inv. A duplicate (owner, token) yields ErrDuplicate.
func CreateInvite(ctx context.Context, db *gorm.DB, inv *domain.Invite) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(inv).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetInvite fetches one invite by owner and token, or ErrNotFound.
func GetInvite(ctx context.Context, db *gorm.DB, ownerID, token string) (*domain.Invite, error) {
	var inv domain.Invite
	err := db.WithContext(ctx).
		Where("owner_id = ? AND token = ?", ownerID, token).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvites returns the owner's invites, newest first, optionally
// restricted to one area.
func ListInvites(ctx context.Context, db *gorm.DB, ownerID, area string) ([]domain.Invite, error) {
	var out []domain.Invite
	q := db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if area != "" {
		q = q.Where("area = ?", area)
	}
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// ConsumeInvite marks an active invite used by userID. It returns ErrStale
// when the invite is no longer active (already consumed or revoked).
func ConsumeInvite(ctx context.Context, db *gorm.DB, ownerID, token, userID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Invite{}).
		Where("owner_id = ? AND token = ? AND status = ?", ownerID, token, domain.InviteActive).
		Updates(map[string]any{
			"status":  domain.InviteUsed,
			"used_at": at,
			"used_by": userID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// RevokeInvite moves an active invite to revoked, or returns ErrStale.
func RevokeInvite(ctx context.Context, db *gorm.DB, ownerID, token string) error {
	res := db.WithContext(ctx).
		Model(&domain.Invite{}).
		Where("owner_id = ? AND token = ? AND status = ?", ownerID, token, domain.InviteActive).
		Update("status", domain.InviteRevoked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
