// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the outbox of
// pending best-effort writes.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// CreateOutbox queues a pending entry due at due.
func CreateOutbox(ctx context.Context, db *gorm.DB, kind string, payload []byte, due time.Time) (*domain.OutboxEntry, error) {
	now := time.Now().UTC()
	e := &domain.OutboxEntry{
		ID:            uuid.NewString(),
		Kind:          kind,
		Payload:       datatypes.JSON(payload),
		Status:        domain.OutboxPending,
		NextAttemptAt: due,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// ListDueOutbox returns up to limit pending entries due at or before now,
// oldest first.
func ListDueOutbox(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	var out []domain.OutboxEntry
	err := db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", domain.OutboxPending, now).
		Order("next_attempt_at ASC, created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteOutbox removes a processed entry.
func DeleteOutbox(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.OutboxEntry{}).Error
}

// RescheduleOutbox records a failed attempt. Status is pending (with a new
// due time) or dead.
func RescheduleOutbox(ctx context.Context, db *gorm.DB, id string, attempts int, next time.Time, status, lastErr string) error {
	return db.WithContext(ctx).
		Model(&domain.OutboxEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":        attempts,
			"next_attempt_at": next,
			"status":          status,
			"last_error":      lastErr,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// CountOutbox returns the number of entries in status.
func CountOutbox(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.OutboxEntry{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
