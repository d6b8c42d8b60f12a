// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-user
// mirror summaries and the cc link-mirror records.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/masterworkhq/masterwork/internal/domain"
)

// UpsertSummary creates or refreshes a mirror summary. Counterpart and
// label are overwritten; LastReadAt is preserved and LastMessageAt only
// moves forward.
func UpsertSummary(ctx context.Context, db *gorm.DB, s *domain.Summary) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Summary
		err := tx.Where("user_id = ? AND area = ? AND relationship_id = ?", s.UserID, s.Area, s.RelationshipID).
			First(&cur).Error
		now := time.Now().UTC()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.CreatedAt, s.UpdatedAt = now, now
			return tx.Create(s).Error
		}
		if err != nil {
			return err
		}
		fields := map[string]any{
			"counterpart_id": s.CounterpartID,
			"label":          s.Label,
			"updated_at":     now,
		}
		if s.LastMessageAt != nil && (cur.LastMessageAt == nil || s.LastMessageAt.After(*cur.LastMessageAt)) {
			fields["last_message_at"] = *s.LastMessageAt
		}
		return tx.Model(&domain.Summary{}).
			Where("user_id = ? AND area = ? AND relationship_id = ?", s.UserID, s.Area, s.RelationshipID).
			Updates(fields).Error
	})
}

// TouchSummary advances last_message_at of an existing summary. A missing
// summary returns ErrNotFound so the caller can decide whether to create it.
func TouchSummary(ctx context.Context, db *gorm.DB, userID, area, relID string, at time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Summary
		if err := tx.Where("user_id = ? AND area = ? AND relationship_id = ?", userID, area, relID).
			First(&cur).Error; err != nil {
			return err
		}
		if cur.LastMessageAt != nil && !at.After(*cur.LastMessageAt) {
			return nil
		}
		return tx.Model(&domain.Summary{}).
			Where("user_id = ? AND area = ? AND relationship_id = ?", userID, area, relID).
			Updates(map[string]any{"last_message_at": at, "updated_at": time.Now().UTC()}).Error
	})
}

// MarkSummaryRead sets last_read_at on the caller's own summary.
func MarkSummaryRead(ctx context.Context, db *gorm.DB, userID, area, relID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Summary{}).
		Where("user_id = ? AND area = ? AND relationship_id = ?", userID, area, relID).
		Updates(map[string]any{"last_read_at": at, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSummary fetches one summary, or ErrNotFound.
func GetSummary(ctx context.Context, db *gorm.DB, userID, area, relID string) (*domain.Summary, error) {
	var s domain.Summary
	err := db.WithContext(ctx).
		Where("user_id = ? AND area = ? AND relationship_id = ?", userID, area, relID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSummary removes a summary. Deleting a missing summary is not an error.
func DeleteSummary(ctx context.Context, db *gorm.DB, userID, area, relID string) error {
	return db.WithContext(ctx).
		Where("user_id = ? AND area = ? AND relationship_id = ?", userID, area, relID).
		Delete(&domain.Summary{}).Error
}

// CountSummaries returns how many summaries userID has in area.
func CountSummaries(ctx context.Context, db *gorm.DB, userID, area string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Summary{}).
		Where("user_id = ? AND area = ?", userID, area).
		Count(&total).Error
	return total, err
}

// ListSummariesPage returns a page of userID's summaries in area, most
// recently active first.
func ListSummariesPage(ctx context.Context, db *gorm.DB, userID, area string, offset, limit int) ([]domain.Summary, error) {
	var out []domain.Summary
	err := db.WithContext(ctx).
		Where("user_id = ? AND area = ?", userID, area).
		Order("last_message_at desc, created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpsertLink writes a link-mirror record; an existing one is replaced.
func UpsertLink(ctx context.Context, db *gorm.DB, l *domain.Link) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "client_id"}, {Name: "relationship_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "counterpart_id"}),
		}).
		Create(l).Error
}

// DeleteLink removes a link-mirror record. A missing record is not an error.
func DeleteLink(ctx context.Context, db *gorm.DB, userID, clientID, relID string) error {
	return db.WithContext(ctx).
		Where("user_id = ? AND client_id = ? AND relationship_id = ?", userID, clientID, relID).
		Delete(&domain.Link{}).Error
}

// ListLinks returns userID's link-mirror records.
func ListLinks(ctx context.Context, db *gorm.DB, userID string) ([]domain.Link, error) {
	var out []domain.Link
	err := db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	return out, err
}
