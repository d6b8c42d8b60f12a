package domain

import "time"

// Idempotency records the outcome of an already-processed message post,
// keyed by (user_id, relationship_id, key). A retried request carrying the
// same Idempotency-Key replays the stored message instead of appending a
// duplicate.
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_rel_key,priority:1"`
	RelationshipID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_rel_key,priority:2"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_rel_key,priority:3"`
	MessageID      string    `gorm:"type:TEXT NOT NULL"`
	Status         int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
