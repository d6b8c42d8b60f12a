package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Outbox entry statuses.
const (
	OutboxPending = "pending"
	OutboxDead    = "dead"
)

// OutboxEntry is a queued best-effort write. Entries are deleted once their
// handler succeeds; after too many failures they are parked as dead.
type OutboxEntry struct {
	ID            string         `json:"id"              gorm:"type:char(36);primaryKey"`
	Kind          string         `json:"kind"            gorm:"type:varchar(64);not null"`
	Payload       datatypes.JSON `json:"payload"         gorm:"not null"`
	Attempts      int            `json:"attempts"        gorm:"not null;default:0"`
	Status        string         `json:"status"          gorm:"type:varchar(16);not null;default:'pending';index:idx_outbox_due,priority:1"`
	NextAttemptAt time.Time      `json:"next_attempt_at" gorm:"not null;index:idx_outbox_due,priority:2"`
	LastError     string         `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName returns the database table name for OutboxEntry.
func (OutboxEntry) TableName() string { return "outbox" }
