package repo

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/masterworkhq/masterwork/internal/domain"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "masterwork.db")
	if db, err := OpenSQLite(path); err == nil || db != nil {
		t.Fatalf("OpenSQLite(%q) = %v, %v", path, db, err)
	}
}

func TestOpenSQLite_FileDatabase(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "masterwork.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	pragmas := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"foreign_keys": "1",
		"busy_timeout": "5000",
	}
	for name, want := range pragmas {
		var got string
		if err := db.Raw("PRAGMA " + name).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", name, err)
		}
		if strings.ToLower(got) != want {
			t.Errorf("PRAGMA %s = %q, want %q", name, got, want)
		}
	}
	if n := sqlDB.Stats().MaxOpenConnections; n != 10 {
		t.Errorf("MaxOpenConnections = %d", n)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range Models() {
		if !db.Migrator().HasTable(m) {
			t.Fatalf("no table for %T", m)
		}
	}

	// Messages reference their relationship.
	now := time.Now().UTC()
	rel := &domain.Relationship{ID: "cc_00000001", Area: domain.AreaCC, OwnerID: "o1", Participants: []string{"o1", "u1"}, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(rel).Error; err != nil {
		t.Fatalf("insert relationship: %v", err)
	}
	msg := func(id, relID string) *domain.Message {
		return &domain.Message{ID: id, RelationshipID: relID, SenderID: "u1", Kind: domain.MessageKindMessage, Text: "hi", CreatedAt: now}
	}
	if err := db.Create(msg("m1", rel.ID)).Error; err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if err := db.Create(msg("m2", "cc_missing")).Error; err == nil {
		t.Fatalf("message without relationship accepted")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{errors.New("constraint failed: UNIQUE constraint failed: invites.owner_id, invites.token (1555)"), true},
		{errors.New("constraint failed: PRIMARY KEY must be unique"), true},
		{errors.New("no such table: invites"), false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.err); got != tc.want {
			t.Errorf("isUniqueViolation(%v) = %v", tc.err, got)
		}
	}
}
