package testutils

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/arnavshah/shift-picker-go/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database private to the test
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := database.Open("", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewPicker returns an unsaved picker with two staff and a 2x2 slot grid
// expiring a day after now.
func NewPicker(now time.Time) *database.Picker {
	return &database.Picker{
		ID:     uuid.NewString(),
		Name:   "Test round",
		Shifts: []string{"morning", "evening"},
		Dates:  []string{"2025-01-06", "2025-01-07"},
		Staff: []models.Staff{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob"},
		},
		ExpiresAt: now.Add(24 * time.Hour),
	}
}
