package database

import (
	"fmt"
	"time"

	"github.com/arnavshah/shift-picker-go/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Picker represents the pickers table: one allocation round
type Picker struct {
	ID          string             `gorm:"primaryKey;size:36" json:"id"`
	Name        string             `gorm:"not null" json:"name"`
	Shifts      []string           `gorm:"serializer:json;not null" json:"shifts"`
	Dates       []string           `gorm:"serializer:json;not null" json:"dates"`
	Staff       []models.Staff     `gorm:"serializer:json;not null" json:"staff"`
	ExpiresAt   time.Time          `gorm:"not null;index" json:"expires_at"`
	IsComplete  bool               `gorm:"not null;default:false" json:"is_complete"`
	Allocation  *models.Allocation `gorm:"serializer:json" json:"allocation,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedBy   string             `json:"created_by,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Expired reports whether submissions are closed at now
func (p *Picker) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// HasStaff reports whether staffID takes part in the round
func (p *Picker) HasStaff(staffID string) bool {
	for _, s := range p.Staff {
		if s.ID == staffID {
			return true
		}
	}
	return false
}

// Submission represents the submissions table. The unique index is what stops
// a staff member from submitting twice.
type Submission struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	PickerID    string             `gorm:"size:36;uniqueIndex:idx_picker_staff;not null" json:"picker_id"`
	StaffID     string             `gorm:"uniqueIndex:idx_picker_staff;not null" json:"staff_id"`
	Preferences models.Preferences `gorm:"serializer:json" json:"preferences"`
	SubmittedAt time.Time          `gorm:"not null" json:"submitted_at"`
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalSlots   int    `gorm:"default:0" json:"total_slots"`
	TotalStaff   int    `gorm:"default:0" json:"total_staff"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open connects to Postgres when dsn is set, otherwise to the SQLite file at
// dataPath, and migrates the schema.
func Open(dsn, dataPath string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	if dsn != "" {
		cfg.PrepareStmt = false
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	} else {
		dialector = sqlite.Open(dataPath)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if dsn == "" {
		// SQLite allows a single writer; serialise through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates all tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Picker{}, &Submission{}, &APIKey{}, &APIUsage{}, &MasterUser{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
