package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/shift-picker-go/pkg/models"
	"gorm.io/gorm"
)

var (
	ErrPickerNotFound   = errors.New("picker not found")
	ErrAlreadySubmitted = errors.New("preferences already submitted")
)

// CreatePicker inserts a new picker row
func CreatePicker(ctx context.Context, db *gorm.DB, p *Picker) error {
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create picker: %w", err)
	}
	return nil
}

// GetPicker loads a picker by ID
func GetPicker(ctx context.Context, db *gorm.DB, id string) (*Picker, error) {
	var p Picker
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPickerNotFound
		}
		return nil, fmt.Errorf("get picker: %w", err)
	}
	return &p, nil
}

// ListPickers returns the most recent pickers first
func ListPickers(ctx context.Context, db *gorm.DB, limit int) ([]Picker, error) {
	var pickers []Picker
	if err := db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&pickers).Error; err != nil {
		return nil, fmt.Errorf("list pickers: %w", err)
	}
	return pickers, nil
}

// InsertSubmission stores a staff member's preferences. A second submission for
// the same picker and staff member fails with ErrAlreadySubmitted.
func InsertSubmission(ctx context.Context, db *gorm.DB, s *Submission) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Submission{}).
			Where("picker_id = ? AND staff_id = ?", s.PickerID, s.StaffID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadySubmitted
		}
		return tx.Create(s).Error
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAlreadySubmitted), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadySubmitted
	default:
		return fmt.Errorf("insert submission: %w", err)
	}
}

// ListSubmissions returns a picker's submissions in arrival order
func ListSubmissions(ctx context.Context, db *gorm.DB, pickerID string) ([]Submission, error) {
	var subs []Submission
	if err := db.WithContext(ctx).Where("picker_id = ?", pickerID).Order("id asc").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// MarkComplete stores the allocation and flips the completion flag, but only
// if the picker is not complete yet. It returns true for the single caller
// whose update took effect.
func MarkComplete(ctx context.Context, db *gorm.DB, pickerID string, alloc *models.Allocation, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Model(&Picker{}).
		Where("id = ? AND is_complete = ?", pickerID, false).
		Updates(Picker{IsComplete: true, Allocation: alloc, CompletedAt: &at})
	if res.Error != nil {
		return false, fmt.Errorf("mark picker complete: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
