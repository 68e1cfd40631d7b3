package picker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/arnavshah/shift-picker-go/pkg/models"
	"github.com/arnavshah/shift-picker-go/pkg/scheduler"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidPicker      = errors.New("invalid picker")
	ErrPickerExpired      = errors.New("picker has expired")
	ErrPickerComplete     = errors.New("picker is already complete")
	ErrUnknownStaff       = errors.New("staff member is not part of this picker")
	ErrInvalidPreferences = errors.New("invalid preferences")
	ErrNotComplete        = errors.New("picker is not complete yet")
)

var validate = validator.New()

// Service runs the submission gate in front of the picker tables
type Service struct {
	DB         *gorm.DB
	Logger     *zap.Logger
	DefaultTTL time.Duration
	Now        func() time.Time
}

// NewService creates a picker service
func NewService(db *gorm.DB, logger *zap.Logger, defaultTTL time.Duration) *Service {
	return &Service{
		DB:         db,
		Logger:     logger,
		DefaultTTL: defaultTTL,
		Now:        time.Now,
	}
}

// SubmitResult tells the caller where the round stands after a submission.
// Allocated is true only for the submission whose request ran the allocation.
type SubmitResult struct {
	IsComplete bool
	Allocated  bool
}

// View is what staff see of a picker, together with who has submitted so far.
// Admin bookkeeping such as CreatedBy stays off it.
type View struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Shifts         []string           `json:"shifts"`
	Dates          []string           `json:"dates"`
	Staff          []models.Staff     `json:"staff"`
	Slots          []models.Slot      `json:"slots"`
	ExpiresAt      time.Time          `json:"expires_at"`
	Expired        bool               `json:"expired"`
	IsComplete     bool               `json:"is_complete"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	Allocation     *models.Allocation `json:"allocation,omitempty"`
	SubmittedStaff []string           `json:"submitted_staff"`
}

// Create validates the input, resolves its dates and stores a new picker
func (s *Service) Create(ctx context.Context, in CreateInput, createdBy string) (*database.Picker, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPicker, err)
	}

	dates, err := in.ResolveDates()
	if err != nil {
		return nil, err
	}
	if err := unique("date", dates); err != nil {
		return nil, err
	}
	if err := unique("shift", in.Shifts); err != nil {
		return nil, err
	}
	ids := make([]string, len(in.Staff))
	for i, st := range in.Staff {
		ids[i] = st.ID
	}
	if err := unique("staff id", ids); err != nil {
		return nil, err
	}

	now := s.Now()
	expiresAt := now.Add(s.DefaultTTL)
	if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(now) {
			return nil, fmt.Errorf("%w: expiresAt must be in the future", ErrInvalidPicker)
		}
		expiresAt = *in.ExpiresAt
	}

	p := &database.Picker{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Shifts:    in.Shifts,
		Dates:     dates,
		Staff:     in.Staff,
		ExpiresAt: expiresAt.UTC(),
		CreatedBy: createdBy,
	}
	if err := database.CreatePicker(ctx, s.DB, p); err != nil {
		return nil, err
	}

	s.Logger.Info("picker created",
		zap.String("picker_id", p.ID),
		zap.Int("staff", len(p.Staff)),
		zap.Int("slots", len(p.Dates)*len(p.Shifts)),
		zap.Time("expires_at", p.ExpiresAt))
	return p, nil
}

// Get returns the picker with its submission status
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	p, err := database.GetPicker(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	subs, err := database.ListSubmissions(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	submitted := make([]string, len(subs))
	for i, sub := range subs {
		submitted[i] = sub.StaffID
	}
	return &View{
		ID:             p.ID,
		Name:           p.Name,
		Shifts:         p.Shifts,
		Dates:          p.Dates,
		Staff:          p.Staff,
		Slots:          scheduler.EnumerateSlots(p.Dates, p.Shifts),
		ExpiresAt:      p.ExpiresAt,
		Expired:        p.Expired(s.Now()),
		IsComplete:     p.IsComplete,
		CompletedAt:    p.CompletedAt,
		Allocation:     p.Allocation,
		SubmittedStaff: submitted,
	}, nil
}

// List returns recent pickers
func (s *Service) List(ctx context.Context, limit int) ([]database.Picker, error) {
	return database.ListPickers(ctx, s.DB, limit)
}

// Submit records one staff member's preferences. When that was the last
// outstanding submission the allocation runs and the picker is closed.
func (s *Service) Submit(ctx context.Context, pickerID, staffID string, prefs models.Preferences) (SubmitResult, error) {
	p, err := database.GetPicker(ctx, s.DB, pickerID)
	if err != nil {
		return SubmitResult{}, err
	}
	if p.IsComplete {
		return SubmitResult{}, ErrPickerComplete
	}
	now := s.Now()
	if p.Expired(now) {
		return SubmitResult{}, ErrPickerExpired
	}
	if !p.HasStaff(staffID) {
		return SubmitResult{}, ErrUnknownStaff
	}
	if err := validatePreferences(p, prefs); err != nil {
		return SubmitResult{}, err
	}

	if prefs == nil {
		prefs = models.Preferences{}
	}
	sub := &database.Submission{
		PickerID:    p.ID,
		StaffID:     staffID,
		Preferences: prefs,
		SubmittedAt: now,
	}
	if err := database.InsertSubmission(ctx, s.DB, sub); err != nil {
		return SubmitResult{}, err
	}
	s.Logger.Info("preferences submitted",
		zap.String("picker_id", p.ID),
		zap.String("staff_id", staffID),
		zap.Int("tags", len(prefs)))

	return s.completeIfReady(ctx, p)
}

func (s *Service) completeIfReady(ctx context.Context, p *database.Picker) (SubmitResult, error) {
	subs, err := database.ListSubmissions(ctx, s.DB, p.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	if len(subs) < len(p.Staff) {
		return SubmitResult{}, nil
	}

	prefs := make(map[string]models.Preferences, len(subs))
	for _, sub := range subs {
		prefs[sub.StaffID] = sub.Preferences
	}

	sched := scheduler.NewScheduler(p.Staff, scheduler.EnumerateSlots(p.Dates, p.Shifts), prefs)
	alloc := sched.Assign()

	won, err := database.MarkComplete(ctx, s.DB, p.ID, &alloc, s.Now())
	if err != nil {
		return SubmitResult{}, err
	}
	if won {
		s.Logger.Info("picker allocated",
			zap.String("picker_id", p.ID),
			zap.Int("unassigned", len(alloc.Unassigned)),
			zap.Float64("fairness_score", alloc.FairnessScore))
	} else {
		s.Logger.Debug("picker already completed by a concurrent submission", zap.String("picker_id", p.ID))
	}
	return SubmitResult{IsComplete: true, Allocated: won}, nil
}

func validatePreferences(p *database.Picker, prefs models.Preferences) error {
	keys := make(map[string]bool, len(p.Dates)*len(p.Shifts))
	for _, sl := range scheduler.EnumerateSlots(p.Dates, p.Shifts) {
		keys[sl.Key()] = true
	}
	for key, tag := range prefs {
		if !keys[key] {
			return fmt.Errorf("%w: unknown slot %q", ErrInvalidPreferences, key)
		}
		if !tag.Valid() {
			return fmt.Errorf("%w: unknown tag %q for slot %q", ErrInvalidPreferences, tag, key)
		}
	}
	return nil
}

func unique(what string, values []string) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return fmt.Errorf("%w: duplicate %s %q", ErrInvalidPicker, what, v)
		}
		seen[v] = true
	}
	return nil
}
