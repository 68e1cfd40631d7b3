package models

// PreferenceTag is what a staff member says about a single slot.
// An absent tag means the staff member is neutral about it.
type PreferenceTag string

const (
	TagPreferred   PreferenceTag = "preferred"
	TagUnavailable PreferenceTag = "unavailable"
)

// Valid reports whether t is one of the known tags
func (t PreferenceTag) Valid() bool {
	return t == TagPreferred || t == TagUnavailable
}

// Staff represents a person taking part in an allocation round
type Staff struct {
	ID   string `json:"id" binding:"required" validate:"required"`
	Name string `json:"name"`
}

// Slot represents a unit of work keyed by date and shift type
type Slot struct {
	Date  string `json:"date"`
	Shift string `json:"shift"`
}

// Key returns the composite key used in preference maps, e.g. "2025-12-24:morning"
func (s Slot) Key() string {
	return s.Date + ":" + s.Shift
}

// Preferences maps a slot key to the tag a staff member gave it
type Preferences map[string]PreferenceTag

// ConflictReason represents why a slot could not be filled
type ConflictReason struct {
	SlotKey string   `json:"slot_key"`
	Reasons []string `json:"reasons"`
}

// Allocation is the result of one allocation run
type Allocation struct {
	Assignments   map[string][]string `json:"assignments"` // staff ID -> slot keys in processing order
	Unassigned    []string            `json:"unassigned"`
	Conflicts     []ConflictReason    `json:"conflicts,omitempty"`
	FairnessScore float64             `json:"fairness_score"`
}

// AllocateInput is the data structure for the stateless allocation endpoint
type AllocateInput struct {
	Staff       []Staff                `json:"staff" binding:"required,dive"`
	Dates       []string               `json:"dates" binding:"required"`
	Shifts      []string               `json:"shifts" binding:"required"`
	Preferences map[string]Preferences `json:"preferences"`
}

// HolidayPeriod is a block of time off participants can ask for.
// Capacity 0 means any number of participants may take it.
type HolidayPeriod struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity" binding:"min=0"`
}

// HolidayInput is the data structure for the holiday balancing endpoint
type HolidayInput struct {
	Participants      []Staff                `json:"participants" binding:"required,dive"`
	Periods           []HolidayPeriod        `json:"periods" binding:"required,dive"`
	Preferences       map[string]Preferences `json:"preferences"`
	MaxPerParticipant int                    `json:"max_per_participant" binding:"min=0"`
}

// HolidayOutcome is the result of balancing holiday requests
type HolidayOutcome struct {
	Granted  map[string][]string `json:"granted"`  // participant ID -> period IDs
	Declined map[string][]string `json:"declined"` // participant ID -> period IDs asked for but not granted
	Unfilled []string            `json:"unfilled"` // periods with spare capacity
}
