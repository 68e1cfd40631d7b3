package scheduler

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/arnavshah/shift-picker-go/pkg/models"
)

// Scheduler handles the logic of assigning slots to staff
type Scheduler struct {
	Staff       []models.Staff
	Slots       []models.Slot
	Preferences map[string]models.Preferences
	Counts      map[string]int
	Conflicts   []models.ConflictReason
}

// NewScheduler creates a new scheduler instance
func NewScheduler(staff []models.Staff, slots []models.Slot, preferences map[string]models.Preferences) *Scheduler {
	if preferences == nil {
		preferences = map[string]models.Preferences{}
	}
	return &Scheduler{
		Staff:       staff,
		Slots:       slots,
		Preferences: preferences,
		Counts:      make(map[string]int, len(staff)),
	}
}

// EnumerateSlots builds the slot grid, dates outer and shifts inner
func EnumerateSlots(dates, shifts []string) []models.Slot {
	slots := make([]models.Slot, 0, len(dates)*len(shifts))
	for _, d := range dates {
		for _, sh := range shifts {
			slots = append(slots, models.Slot{Date: d, Shift: sh})
		}
	}
	return slots
}

func (s *Scheduler) tag(staffID, slotKey string) models.PreferenceTag {
	return s.Preferences[staffID][slotKey]
}

// PreferredCount returns how many staff marked the slot as preferred
func (s *Scheduler) PreferredCount(slotKey string) int {
	n := 0
	for _, st := range s.Staff {
		if s.tag(st.ID, slotKey) == models.TagPreferred {
			n++
		}
	}
	return n
}

// Assign runs a single greedy pass. Least popular slots go first; each slot
// goes to a staff member who preferred it, falling back to whoever holds the
// fewest slots so far. Ties keep input order, so the result is deterministic.
func (s *Scheduler) Assign() models.Allocation {
	type pending struct {
		slot      models.Slot
		key       string
		preferred int
	}

	queue := make([]pending, len(s.Slots))
	for i, sl := range s.Slots {
		key := sl.Key()
		queue[i] = pending{slot: sl, key: key, preferred: s.PreferredCount(key)}
	}
	slices.SortStableFunc(queue, func(a, b pending) int {
		return cmp.Compare(a.preferred, b.preferred)
	})

	out := models.Allocation{
		Assignments: make(map[string][]string, len(s.Staff)),
		Unassigned:  []string{},
	}
	for _, st := range s.Staff {
		out.Assignments[st.ID] = []string{}
	}

	for _, p := range queue {
		var eligible []models.Staff
		unavailable := 0
		for _, st := range s.Staff {
			if s.tag(st.ID, p.key) == models.TagUnavailable {
				unavailable++
				continue
			}
			eligible = append(eligible, st)
		}

		if len(eligible) == 0 {
			out.Unassigned = append(out.Unassigned, p.key)
			reason := "no staff in this round"
			if unavailable > 0 {
				reason = fmt.Sprintf("%d staff marked the slot unavailable", unavailable)
			}
			s.Conflicts = append(s.Conflicts, models.ConflictReason{
				SlotKey: p.key,
				Reasons: []string{reason},
			})
			continue
		}

		slices.SortStableFunc(eligible, func(a, b models.Staff) int {
			ap := s.tag(a.ID, p.key) == models.TagPreferred
			bp := s.tag(b.ID, p.key) == models.TagPreferred
			if ap != bp {
				if ap {
					return -1
				}
				return 1
			}
			return cmp.Compare(s.Counts[a.ID], s.Counts[b.ID])
		})

		best := eligible[0]
		out.Assignments[best.ID] = append(out.Assignments[best.ID], p.key)
		s.Counts[best.ID]++
	}

	out.Conflicts = s.Conflicts
	out.FairnessScore = s.CalculateFairnessScore()
	return out
}

// CalculateFairnessScore returns a percentage (0-100) representing how evenly
// slots are distributed. 100% is perfectly fair (Standard Deviation = 0).
func (s *Scheduler) CalculateFairnessScore() float64 {
	if len(s.Staff) == 0 {
		return 100.0
	}

	var sum float64
	for _, st := range s.Staff {
		sum += float64(s.Counts[st.ID])
	}

	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(s.Staff))

	var varianceSum float64
	for _, st := range s.Staff {
		diff := float64(s.Counts[st.ID]) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(s.Staff)))

	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
