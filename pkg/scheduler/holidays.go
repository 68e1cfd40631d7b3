package scheduler

import (
	"cmp"
	"slices"

	"github.com/arnavshah/shift-picker-go/pkg/models"
)

// BalanceHolidayAssignments grants holiday periods to the participants who asked
// for them. Periods with the fewest requests are settled first, and within a
// period participants holding the fewest grants so far win. Preferences are
// keyed by period ID. capacity and maxPerParticipant of 0 mean unlimited.
func BalanceHolidayAssignments(participants []models.Staff, periods []models.HolidayPeriod, preferences map[string]models.Preferences, maxPerParticipant int) models.HolidayOutcome {
	out := models.HolidayOutcome{
		Granted:  make(map[string][]string, len(participants)),
		Declined: make(map[string][]string),
		Unfilled: []string{},
	}
	for _, p := range participants {
		out.Granted[p.ID] = []string{}
	}

	wants := func(participantID, periodID string) bool {
		return preferences[participantID][periodID] == models.TagPreferred
	}

	type pending struct {
		period   models.HolidayPeriod
		requests int
	}
	queue := make([]pending, len(periods))
	for i, period := range periods {
		n := 0
		for _, p := range participants {
			if wants(p.ID, period.ID) {
				n++
			}
		}
		queue[i] = pending{period: period, requests: n}
	}
	slices.SortStableFunc(queue, func(a, b pending) int {
		return cmp.Compare(a.requests, b.requests)
	})

	granted := make(map[string]int, len(participants))
	for _, q := range queue {
		var candidates []models.Staff
		for _, p := range participants {
			if wants(p.ID, q.period.ID) {
				candidates = append(candidates, p)
			}
		}
		slices.SortStableFunc(candidates, func(a, b models.Staff) int {
			return cmp.Compare(granted[a.ID], granted[b.ID])
		})

		taken := 0
		for _, c := range candidates {
			full := q.period.Capacity > 0 && taken >= q.period.Capacity
			capped := maxPerParticipant > 0 && granted[c.ID] >= maxPerParticipant
			if full || capped {
				out.Declined[c.ID] = append(out.Declined[c.ID], q.period.ID)
				continue
			}
			out.Granted[c.ID] = append(out.Granted[c.ID], q.period.ID)
			granted[c.ID]++
			taken++
		}

		if taken == 0 || (q.period.Capacity > 0 && taken < q.period.Capacity) {
			out.Unfilled = append(out.Unfilled, q.period.ID)
		}
	}

	return out
}
