package picker

import (
	"fmt"
	"time"

	"github.com/arnavshah/shift-picker-go/pkg/models"
	"github.com/teambition/rrule-go"
)

const (
	dateLayout = "2006-01-02"
	maxDates   = 366
)

// CreateInput describes a new picker. Dates come from exactly one of: the
// explicit Dates list, an RRule bounded by StartDate and EndDate, or the
// plain StartDate..EndDate range (one date per day, inclusive).
type CreateInput struct {
	Name      string         `json:"name" validate:"required"`
	Shifts    []string       `json:"shifts" validate:"required,min=1,dive,required"`
	Dates     []string       `json:"dates" validate:"omitempty,dive,datetime=2006-01-02"`
	StartDate string         `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string         `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	RRule     string         `json:"rrule"`
	Staff     []models.Staff `json:"staff" validate:"required,min=1,dive"`
	ExpiresAt *time.Time     `json:"expiresAt"`
}

// ResolveDates expands the input into the list of picker dates
func (in CreateInput) ResolveDates() ([]string, error) {
	if len(in.Dates) > 0 {
		if in.StartDate != "" || in.RRule != "" {
			return nil, fmt.Errorf("%w: give either dates or a date range, not both", ErrInvalidPicker)
		}
		if len(in.Dates) > maxDates {
			return nil, fmt.Errorf("%w: at most %d dates", ErrInvalidPicker, maxDates)
		}
		return in.Dates, nil
	}

	if in.StartDate == "" {
		return nil, fmt.Errorf("%w: dates or startDate/endDate are required", ErrInvalidPicker)
	}
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: startDate: %v", ErrInvalidPicker, err)
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: endDate: %v", ErrInvalidPicker, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrInvalidPicker)
	}

	var days []time.Time
	if in.RRule != "" {
		opt, err := rrule.StrToROption(in.RRule)
		if err != nil {
			return nil, fmt.Errorf("%w: rrule: %v", ErrInvalidPicker, err)
		}
		// pickers hold whole days
		if opt.Freq > rrule.DAILY {
			return nil, fmt.Errorf("%w: rrule frequency must be daily or coarser, got %s", ErrInvalidPicker, opt.Freq)
		}
		opt.Dtstart = start
		rule, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, fmt.Errorf("%w: rrule: %v", ErrInvalidPicker, err)
		}

		next := rule.Iterator()
		for d, ok := next(); ok && !d.After(end); d, ok = next() {
			days = append(days, d)
			if len(days) > maxDates {
				break
			}
		}
	} else {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			days = append(days, d)
			if len(days) > maxDates {
				break
			}
		}
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("%w: the date range produced no dates", ErrInvalidPicker)
	}
	if len(days) > maxDates {
		return nil, fmt.Errorf("%w: at most %d dates", ErrInvalidPicker, maxDates)
	}

	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format(dateLayout)
	}
	return dates, nil
}
