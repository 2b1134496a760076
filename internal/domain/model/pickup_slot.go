package model

import (
	"fmt"
	"time"

	"foodflow-pickup/internal/domain"
)

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04"
)

// PickupSlot is the scheduled pickup window confirmed for one donation.
// Date and times are kept as received (YYYY-MM-DD, 24h HH:MM) and resolved
// against a location only when evaluated.
type PickupSlot struct {
	PickupDate string `json:"pickup_date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// Bounds resolves the slot into absolute start and end instants on the
// pickup date in loc. A nil loc means time.Local.
func (s *PickupSlot) Bounds(loc *time.Location) (start, end time.Time, err error) {
	if s == nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidSlot
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(slotDateLayout, s.PickupDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: pickup date %q", domain.ErrInvalidSlot, s.PickupDate)
	}
	start, err = atClock(day, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = atClock(day, s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(slotTimeLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q", domain.ErrInvalidSlot, clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
