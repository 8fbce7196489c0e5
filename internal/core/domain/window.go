package domain

import (
	"fmt"
	"time"
)

// TimeWindow is the half-open calendar month [Start, End).
type TimeWindow struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow returns the window for the given month. Years are not
// validated: a window outside the archive's coverage simply has no scenes.
func NewTimeWindow(year, month int) (TimeWindow, error) {
	if month < 1 || month > 12 {
		return TimeWindow{}, fmt.Errorf("%w: month %d not in 1-12", ErrInvalidWindow, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return TimeWindow{
		Year:  year,
		Month: month,
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}, nil
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%04d-%02d", w.Year, w.Month)
}
