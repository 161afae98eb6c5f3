package domain

import (
	"fmt"
	"time"
)

// DateRange is the interval currently scoped for fetch and display.
// Either a named preset or a custom explicit interval.
type DateRange struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate enforces the start <= end invariant before a fetch is issued.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return &ErrValidation{Field: "range", Message: "start and end are required"}
	}
	if r.End.Before(r.Start) {
		return &ErrValidation{Field: "range", Message: "end precedes start"}
	}
	return nil
}

// Days is the inclusive number of calendar days the range covers.
func (r DateRange) Days() int {
	d := int(r.End.Sub(r.Start).Hours()/24) + 1
	if d < 1 {
		d = 1
	}
	return d
}

// Named range presets understood by the API.
const (
	PresetToday      = "today"
	Preset7Days      = "7d"
	Preset30Days     = "30d"
	Preset90Days     = "90d"
	PresetYearToDate = "ytd"
)

// PresetRange resolves a named preset relative to now.
func PresetRange(name string, now time.Time) (DateRange, error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch name {
	case PresetToday:
		return DateRange{Label: "Today", Start: day, End: now}, nil
	case Preset7Days:
		return DateRange{Label: "Last 7 days", Start: day.AddDate(0, 0, -7), End: now}, nil
	case Preset30Days:
		return DateRange{Label: "Last 30 days", Start: day.AddDate(0, 0, -30), End: now}, nil
	case Preset90Days:
		return DateRange{Label: "Last 90 days", Start: day.AddDate(0, 0, -90), End: now}, nil
	case PresetYearToDate:
		return DateRange{Label: "Year to date", Start: time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), End: now}, nil
	}
	return DateRange{}, &ErrValidation{Field: "range", Message: fmt.Sprintf("unknown preset %q", name)}
}

// CustomRange builds an explicit interval and validates it.
func CustomRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Label: "Custom", Start: start.UTC(), End: end.UTC()}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}
