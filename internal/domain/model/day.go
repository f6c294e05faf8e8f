package model

import "time"

// DayLayout is the ISO calendar date layout used across the engine.
const DayLayout = "2006-01-02"

// Day truncates t to its calendar date at UTC midnight. The calendar
// fields are taken from t's own location so a late-evening local event
// does not slip into the next day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO calendar date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDay renders t as an ISO calendar date.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}

// MinDay returns the earlier of two calendar days.
func MinDay(a, b time.Time) time.Time {
	a, b = Day(a), Day(b)
	if b.Before(a) {
		return b
	}
	return a
}
