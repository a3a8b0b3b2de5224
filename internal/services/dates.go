package services

import "time"

// DateOnly strips time-of-day, keeping the calendar date in t's location.
// All window and weekday comparisons go through this so that a timestamp close
// to midnight never shifts the decision to a neighboring day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Sunday on or before t, date-only.
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WithinDates reports whether t falls in [from, to], comparing dates only.
func WithinDates(t, from, to time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(from)) && !d.After(DateOnly(to))
}
