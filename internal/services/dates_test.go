package services

import (
	"testing"
	"time"
)

func TestDateOnlyStripsTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
	d := DateOnly(ts)
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
		t.Fatalf("expected midnight, got %v", d)
	}
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 1 {
		t.Fatalf("date shifted: %v", d)
	}
}

func TestWeekStartSundayAligned(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)},  // Wednesday
		{time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)},   // Sunday maps to itself
		{time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)}, // Saturday
	}
	for _, c := range cases {
		if got := WeekStart(c.in); !got.Equal(c.want) {
			t.Fatalf("WeekStart(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestWithinDatesIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)

	lateOnStart := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	if !WithinDates(lateOnStart, start, end) {
		t.Fatalf("23:59 on the start date must be within the window")
	}
	if WithinDates(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC), start, end) {
		t.Fatalf("day before start must be outside the window")
	}
	if !WithinDates(end, start, end) {
		t.Fatalf("end date is inclusive")
	}
	if WithinDates(end.AddDate(0, 0, 1), start, end) {
		t.Fatalf("day after end must be outside the window")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 1, 0, 1, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 23, 58, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Fatalf("expected same calendar day")
	}
	if SameDay(a, b.AddDate(0, 0, 1)) {
		t.Fatalf("different days must not match")
	}
}
