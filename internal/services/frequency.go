package services

import "math"

// RequiredToday translates a frequency configuration into the number of
// occurrences owed on a single active day.
//
// daily units apply per calendar day regardless of which days are active.
// weekly units spread the weekly total evenly across the active days, rounding
// up so the weekly total is never under-delivered when it does not divide
// evenly; a participant may finish the week's quota a day early instead.
// monthly units spread a monthly total across the approximate number of active
// days per month.
func RequiredToday(frequency int, unit FrequencyUnit, occurrenceSize, activeWeekdayCount int) int {
	if frequency <= 0 || occurrenceSize <= 0 {
		return 0
	}
	total := frequency * occurrenceSize
	switch unit {
	case UnitDaily:
		return total
	case UnitWeekly:
		// An empty active set is rejected at schedule creation; guard anyway
		// rather than divide by zero.
		if activeWeekdayCount <= 0 {
			return 0
		}
		return ceilDiv(total, activeWeekdayCount)
	case UnitMonthly:
		if activeWeekdayCount <= 0 {
			return 0
		}
		days := int(math.Round(float64(activeWeekdayCount) * activeDaysPerMonth))
		if days <= 0 {
			return 0
		}
		return ceilDiv(total, days)
	default:
		return 0
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
