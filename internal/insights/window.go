package insights

import (
	"time"

	"insight/internal/core"
)

// Clock supplies the current time for window boundary computation. Injected
// so tests can pin "now".
type Clock func() time.Time

// FilterByWindow restricts transactions to a named relative time window.
// Boundaries are computed against the clock at call time. Records whose date
// cannot be resolved match no window except WindowAll.
func FilterByWindow(transactions []core.RawTransaction, window core.TimeWindow, now Clock) []core.RawTransaction {
	if window == core.WindowAll || window == "" {
		return transactions
	}
	if now == nil {
		now = time.Now
	}

	start, end := windowBounds(window, now())

	var filtered []core.RawTransaction
	for _, tx := range transactions {
		date := ResolveDate(tx)
		if date.IsZero() {
			continue
		}
		if !date.Before(start) && !date.After(end) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func windowBounds(window core.TimeWindow, now time.Time) (time.Time, time.Time) {
	year, month, _ := now.Date()
	loc := now.Location()
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)

	switch window {
	case core.WindowThisMonth:
		return monthStart, now
	case core.WindowLastMonth:
		prevStart := monthStart.AddDate(0, -1, 0)
		// Inclusive through the last instant before this month begins.
		return prevStart, monthStart.Add(-time.Nanosecond)
	case core.WindowLast3Months:
		return monthStart.AddDate(0, -3, 0), now
	case core.WindowThisYear:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc), now
	}
	// Unreachable for parsed windows; treat as unbounded.
	return time.Time{}, now
}
