// Package calendar holds the date arithmetic shared by rule resolution,
// installment planning and reports. Every function is pure.
//
// Month and day overflow follow time.Date normalization: day 31 of a
// 30-day month is the first day of the next month. Callers rely on this
// behavior, so nothing here clamps.
package calendar

import "time"

// MonthBounds returns the first instant (day 1, 00:00:00) and the last
// instant (final day, 23:59:59.999) of the month, both inclusive.
func MonthBounds(year int, month time.Month) (first, last time.Time) {
	first = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, 0).Add(-time.Millisecond)
	return first, last
}

// OccurrenceDate builds the date for dayOfMonth within the given month,
// letting impossible days roll over into the following month.
func OccurrenceDate(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Midnight strips the time of day, keeping t's calendar day in its location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Within reports whether t falls in [start, end] comparing calendar days only.
// A zero end means the range is open.
func Within(t, start, end time.Time) bool {
	day := dayNumber(t)
	if day < dayNumber(start) {
		return false
	}
	return end.IsZero() || day <= dayNumber(end)
}

// AddMonths advances t by n months with native overflow (Jan 31 + 1 month
// is Mar 3 in a non-leap year).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// dayNumber maps a calendar day to a comparable integer, ignoring the
// clock and the location offset.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
