// Package calendar holds the shared date arithmetic the recurrence engine
// is built on. All functions treat dates as local-midnight days; clock time
// never influences the results.
package calendar

import "time"

// DateLayout is the canonical YYYY-MM-DD layout used for task dates and
// index keys across the whole store.
const DateLayout = "2006-01-02"

// Midnight truncates t to local midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD string into a local-midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the whole-day count from anchor to target, negative
// when target precedes anchor. Both ends are taken at their calendar day,
// so DST transitions between them do not skew the count.
func DaysBetween(anchor, target time.Time) int {
	a := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// MonthsBetween returns the calendar-month difference from anchor to
// target, ignoring the day of month on both sides.
func MonthsBetween(anchor, target time.Time) int {
	return (target.Year()-anchor.Year())*12 + int(target.Month()) - int(anchor.Month())
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	// Day zero of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay caps a nominal day-of-month to the actual length of the month,
// so "the 31st" resolves to Feb 28/29 rather than spilling into March.
func ClampDay(year int, month time.Month, day int) int {
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

// NthWeekdayOfMonth resolves "the weekOfMonth-th weekday of the month" to a
// day-of-month. weekOfMonth 5 means the last matching weekday in the month,
// whether or not a literal fifth occurrence exists.
func NthWeekdayOfMonth(year int, month time.Month, weekOfMonth int, weekday time.Weekday) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	day := 1 + (int(weekday)-int(first.Weekday())+7)%7

	if weekOfMonth == 5 {
		last := LastDayOfMonth(year, month)
		for day+7 <= last {
			day += 7
		}
		return day
	}
	return day + (weekOfMonth-1)*7
}
