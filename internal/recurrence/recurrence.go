// Package recurrence decides on which calendar dates a routine fires.
// Everything here is pure: no I/O, no store access, safe for arbitrary
// past or future dates. Input is assumed to have passed
// model.Recurrence.Validate at the store boundary.
package recurrence

import (
	"slices"
	"time"

	"github.com/reach-kraj/DayToday/internal/calendar"
	"github.com/reach-kraj/DayToday/internal/model"
)

// OccursOn reports whether the routine fires on the given date. The date's
// clock time is ignored; only the calendar day matters.
func OccursOn(r model.Routine, date time.Time) bool {
	day := calendar.Midnight(date)
	anchor := r.AnchorDate()
	if day.Before(anchor) {
		return false
	}

	if end := r.Recurrence.ActiveEnd(); end != nil && end.Date != nil {
		endDay, err := calendar.ParseDate(*end.Date)
		if err != nil || day.After(endDay) {
			return false
		}
	}

	diffDays := calendar.DaysBetween(anchor, day)

	switch r.Recurrence.Freq {
	case model.FreqDaily:
		d := r.Recurrence.Daily
		// Exact occurrence-count arithmetic only exists for the daily
		// variant; for everything else the store's materialized-instance
		// count is the authority and this function stays permissive.
		if end := d.End; end != nil && end.Count > 0 {
			if diffDays/d.Interval >= end.Count {
				return false
			}
		}
		return diffDays%d.Interval == 0

	case model.FreqWeekly:
		w := r.Recurrence.Weekly
		if (diffDays/7)%w.Interval != 0 {
			return false
		}
		wd := day.Weekday()
		if len(w.Weekdays) == 0 {
			return wd >= time.Monday && wd <= time.Friday
		}
		return slices.Contains(w.Weekdays, wd)

	case model.FreqMonthly:
		m := r.Recurrence.Monthly
		monthDiff := calendar.MonthsBetween(anchor, day)
		if monthDiff < 0 || monthDiff%m.Interval != 0 {
			return false
		}
		if m.WeekOfMonth != 0 && m.DayOfWeek != nil {
			return day.Day() == calendar.NthWeekdayOfMonth(day.Year(), day.Month(), m.WeekOfMonth, *m.DayOfWeek)
		}
		return day.Day() == calendar.ClampDay(day.Year(), day.Month(), m.DayOfMonth)

	case model.FreqYearly:
		y := r.Recurrence.Yearly
		yearDiff := day.Year() - anchor.Year()
		if yearDiff < 0 || yearDiff%y.Interval != 0 {
			return false
		}
		if day.Month() != y.Month {
			return false
		}
		return day.Day() == calendar.ClampDay(day.Year(), day.Month(), y.DayOfMonth)
	}

	return false
}
