package recurrence

import (
	"time"

	"github.com/reach-kraj/DayToday/internal/calendar"
	"github.com/reach-kraj/DayToday/internal/model"
)

// Occurrences lists the dates (ascending YYYY-MM-DD, inclusive bounds) on
// which the routine fires within the range. It scans day by day; nth-weekday
// monthly rules have no useful closed form, and ranges here are calendar
// previews of a month or two, so the O(days) cost is deliberate. Callers
// with bigger ranges are expected to bound them.
func Occurrences(r model.Routine, rangeStart, rangeEnd time.Time) []string {
	start := calendar.Midnight(rangeStart)
	end := calendar.Midnight(rangeEnd)

	out := []string{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if OccursOn(r, day) {
			out = append(out, calendar.FormatDate(day))
		}
	}
	return out
}
