package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/reach-kraj/DayToday/internal/calendar"
	"github.com/reach-kraj/DayToday/internal/model"
)

const icsDateLayout = "20060102"

var icsWeekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// BuildRoutineCalendarICS exports a routine as a one-event iCalendar feed
// whose RRULE mirrors the routine's recurrence rule, so external calendar
// apps can subscribe to a routine without talking to the store.
func BuildRoutineCalendarICS(r model.Routine, now time.Time) (string, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "DayToday Routine"
	}

	rrule, err := recurrenceToRRULE(r.Recurrence)
	if err != nil {
		return "", err
	}

	anchor := r.AnchorDate()
	uid := fmt.Sprintf("routine-%s@daytoday", strings.TrimSpace(string(r.ID)))
	if strings.TrimSpace(string(r.ID)) == "" {
		uid = fmt.Sprintf("routine-export-%d@daytoday", now.UnixNano())
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//DayToday//Routine Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + anchor.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + anchor.AddDate(0, 0, 1).Format(icsDateLayout),
		"RRULE:" + rrule,
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

func recurrenceToRRULE(rec model.Recurrence) (string, error) {
	var parts []string

	switch rec.Freq {
	case model.FreqDaily:
		parts = append(parts, "FREQ=DAILY", fmt.Sprintf("INTERVAL=%d", rec.Daily.Interval))

	case model.FreqWeekly:
		w := rec.Weekly
		days := w.Weekdays
		if len(days) == 0 {
			days = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
		}
		codes := make([]string, 0, len(days))
		for _, d := range days {
			codes = append(codes, icsWeekdayCodes[int(d)%7])
		}
		parts = append(parts,
			"FREQ=WEEKLY",
			fmt.Sprintf("INTERVAL=%d", w.Interval),
			"BYDAY="+strings.Join(codes, ","),
		)

	case model.FreqMonthly:
		m := rec.Monthly
		parts = append(parts, "FREQ=MONTHLY", fmt.Sprintf("INTERVAL=%d", m.Interval))
		if m.WeekOfMonth != 0 && m.DayOfWeek != nil {
			pos := m.WeekOfMonth
			if pos == 5 {
				// "Fifth" week means last occurrence in the month.
				pos = -1
			}
			parts = append(parts,
				"BYDAY="+icsWeekdayCodes[int(*m.DayOfWeek)%7],
				fmt.Sprintf("BYSETPOS=%d", pos),
			)
		} else {
			parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", m.DayOfMonth))
		}

	case model.FreqYearly:
		y := rec.Yearly
		parts = append(parts,
			"FREQ=YEARLY",
			fmt.Sprintf("INTERVAL=%d", y.Interval),
			fmt.Sprintf("BYMONTH=%d", int(y.Month)),
			fmt.Sprintf("BYMONTHDAY=%d", y.DayOfMonth),
		)

	default:
		return "", fmt.Errorf("unsupported recurrence freq %q", rec.Freq)
	}

	if end := rec.ActiveEnd(); end != nil {
		if end.Date != nil {
			until, err := calendar.ParseDate(*end.Date)
			if err != nil {
				return "", fmt.Errorf("routine end date must be YYYY-MM-DD")
			}
			parts = append(parts, "UNTIL="+until.Format(icsDateLayout))
		} else if end.Count > 0 {
			parts = append(parts, fmt.Sprintf("COUNT=%d", end.Count))
		}
	}

	return strings.Join(parts, ";"), nil
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
