package model

import (
	"errors"
	"fmt"
	"time"
)

type RoutineID string

const dateLayout = "2006-01-02"

var (
	ErrInvalidInterval      = errors.New("recurrence interval must be >= 1")
	ErrInvalidVariant       = errors.New("recurrence variant does not match freq")
	ErrInvalidWeekday       = errors.New("weekday must be in 0..6")
	ErrInvalidDayOfMonth    = errors.New("day of month must be in 1..31")
	ErrInvalidWeekOfMonth   = errors.New("week of month must be in 1..5")
	ErrInvalidMonth         = errors.New("month must be in January..December")
	ErrAmbiguousMonthlyRule = errors.New("monthly rule needs day-of-month or nth-weekday, not both")
	ErrBothEndConditions    = errors.New("end date and occurrence count cannot both be set")
	ErrInvalidEndDate       = errors.New("end date must be YYYY-MM-DD")
	ErrInvalidTimeOfDay     = errors.New("time of day out of range")
)

// TimeOfDay is a wall-clock time with no date or zone attached.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return ErrInvalidTimeOfDay
	}
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

type Freq string

const (
	FreqDaily   Freq = "daily"
	FreqWeekly  Freq = "weekly"
	FreqMonthly Freq = "monthly"
	FreqYearly  Freq = "yearly"
)

// End bounds a recurrence: an inclusive last date, or a cap on the total
// number of instances ever materialized. Setting both is rejected at
// validation time, so the two bounds never compete at runtime.
type End struct {
	Date  *string `json:"date,omitempty"`
	Count int     `json:"count,omitempty"`
}

func (e *End) validate() error {
	if e == nil {
		return nil
	}
	if e.Date != nil && e.Count > 0 {
		return ErrBothEndConditions
	}
	if e.Date != nil {
		if _, err := time.ParseInLocation(dateLayout, *e.Date, time.Local); err != nil {
			return ErrInvalidEndDate
		}
	}
	return nil
}

type DailyRule struct {
	Interval int  `json:"interval"`
	End      *End `json:"end,omitempty"`
}

// WeeklyRule fires on the listed weekdays in every Interval-th week
// counted from the anchor. An empty weekday set means Monday through
// Friday: the product treats an uncustomized weekly routine as a
// weekday habit.
type WeeklyRule struct {
	Interval int            `json:"interval"`
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
	End      *End           `json:"end,omitempty"`
}

// MonthlyRule fires in every Interval-th month, on either a fixed
// DayOfMonth (clamped to the month length) or the WeekOfMonth-th
// DayOfWeek, where WeekOfMonth 5 means the last occurrence in the month.
// Exactly one of the two forms must be populated.
type MonthlyRule struct {
	Interval    int           `json:"interval"`
	DayOfMonth  int           `json:"dayOfMonth,omitempty"`
	WeekOfMonth int           `json:"weekOfMonth,omitempty"`
	DayOfWeek   *time.Weekday `json:"dayOfWeek,omitempty"`
	End         *End          `json:"end,omitempty"`
}

type YearlyRule struct {
	Interval   int        `json:"interval"`
	Month      time.Month `json:"month"`
	DayOfMonth int        `json:"dayOfMonth"`
	End        *End       `json:"end,omitempty"`
}

// Recurrence is a tagged union: Freq names the variant and exactly one of
// the variant pointers is populated. Keeping the variants as distinct
// types (rather than one wide struct) means a weekly rule simply has no
// day-of-month field to mis-populate.
type Recurrence struct {
	Freq    Freq         `json:"freq"`
	Daily   *DailyRule   `json:"daily,omitempty"`
	Weekly  *WeeklyRule  `json:"weekly,omitempty"`
	Monthly *MonthlyRule `json:"monthly,omitempty"`
	Yearly  *YearlyRule  `json:"yearly,omitempty"`
}

// ActiveEnd returns the end condition of the populated variant, nil when
// the recurrence is open-ended.
func (r Recurrence) ActiveEnd() *End {
	switch r.Freq {
	case FreqDaily:
		if r.Daily != nil {
			return r.Daily.End
		}
	case FreqWeekly:
		if r.Weekly != nil {
			return r.Weekly.End
		}
	case FreqMonthly:
		if r.Monthly != nil {
			return r.Monthly.End
		}
	case FreqYearly:
		if r.Yearly != nil {
			return r.Yearly.End
		}
	}
	return nil
}

// Validate rejects malformed rules. The evaluator assumes validated input
// and never clamps or repairs, so this is the only line of defense; the
// store runs it on every create and update.
func (r Recurrence) Validate() error {
	populated := 0
	if r.Daily != nil {
		populated++
	}
	if r.Weekly != nil {
		populated++
	}
	if r.Monthly != nil {
		populated++
	}
	if r.Yearly != nil {
		populated++
	}
	if populated != 1 {
		return ErrInvalidVariant
	}

	switch r.Freq {
	case FreqDaily:
		if r.Daily == nil {
			return ErrInvalidVariant
		}
		if r.Daily.Interval < 1 {
			return ErrInvalidInterval
		}
		return r.Daily.End.validate()

	case FreqWeekly:
		w := r.Weekly
		if w == nil {
			return ErrInvalidVariant
		}
		if w.Interval < 1 {
			return ErrInvalidInterval
		}
		for _, wd := range w.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return ErrInvalidWeekday
			}
		}
		return w.End.validate()

	case FreqMonthly:
		m := r.Monthly
		if m == nil {
			return ErrInvalidVariant
		}
		if m.Interval < 1 {
			return ErrInvalidInterval
		}
		nth := m.WeekOfMonth != 0 || m.DayOfWeek != nil
		if nth {
			if m.DayOfMonth != 0 {
				return ErrAmbiguousMonthlyRule
			}
			if m.WeekOfMonth < 1 || m.WeekOfMonth > 5 {
				return ErrInvalidWeekOfMonth
			}
			if m.DayOfWeek == nil || *m.DayOfWeek < time.Sunday || *m.DayOfWeek > time.Saturday {
				return ErrInvalidWeekday
			}
		} else {
			if m.DayOfMonth < 1 || m.DayOfMonth > 31 {
				return ErrInvalidDayOfMonth
			}
		}
		return m.End.validate()

	case FreqYearly:
		y := r.Yearly
		if y == nil {
			return ErrInvalidVariant
		}
		if y.Interval < 1 {
			return ErrInvalidInterval
		}
		if y.Month < time.January || y.Month > time.December {
			return ErrInvalidMonth
		}
		if y.DayOfMonth < 1 || y.DayOfMonth > 31 {
			return ErrInvalidDayOfMonth
		}
		return y.End.validate()
	}
	return ErrInvalidVariant
}

// Routine is an abstract recurring obligation. Concrete dated tasks are
// materialized from it by the store.
type Routine struct {
	ID               RoutineID  `json:"id"`
	Title            string     `json:"title"`
	Time             *TimeOfDay `json:"time,omitempty"`
	StartDate        *string    `json:"startDate,omitempty"`
	Recurrence       Recurrence `json:"recurrence"`
	NotificationType string     `json:"notificationType,omitempty"`
	Tags             []string   `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AnchorDate is the reference point for all interval arithmetic: the
// explicit start date when one is set, otherwise the day the routine was
// created. Always local midnight.
func (r Routine) AnchorDate() time.Time {
	if r.StartDate != nil {
		if d, err := time.ParseInLocation(dateLayout, *r.StartDate, time.Local); err == nil {
			return d
		}
	}
	c := r.CreatedAt.In(time.Local)
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.Local)
}

// RoutineUpsert is the creation/update payload accepted by the API.
type RoutineUpsert struct {
	Title            string     `json:"title"`
	Time             *TimeOfDay `json:"time,omitempty"`
	StartDate        *string    `json:"startDate,omitempty"`
	Recurrence       Recurrence `json:"recurrence"`
	NotificationType string     `json:"notificationType,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
}
