package model

import "time"

type TaskID string

// TaskInstance is one concrete, dated occurrence: generated from a routine
// (RoutineID set) or created by hand (RoutineID nil). Identity is stable
// once created; edits and completion toggles mutate in place.
type TaskInstance struct {
	ID               TaskID     `json:"id"`
	RoutineID        *RoutineID `json:"routineId,omitempty"`
	Title            string     `json:"title"`
	Date             string     `json:"date"`
	Time             *TimeOfDay `json:"time,omitempty"`
	Completed        bool       `json:"completed"`
	NotificationType string     `json:"notificationType,omitempty"`

	Priority         string `json:"priority,omitempty"`
	EstimatedMinutes int    `json:"estimatedMinutes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TaskUpsert creates a manual (non-recurring) task for a day.
type TaskUpsert struct {
	Title            string     `json:"title"`
	Date             string     `json:"date"`
	Time             *TimeOfDay `json:"time,omitempty"`
	NotificationType string     `json:"notificationType,omitempty"`
	Priority         string     `json:"priority,omitempty"`
	EstimatedMinutes int        `json:"estimatedMinutes,omitempty"`
}
