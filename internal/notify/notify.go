// Package notify is the seam to the external reminder scheduler. The store
// hands it one request per timed instance it materializes and never waits
// on, retries, or inspects the outcome; delivery mechanics live entirely
// on the other side of the Scheduler interface.
package notify

import (
	"log"

	"github.com/reach-kraj/DayToday/internal/model"
)

// Reminder asks the external scheduler to notify the user about one
// materialized task instance at its nominal time of day.
type Reminder struct {
	InstanceID       model.TaskID    `json:"instanceId"`
	Title            string          `json:"title"`
	Date             string          `json:"date"`
	Time             model.TimeOfDay `json:"time"`
	NotificationType string          `json:"notificationType,omitempty"`
}

type Scheduler interface {
	Schedule(rem Reminder) error
}

// LogScheduler records reminder requests on the process log. It stands in
// for a real push scheduler in the server build.
type LogScheduler struct {
	logger *log.Logger
}

func NewLogScheduler(logger *log.Logger) *LogScheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &LogScheduler{logger: logger}
}

func (s *LogScheduler) Schedule(rem Reminder) error {
	s.logger.Printf("[notify] schedule reminder instance=%s date=%s time=%s type=%s title=%q",
		rem.InstanceID, rem.Date, rem.Time, rem.NotificationType, rem.Title)
	return nil
}

// NopScheduler drops every request. Used when notifications are disabled.
type NopScheduler struct{}

func (NopScheduler) Schedule(Reminder) error { return nil }
