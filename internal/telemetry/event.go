package telemetry

import "time"

type EventType string

const (
	EventRoutineCreated    EventType = "routine_created"
	EventRoutineUpdated    EventType = "routine_updated"
	EventRoutineDeleted    EventType = "routine_deleted"
	EventTaskCreated       EventType = "task_created"
	EventTaskMaterialized  EventType = "task_materialized"
	EventTaskCompleted     EventType = "task_completed"
	EventTaskMoved         EventType = "task_moved"
	EventTaskDeleted       EventType = "task_deleted"
	EventReminderScheduled EventType = "reminder_scheduled"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
