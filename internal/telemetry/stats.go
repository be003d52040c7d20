package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period             string            `json:"period"`
	EventCounts        map[EventType]int `json:"event_counts"`
	TasksMaterialized  int               `json:"tasks_materialized"`
	TasksCompleted     int               `json:"tasks_completed"`
	ManualTasksCreated int               `json:"manual_tasks_created"`
	RemindersScheduled int               `json:"reminders_scheduled"`
	MaterializedByFreq map[string]int    `json:"materialized_by_freq"`
	CompletionRate     float64           `json:"completion_rate"`
}

// CalculateStats aggregates usage stats from events recorded since the
// given time.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:             since.Format("2006-01-02"),
		EventCounts:        make(map[EventType]int),
		MaterializedByFreq: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskMaterialized:
			stats.TasksMaterialized++
			if freq, ok := metadata["freq"].(string); ok {
				stats.MaterializedByFreq[freq]++
			}
		case EventTaskCompleted:
			stats.TasksCompleted++
		case EventTaskCreated:
			stats.ManualTasksCreated++
		case EventReminderScheduled:
			stats.RemindersScheduled++
		}
	}

	if total := stats.TasksMaterialized + stats.ManualTasksCreated; total > 0 {
		stats.CompletionRate = float64(stats.TasksCompleted) / float64(total)
	}
	return stats, nil
}
