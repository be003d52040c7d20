package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRepository_RecordAndGet(t *testing.T) {
	repo := NewMemoryRepository()

	assert.NoError(t, repo.RecordEvent(EventRoutineCreated, EventMetadata{"routine_id": "r1"}))
	assert.NoError(t, repo.RecordEvent(EventTaskMaterialized, EventMetadata{"freq": "daily"}))
	assert.NoError(t, repo.RecordEvent(EventTaskCompleted, nil))

	events, err := repo.GetEvents(time.Time{}, nil)
	assert.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, 1, events[0].ID)
	assert.Equal(t, 3, events[2].ID)

	filtered, err := repo.GetEvents(time.Time{}, []EventType{EventTaskCompleted})
	assert.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Equal(t, EventTaskCompleted, filtered[0].Type)

	future, err := repo.GetEvents(time.Now().Add(time.Hour), nil)
	assert.NoError(t, err)
	assert.Empty(t, future)

	assert.NoError(t, repo.Clear())
	events, err = repo.GetEvents(time.Time{}, nil)
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestCalculateStats(t *testing.T) {
	repo := NewMemoryRepository()

	assert.NoError(t, repo.RecordEvent(EventTaskMaterialized, EventMetadata{"freq": "daily"}))
	assert.NoError(t, repo.RecordEvent(EventTaskMaterialized, EventMetadata{"freq": "daily"}))
	assert.NoError(t, repo.RecordEvent(EventTaskMaterialized, EventMetadata{"freq": "weekly"}))
	assert.NoError(t, repo.RecordEvent(EventTaskCreated, EventMetadata{"task_id": "t1"}))
	assert.NoError(t, repo.RecordEvent(EventTaskCompleted, EventMetadata{"task_id": "t1"}))
	assert.NoError(t, repo.RecordEvent(EventTaskCompleted, EventMetadata{"task_id": "t2"}))
	assert.NoError(t, repo.RecordEvent(EventReminderScheduled, EventMetadata{"task_id": "t2"}))

	events, err := repo.GetEvents(time.Time{}, nil)
	assert.NoError(t, err)

	stats, err := CalculateStats(events, time.Time{})
	assert.NoError(t, err)

	assert.Equal(t, 3, stats.TasksMaterialized)
	assert.Equal(t, 1, stats.ManualTasksCreated)
	assert.Equal(t, 2, stats.TasksCompleted)
	assert.Equal(t, 1, stats.RemindersScheduled)
	assert.Equal(t, 2, stats.MaterializedByFreq["daily"])
	assert.Equal(t, 1, stats.MaterializedByFreq["weekly"])
	assert.InDelta(t, 0.5, stats.CompletionRate, 1e-9)
	assert.Equal(t, 3, stats.EventCounts[EventTaskMaterialized])
}

func TestCalculateStats_Empty(t *testing.T) {
	stats, err := CalculateStats(nil, time.Time{})
	assert.NoError(t, err)
	assert.Zero(t, stats.TasksMaterialized)
	assert.Zero(t, stats.CompletionRate)
	assert.NotNil(t, stats.EventCounts)
	assert.NotNil(t, stats.MaterializedByFreq)
}
