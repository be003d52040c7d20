package store

import (
	"fmt"

	"github.com/reach-kraj/DayToday/internal/calendar"
	"github.com/reach-kraj/DayToday/internal/model"
	"github.com/reach-kraj/DayToday/internal/telemetry"
)

// CreateTask inserts a manual (non-recurring) task for a day.
func (st *Store) CreateTask(in model.TaskUpsert) (model.TaskInstance, error) {
	if in.Title == "" {
		return model.TaskInstance{}, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if _, err := calendar.ParseDate(in.Date); err != nil {
		return model.TaskInstance{}, ErrInvalidDate
	}
	if in.Time != nil {
		if err := in.Time.Validate(); err != nil {
			return model.TaskInstance{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	t := model.TaskInstance{
		ID:               newTaskID(),
		RoutineID:        nil,
		Title:            in.Title,
		Date:             in.Date,
		Time:             in.Time,
		Completed:        false,
		NotificationType: in.NotificationType,
		Priority:         in.Priority,
		EstimatedMinutes: in.EstimatedMinutes,
		CreatedAt:        st.now(),
	}

	next := st.s.clone()
	next.Tasks[t.ID] = t
	next.TasksByDate[t.Date] = append(next.TasksByDate[t.Date], t.ID)
	if err := st.commitLocked(next); err != nil {
		return model.TaskInstance{}, err
	}

	st.record(telemetry.EventTaskCreated, telemetry.EventMetadata{
		"task_id": string(t.ID),
		"date":    t.Date,
	})
	return t, nil
}

func (st *Store) GetTask(id model.TaskID) (model.TaskInstance, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	t, ok := st.s.Tasks[id]
	if !ok {
		return model.TaskInstance{}, ErrTaskNotFound
	}
	return t, nil
}

// TasksForDate returns the day's instances in index (insertion) order.
// Ids indexed without a backing instance are skipped, not repaired.
func (st *Store) TasksForDate(date string) []model.TaskInstance {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := st.s.TasksByDate[date]
	out := make([]model.TaskInstance, 0, len(ids))
	for _, id := range ids {
		if t, ok := st.s.Tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// TaskPatch is a partial instance update; nil means "no change".
// Completion is toggled through ToggleTask, date changes go through
// MoveTask, so neither appears here.
type TaskPatch struct {
	Title            *string          `json:"title,omitempty"`
	Time             *model.TimeOfDay `json:"time,omitempty"`
	NotificationType *string          `json:"notificationType,omitempty"`
	Priority         *string          `json:"priority,omitempty"`
	EstimatedMinutes *int             `json:"estimatedMinutes,omitempty"`
}

func (st *Store) UpdateTask(id model.TaskID, p TaskPatch) (model.TaskInstance, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	t, ok := st.s.Tasks[id]
	if !ok {
		return model.TaskInstance{}, ErrTaskNotFound
	}

	if p.Title != nil {
		if *p.Title == "" {
			return model.TaskInstance{}, fmt.Errorf("%w: title is required", ErrInvalidTask)
		}
		t.Title = *p.Title
	}
	if p.Time != nil {
		if err := p.Time.Validate(); err != nil {
			return model.TaskInstance{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
		t.Time = p.Time
	}
	if p.NotificationType != nil {
		t.NotificationType = *p.NotificationType
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.EstimatedMinutes != nil {
		t.EstimatedMinutes = *p.EstimatedMinutes
	}

	next := st.s.clone()
	next.Tasks[id] = t
	if err := st.commitLocked(next); err != nil {
		return model.TaskInstance{}, err
	}
	return t, nil
}

// ToggleTask flips the completion flag. The transition is reversible; no
// other field changes.
func (st *Store) ToggleTask(id model.TaskID) (model.TaskInstance, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	t, ok := st.s.Tasks[id]
	if !ok {
		return model.TaskInstance{}, ErrTaskNotFound
	}
	t.Completed = !t.Completed

	next := st.s.clone()
	next.Tasks[id] = t
	if err := st.commitLocked(next); err != nil {
		return model.TaskInstance{}, err
	}

	if t.Completed {
		st.record(telemetry.EventTaskCompleted, telemetry.EventMetadata{
			"task_id": string(id),
			"date":    t.Date,
		})
	}
	return t, nil
}

// MoveTask reassigns the instance to another day. The index entry moves
// with it in the same commit, so an indexed id always resolves to an
// instance whose date matches the index key.
func (st *Store) MoveTask(id model.TaskID, newDate string) (model.TaskInstance, error) {
	if _, err := calendar.ParseDate(newDate); err != nil {
		return model.TaskInstance{}, ErrInvalidDate
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	t, ok := st.s.Tasks[id]
	if !ok {
		return model.TaskInstance{}, ErrTaskNotFound
	}
	if t.Date == newDate {
		return t, nil
	}

	next := st.s.clone()
	next.TasksByDate[t.Date] = removeTaskID(next.TasksByDate[t.Date], id)
	if len(next.TasksByDate[t.Date]) == 0 {
		delete(next.TasksByDate, t.Date)
	}
	oldDate := t.Date
	t.Date = newDate
	next.Tasks[id] = t
	next.TasksByDate[newDate] = append(next.TasksByDate[newDate], id)

	if err := st.commitLocked(next); err != nil {
		return model.TaskInstance{}, err
	}

	st.record(telemetry.EventTaskMoved, telemetry.EventMetadata{
		"task_id": string(id),
		"from":    oldDate,
		"to":      newDate,
	})
	return t, nil
}

// DeleteTask removes the instance from the instance map and the date
// index in one commit.
func (st *Store) DeleteTask(id model.TaskID) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	t, ok := st.s.Tasks[id]
	if !ok {
		return ErrTaskNotFound
	}

	next := st.s.clone()
	delete(next.Tasks, id)
	next.TasksByDate[t.Date] = removeTaskID(next.TasksByDate[t.Date], id)
	if len(next.TasksByDate[t.Date]) == 0 {
		delete(next.TasksByDate, t.Date)
	}

	if err := st.commitLocked(next); err != nil {
		return err
	}

	st.record(telemetry.EventTaskDeleted, telemetry.EventMetadata{
		"task_id": string(id),
		"date":    t.Date,
	})
	return nil
}
