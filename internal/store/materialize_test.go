package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/reach-kraj/DayToday/internal/model"
	"github.com/reach-kraj/DayToday/internal/notify"
)

// captureScheduler records every reminder request, optionally failing.
type captureScheduler struct {
	mu        sync.Mutex
	reminders []notify.Reminder
	err       error
}

func (s *captureScheduler) Schedule(rem notify.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reminders = append(s.reminders, rem)
	return nil
}

func (s *captureScheduler) all() []notify.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Reminder(nil), s.reminders...)
}

func TestMaterializeDate(t *testing.T) {
	st := newTestStore(t, Options{})

	daily, err := st.CreateRoutine(dailyUpsert("Stretch", "2024-01-01"))
	if err != nil {
		t.Fatalf("create daily: %v", err)
	}
	weekly, err := st.CreateRoutine(model.RoutineUpsert{
		Title:     "Standup",
		StartDate: strp("2024-01-01"),
		Recurrence: model.Recurrence{
			Freq:   model.FreqWeekly,
			Weekly: &model.WeeklyRule{Interval: 1, Weekdays: []time.Weekday{time.Monday}},
		},
	})
	if err != nil {
		t.Fatalf("create weekly: %v", err)
	}

	// 2024-01-08 is a Monday: both routines fire.
	batch, err := st.MaterializeDate("2024-01-08")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch len = %d, want 2", len(batch))
	}
	byRoutine := map[model.RoutineID]model.TaskInstance{}
	for _, task := range batch {
		if task.RoutineID == nil {
			t.Fatalf("materialized instance missing routine link")
		}
		if task.Date != "2024-01-08" || task.Completed {
			t.Fatalf("bad instance: %+v", task)
		}
		byRoutine[*task.RoutineID] = task
	}
	if byRoutine[daily.ID].Title != "Stretch" || byRoutine[weekly.ID].Title != "Standup" {
		t.Fatalf("titles not copied from routines: %+v", byRoutine)
	}

	// 2024-01-09 is a Tuesday: only the daily routine fires.
	batch, err = st.MaterializeDate("2024-01-09")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(batch) != 1 || *batch[0].RoutineID != daily.ID {
		t.Fatalf("tuesday batch = %v", batch)
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	st := newTestStore(t, Options{})

	if _, err := st.CreateRoutine(dailyUpsert("Stretch", "2024-01-01")); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := st.MaterializeDate("2024-01-05")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first batch = %d", len(first))
	}

	for i := 0; i < 3; i++ {
		again, err := st.MaterializeDate("2024-01-05")
		if err != nil {
			t.Fatalf("re-materialize: %v", err)
		}
		if len(again) != 0 {
			t.Fatalf("replay %d created %d instances", i, len(again))
		}
	}
	if got := len(st.TasksForDate("2024-01-05")); got != 1 {
		t.Fatalf("day holds %d instances, want 1", got)
	}
}

func TestMaterializeSurvivesInstanceEdits(t *testing.T) {
	st := newTestStore(t, Options{})

	if _, err := st.CreateRoutine(dailyUpsert("Stretch", "2024-01-01")); err != nil {
		t.Fatalf("create: %v", err)
	}
	batch, err := st.MaterializeDate("2024-01-05")
	if err != nil || len(batch) != 1 {
		t.Fatalf("materialize: %v batch=%v", err, batch)
	}

	// Completing or retitling the instance must not resurrect a duplicate.
	if _, err := st.ToggleTask(batch[0].ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := st.UpdateTask(batch[0].ID, TaskPatch{Title: strp("Done early")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	again, err := st.MaterializeDate("2024-01-05")
	if err != nil {
		t.Fatalf("re-materialize: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("edited instance no longer guards idempotence: %v", again)
	}
}

func TestMaterializeDeletedInstanceComesBack(t *testing.T) {
	st := newTestStore(t, Options{})

	if _, err := st.CreateRoutine(dailyUpsert("Stretch", "2024-01-01")); err != nil {
		t.Fatalf("create: %v", err)
	}
	batch, err := st.MaterializeDate("2024-01-05")
	if err != nil || len(batch) != 1 {
		t.Fatalf("materialize: %v batch=%v", err, batch)
	}
	if err := st.DeleteTask(batch[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	again, err := st.MaterializeDate("2024-01-05")
	if err != nil {
		t.Fatalf("re-materialize: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("deleted instance should be recreated, got %v", again)
	}
}

func TestMaterializeOccurrenceCap(t *testing.T) {
	st := newTestStore(t, Options{})

	_, err := st.CreateRoutine(model.RoutineUpsert{
		Title:     "Course session",
		StartDate: strp("2024-01-01"),
		Recurrence: model.Recurrence{
			Freq:  model.FreqDaily,
			Daily: &model.DailyRule{Interval: 1, End: &model.End{Count: 3}},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created := 0
	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"} {
		batch, err := st.MaterializeDate(date)
		if err != nil {
			t.Fatalf("materialize %s: %v", date, err)
		}
		created += len(batch)
	}
	if created != 3 {
		t.Fatalf("created %d instances, want cap of 3", created)
	}
	if got := len(st.TasksForDate("2024-01-04")); got != 0 {
		t.Fatalf("fourth day should stay empty, got %d", got)
	}
}

func TestMaterializeCapCountsAcrossDeletes(t *testing.T) {
	st := newTestStore(t, Options{})

	_, err := st.CreateRoutine(model.RoutineUpsert{
		Title:     "Limited",
		StartDate: strp("2024-01-01"),
		Recurrence: model.Recurrence{
			Freq:   model.FreqWeekly,
			Weekly: &model.WeeklyRule{Interval: 1, End: &model.End{Count: 2}},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mon and Tue fill the cap of two.
	for _, date := range []string{"2024-01-01", "2024-01-02"} {
		if batch, err := st.MaterializeDate(date); err != nil || len(batch) != 1 {
			t.Fatalf("materialize %s: %v batch=%v", date, err, batch)
		}
	}
	if batch, err := st.MaterializeDate("2024-01-03"); err != nil || len(batch) != 0 {
		t.Fatalf("cap exceeded: %v batch=%v", err, batch)
	}

	// Deleting one instance frees a slot; the cap tracks what exists,
	// not a calendar prediction.
	tasks := st.TasksForDate("2024-01-02")
	if len(tasks) != 1 {
		t.Fatalf("expected one instance on Jan 2")
	}
	if err := st.DeleteTask(tasks[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if batch, err := st.MaterializeDate("2024-01-03"); err != nil || len(batch) != 1 {
		t.Fatalf("freed slot not reused: %v batch=%v", err, batch)
	}
}

func TestMaterializeBeforeAnchor(t *testing.T) {
	st := newTestStore(t, Options{})

	if _, err := st.CreateRoutine(dailyUpsert("Future habit", "2024-06-01")); err != nil {
		t.Fatalf("create: %v", err)
	}
	batch, err := st.MaterializeDate("2024-05-31")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("materialized before anchor: %v", batch)
	}
}

func TestMaterializeInvalidDate(t *testing.T) {
	st := newTestStore(t, Options{})
	if _, err := st.MaterializeDate("01-05-2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("got %v, want ErrInvalidDate", err)
	}
}

func TestMaterializeSchedulesReminders(t *testing.T) {
	sched := &captureScheduler{}
	st := newTestStore(t, Options{Scheduler: sched})

	timed := model.RoutineUpsert{
		Title:            "Medication",
		StartDate:        strp("2024-01-01"),
		Time:             &model.TimeOfDay{Hour: 8, Minute: 0},
		NotificationType: "push",
		Recurrence: model.Recurrence{
			Freq:  model.FreqDaily,
			Daily: &model.DailyRule{Interval: 1},
		},
	}
	if _, err := st.CreateRoutine(timed); err != nil {
		t.Fatalf("create timed: %v", err)
	}
	if _, err := st.CreateRoutine(dailyUpsert("Untimed", "2024-01-01")); err != nil {
		t.Fatalf("create untimed: %v", err)
	}

	batch, err := st.MaterializeDate("2024-01-02")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch = %d", len(batch))
	}

	reminders := sched.all()
	if len(reminders) != 1 {
		t.Fatalf("reminders = %d, want 1 (timed instance only)", len(reminders))
	}
	rem := reminders[0]
	if rem.Title != "Medication" || rem.Date != "2024-01-02" || rem.Time.Hour != 8 || rem.NotificationType != "push" {
		t.Fatalf("bad reminder: %+v", rem)
	}
}

func TestSchedulerFailureDoesNotFailMaterialization(t *testing.T) {
	sched := &captureScheduler{err: fmt.Errorf("push gateway down")}
	st := newTestStore(t, Options{Scheduler: sched})

	in := dailyUpsert("Medication", "2024-01-01")
	in.Time = &model.TimeOfDay{Hour: 8}
	if _, err := st.CreateRoutine(in); err != nil {
		t.Fatalf("create: %v", err)
	}

	batch, err := st.MaterializeDate("2024-01-02")
	if err != nil {
		t.Fatalf("scheduler failure leaked: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("batch = %d", len(batch))
	}
	if got := len(st.TasksForDate("2024-01-02")); got != 1 {
		t.Fatalf("instance not committed despite scheduler failure")
	}
}
