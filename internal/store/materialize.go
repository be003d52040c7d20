package store

import (
	"time"

	"github.com/reach-kraj/DayToday/internal/calendar"
	"github.com/reach-kraj/DayToday/internal/model"
	"github.com/reach-kraj/DayToday/internal/notify"
	"github.com/reach-kraj/DayToday/internal/recurrence"
	"github.com/reach-kraj/DayToday/internal/telemetry"
)

// planMaterialization computes the batch of new instances for one day
// against a state snapshot. Pure with respect to its inputs; the caller
// commits the batch.
//
// The scan of the day's existing index is the idempotence guard and the
// sole concurrency-correctness mechanism: a routine already represented
// on the day is skipped unconditionally, so replaying the call against a
// consistent snapshot inserts nothing. Ids indexed without a backing
// instance count as absent here; the materializer never repairs them.
func planMaterialization(date string, day time.Time, s state, now time.Time) []model.TaskInstance {
	already := map[model.RoutineID]bool{}
	for _, tid := range s.TasksByDate[date] {
		t, ok := s.Tasks[tid]
		if !ok || t.RoutineID == nil {
			continue
		}
		already[*t.RoutineID] = true
	}

	var batch []model.TaskInstance
	for _, r := range sortedRoutines(s) {
		r := r // per-iteration copy: &r.ID below must not alias across iterations under go <1.22
		if already[r.ID] {
			continue
		}
		if r.AnchorDate().After(day) {
			continue
		}
		// The occurrence cap counts instances ever materialized for the
		// routine across all dates, not a calendar prediction, so it stays
		// correct when users delete or move instances irregularly.
		if end := r.Recurrence.ActiveEnd(); end != nil && end.Count > 0 {
			if countMaterialized(s, r.ID) >= end.Count {
				continue
			}
		}
		if !recurrence.OccursOn(r, day) {
			continue
		}
		batch = append(batch, model.TaskInstance{
			ID:               newTaskID(),
			RoutineID:        &r.ID,
			Title:            r.Title,
			Date:             date,
			Time:             r.Time,
			Completed:        false,
			NotificationType: r.NotificationType,
			CreatedAt:        now,
		})
	}
	return batch
}

func countMaterialized(s state, id model.RoutineID) int {
	n := 0
	for _, t := range s.Tasks {
		if t.RoutineID != nil && *t.RoutineID == id {
			n++
		}
	}
	return n
}

// MaterializeDate creates one instance per routine firing on the date and
// returns the freshly created batch. Calling it again for the same date
// is a no-op. The batch lands in a single commit; for every new timed
// instance a reminder request is handed to the scheduler after the commit,
// fire-and-forget.
func (st *Store) MaterializeDate(date string) ([]model.TaskInstance, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	st.mu.Lock()
	batch := planMaterialization(date, day, st.s, st.now())
	if len(batch) > 0 {
		next := st.s.clone()
		for _, t := range batch {
			next.Tasks[t.ID] = t
			next.TasksByDate[date] = append(next.TasksByDate[date], t.ID)
		}
		if err := st.commitLocked(next); err != nil {
			st.mu.Unlock()
			return nil, err
		}
	}
	st.mu.Unlock()

	for _, t := range batch {
		st.record(telemetry.EventTaskMaterialized, telemetry.EventMetadata{
			"task_id":    string(t.ID),
			"routine_id": string(*t.RoutineID),
			"date":       date,
			"freq":       freqOf(st, *t.RoutineID),
		})
		if t.Time != nil {
			st.scheduleReminder(t)
		}
	}
	return batch, nil
}

func freqOf(st *Store, id model.RoutineID) string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if r, ok := st.s.Routines[id]; ok {
		return string(r.Recurrence.Freq)
	}
	return ""
}

// scheduleReminder is best-effort: a scheduler failure is logged and
// otherwise ignored. Instance creation is already committed by the time
// this runs and is never rolled back.
func (st *Store) scheduleReminder(t model.TaskInstance) {
	if st.sched == nil {
		return
	}
	err := st.sched.Schedule(notify.Reminder{
		InstanceID:       t.ID,
		Title:            t.Title,
		Date:             t.Date,
		Time:             *t.Time,
		NotificationType: t.NotificationType,
	})
	if err != nil {
		st.logger.Printf("[notify] schedule reminder for %s: %v", t.ID, err)
		return
	}
	st.record(telemetry.EventReminderScheduled, telemetry.EventMetadata{
		"task_id": string(t.ID),
		"date":    t.Date,
	})
}
