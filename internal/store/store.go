// Package store owns all persisted state: routine definitions, task
// instances, and the date index that maps YYYY-MM-DD strings to the
// instances belonging to that day. Every mutation is whole-state
// replacement: read the current state, compute the next one, persist it,
// then swap it in. Nothing is observable half-applied.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reach-kraj/DayToday/internal/calendar"
	"github.com/reach-kraj/DayToday/internal/model"
	"github.com/reach-kraj/DayToday/internal/notify"
	"github.com/reach-kraj/DayToday/internal/telemetry"
)

var (
	ErrRoutineNotFound = errors.New("routine not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidRoutine  = errors.New("invalid routine definition")
	ErrInvalidTask     = errors.New("invalid task")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
)

var defaultEndOfDay = model.TimeOfDay{Hour: 18, Minute: 0}

type state struct {
	Routines    map[model.RoutineID]model.Routine   `json:"routines"`
	Tasks       map[model.TaskID]model.TaskInstance `json:"tasks"`
	TasksByDate map[string][]model.TaskID           `json:"tasksByDate"`
	EndOfDay    model.TimeOfDay                     `json:"endOfDayTime"`
}

func newState() state {
	return state{
		Routines:    map[model.RoutineID]model.Routine{},
		Tasks:       map[model.TaskID]model.TaskInstance{},
		TasksByDate: map[string][]model.TaskID{},
		EndOfDay:    defaultEndOfDay,
	}
}

func (s state) clone() state {
	next := state{
		Routines:    make(map[model.RoutineID]model.Routine, len(s.Routines)),
		Tasks:       make(map[model.TaskID]model.TaskInstance, len(s.Tasks)),
		TasksByDate: make(map[string][]model.TaskID, len(s.TasksByDate)),
		EndOfDay:    s.EndOfDay,
	}
	for id, r := range s.Routines {
		next.Routines[id] = r
	}
	for id, t := range s.Tasks {
		next.Tasks[id] = t
	}
	for date, ids := range s.TasksByDate {
		next.TasksByDate[date] = append([]model.TaskID(nil), ids...)
	}
	return next
}

// Store is the single injectable state container. The surrounding
// application owns the one live instance; nothing here is a package-level
// global.
type Store struct {
	mu      sync.RWMutex
	s       state
	backend Backend
	sched   notify.Scheduler
	events  telemetry.Repository
	logger  *log.Logger
	now     func() time.Time
}

type Options struct {
	Backend   Backend
	Scheduler notify.Scheduler
	Events    telemetry.Repository
	Logger    *log.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

func New(opts Options) (*Store, error) {
	if opts.Backend == nil {
		opts.Backend = NewMemoryBackend()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	st := &Store{
		s:       newState(),
		backend: opts.Backend,
		sched:   opts.Scheduler,
		events:  opts.Events,
		logger:  opts.Logger,
		now:     opts.Now,
	}

	blob, err := opts.Backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if len(blob) > 0 {
		var loaded state
		if err := json.Unmarshal(blob, &loaded); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
		if loaded.Routines == nil {
			loaded.Routines = map[model.RoutineID]model.Routine{}
		}
		if loaded.Tasks == nil {
			loaded.Tasks = map[model.TaskID]model.TaskInstance{}
		}
		if loaded.TasksByDate == nil {
			loaded.TasksByDate = map[string][]model.TaskID{}
		}
		if (loaded.EndOfDay == model.TimeOfDay{}) {
			loaded.EndOfDay = defaultEndOfDay
		}
		st.s = loaded
	}
	return st, nil
}

// commitLocked persists the candidate state and swaps it in on success.
// The caller holds the write lock. On persistence failure the in-memory
// state is left untouched.
func (st *Store) commitLocked(next state) error {
	blob, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := st.backend.Save(blob); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	st.s = next
	return nil
}

func (st *Store) record(eventType telemetry.EventType, metadata telemetry.EventMetadata) {
	if st.events == nil {
		return
	}
	if err := st.events.RecordEvent(eventType, metadata); err != nil {
		st.logger.Printf("[telemetry] record %s: %v", eventType, err)
	}
}

func newRoutineID() model.RoutineID { return model.RoutineID(uuid.NewString()) }
func newTaskID() model.TaskID       { return model.TaskID(uuid.NewString()) }

func validateRoutineInput(in model.RoutineUpsert) error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRoutine)
	}
	if in.Time != nil {
		if err := in.Time.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
		}
	}
	if in.StartDate != nil {
		if _, err := calendar.ParseDate(*in.StartDate); err != nil {
			return fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidRoutine)
		}
	}
	if err := in.Recurrence.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
	}
	return nil
}

func (st *Store) CreateRoutine(in model.RoutineUpsert) (model.Routine, error) {
	if err := validateRoutineInput(in); err != nil {
		return model.Routine{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	r := model.Routine{
		ID:               newRoutineID(),
		Title:            in.Title,
		Time:             in.Time,
		StartDate:        in.StartDate,
		Recurrence:       in.Recurrence,
		NotificationType: in.NotificationType,
		Tags:             in.Tags,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	next := st.s.clone()
	next.Routines[r.ID] = r
	if err := st.commitLocked(next); err != nil {
		return model.Routine{}, err
	}

	st.record(telemetry.EventRoutineCreated, telemetry.EventMetadata{
		"routine_id": string(r.ID),
		"freq":       string(r.Recurrence.Freq),
	})
	return r, nil
}

func (st *Store) GetRoutine(id model.RoutineID) (model.Routine, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	r, ok := st.s.Routines[id]
	if !ok {
		return model.Routine{}, ErrRoutineNotFound
	}
	return r, nil
}

func (st *Store) ListRoutines() []model.Routine {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return sortedRoutines(st.s)
}

func sortedRoutines(s state) []model.Routine {
	out := make([]model.Routine, 0, len(s.Routines))
	for _, r := range s.Routines {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RoutinePatch is a partial routine update; nil means "no change". An
// empty StartDate string clears the explicit start date back to the
// creation-day anchor.
type RoutinePatch struct {
	Title            *string           `json:"title,omitempty"`
	Time             *model.TimeOfDay  `json:"time,omitempty"`
	StartDate        *string           `json:"startDate,omitempty"`
	Recurrence       *model.Recurrence `json:"recurrence,omitempty"`
	NotificationType *string           `json:"notificationType,omitempty"`
	Tags             *[]string         `json:"tags,omitempty"`
}

// UpdateRoutine applies the patch and propagates title/time changes onto
// every linked instance that has not been completed yet. Completed
// instances are historical records and stay frozen.
func (st *Store) UpdateRoutine(id model.RoutineID, p RoutinePatch) (model.Routine, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	r, ok := st.s.Routines[id]
	if !ok {
		return model.Routine{}, ErrRoutineNotFound
	}

	if p.Title != nil {
		if *p.Title == "" {
			return model.Routine{}, fmt.Errorf("%w: title is required", ErrInvalidRoutine)
		}
		r.Title = *p.Title
	}
	if p.Time != nil {
		if err := p.Time.Validate(); err != nil {
			return model.Routine{}, fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
		}
		r.Time = p.Time
	}
	if p.StartDate != nil {
		if *p.StartDate == "" {
			r.StartDate = nil
		} else {
			if _, err := calendar.ParseDate(*p.StartDate); err != nil {
				return model.Routine{}, fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidRoutine)
			}
			r.StartDate = p.StartDate
		}
	}
	if p.Recurrence != nil {
		if err := p.Recurrence.Validate(); err != nil {
			return model.Routine{}, fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
		}
		r.Recurrence = *p.Recurrence
	}
	if p.NotificationType != nil {
		r.NotificationType = *p.NotificationType
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
	r.UpdatedAt = st.now()

	next := st.s.clone()
	next.Routines[id] = r

	if p.Title != nil || p.Time != nil {
		for tid, t := range next.Tasks {
			if t.RoutineID == nil || *t.RoutineID != id || t.Completed {
				continue
			}
			if p.Title != nil {
				t.Title = *p.Title
			}
			if p.Time != nil {
				t.Time = p.Time
			}
			next.Tasks[tid] = t
		}
	}

	if err := st.commitLocked(next); err != nil {
		return model.Routine{}, err
	}

	st.record(telemetry.EventRoutineUpdated, telemetry.EventMetadata{
		"routine_id": string(id),
	})
	return r, nil
}

// DeleteRoutine removes the routine and cascades to every instance bound
// to it, across all dates, scrubbing the date index as it goes. Instances
// of other routines and manual instances are untouched.
func (st *Store) DeleteRoutine(id model.RoutineID) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.s.Routines[id]; !ok {
		return ErrRoutineNotFound
	}

	next := st.s.clone()
	delete(next.Routines, id)

	removed := 0
	for tid, t := range next.Tasks {
		if t.RoutineID == nil || *t.RoutineID != id {
			continue
		}
		delete(next.Tasks, tid)
		next.TasksByDate[t.Date] = removeTaskID(next.TasksByDate[t.Date], tid)
		if len(next.TasksByDate[t.Date]) == 0 {
			delete(next.TasksByDate, t.Date)
		}
		removed++
	}

	if err := st.commitLocked(next); err != nil {
		return err
	}

	st.record(telemetry.EventRoutineDeleted, telemetry.EventMetadata{
		"routine_id":        string(id),
		"instances_removed": removed,
	})
	return nil
}

func removeTaskID(ids []model.TaskID, id model.TaskID) []model.TaskID {
	out := ids[:0]
	for _, cur := range ids {
		if cur != id {
			out = append(out, cur)
		}
	}
	return out
}

func (st *Store) EndOfDayTime() model.TimeOfDay {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.EndOfDay
}

func (st *Store) SetEndOfDayTime(t model.TimeOfDay) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.s.clone()
	next.EndOfDay = t
	return st.commitLocked(next)
}
