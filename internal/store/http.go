package store

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/reach-kraj/DayToday/internal/calendar"
	"github.com/reach-kraj/DayToday/internal/model"
	"github.com/reach-kraj/DayToday/internal/recurrence"
	"github.com/reach-kraj/DayToday/internal/telemetry"
)

// Handler exposes the store to the screen layer over JSON HTTP.
type Handler struct {
	store        *Store
	events       telemetry.Repository
	maxRangeDays int
}

func NewHandler(st *Store) *Handler {
	return &Handler{store: st, maxRangeDays: 366}
}

func (h *Handler) SetEvents(events telemetry.Repository) {
	h.events = events
}

// SetMaxRangeDays caps the occurrences endpoint. Enumeration is O(days in
// range), so the server refuses unbounded preview requests outright.
func (h *Handler) SetMaxRangeDays(days int) {
	if days > 0 {
		h.maxRangeDays = days
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRoutineNotFound), errors.Is(err, ErrTaskNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidRoutine), errors.Is(err, ErrInvalidTask), errors.Is(err, ErrInvalidDate):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// /api/routines  (collection)
func (h *Handler) RoutinesRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, 200, h.store.ListRoutines())

	case http.MethodPost:
		var in model.RoutineUpsert
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		routine, err := h.store.CreateRoutine(in)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 201, routine)

	default:
		writeErr(w, 405, "method not allowed")
	}
}

// /api/routines/{id}
// /api/routines/{id}/occurrences?start=YYYY-MM-DD&end=YYYY-MM-DD
// /api/routines/{id}/calendar.ics
func (h *Handler) RoutinesSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/routines/")
	parts := strings.SplitN(rest, "/", 2)
	id := model.RoutineID(parts[0])
	if id == "" {
		writeErr(w, 404, "routine id required")
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "occurrences":
			h.routineOccurrences(w, r, id)
		case "calendar.ics":
			h.routineCalendar(w, r, id)
		default:
			writeErr(w, 404, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		routine, err := h.store.GetRoutine(id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 200, routine)

	case http.MethodPut, http.MethodPatch:
		var p RoutinePatch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		routine, err := h.store.UpdateRoutine(id, p)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 200, routine)

	case http.MethodDelete:
		if err := h.store.DeleteRoutine(id); err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"deleted": string(id)})

	default:
		writeErr(w, 405, "method not allowed")
	}
}

func (h *Handler) routineOccurrences(w http.ResponseWriter, r *http.Request, id model.RoutineID) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	routine, err := h.store.GetRoutine(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}

	q := r.URL.Query()
	start, err := calendar.ParseDate(q.Get("start"))
	if err != nil {
		writeErr(w, 400, "start must be YYYY-MM-DD")
		return
	}
	end, err := calendar.ParseDate(q.Get("end"))
	if err != nil {
		writeErr(w, 400, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeErr(w, 400, "end precedes start")
		return
	}
	if calendar.DaysBetween(start, end) >= h.maxRangeDays {
		writeErr(w, 400, "range too large")
		return
	}

	writeJSON(w, 200, map[string]any{
		"routineId":   string(id),
		"occurrences": recurrence.Occurrences(routine, start, end),
	})
}

func (h *Handler) routineCalendar(w http.ResponseWriter, r *http.Request, id model.RoutineID) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	routine, err := h.store.GetRoutine(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	ics, err := recurrence.BuildRoutineCalendarICS(routine, time.Now())
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="routine.ics"`)
	w.WriteHeader(200)
	_, _ = w.Write([]byte(ics))
}

// /api/tasks?date=YYYY-MM-DD  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		date := r.URL.Query().Get("date")
		if _, err := calendar.ParseDate(date); err != nil {
			writeErr(w, 400, "date must be YYYY-MM-DD")
			return
		}
		writeJSON(w, 200, h.store.TasksForDate(date))

	case http.MethodPost:
		var in model.TaskUpsert
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		t, err := h.store.CreateTask(in)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 201, t)

	default:
		writeErr(w, 405, "method not allowed")
	}
}

// /api/tasks/{id}
// /api/tasks/{id}/toggle
// /api/tasks/{id}/move   {"date":"YYYY-MM-DD"}
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	parts := strings.SplitN(rest, "/", 2)
	id := model.TaskID(parts[0])
	if id == "" {
		writeErr(w, 404, "task id required")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			writeErr(w, 405, "method not allowed")
			return
		}
		switch parts[1] {
		case "toggle":
			t, err := h.store.ToggleTask(id)
			if err != nil {
				writeStoreErr(w, err)
				return
			}
			writeJSON(w, 200, t)
		case "move":
			var in struct {
				Date string `json:"date"`
			}
			if err := decodeJSON(r, &in); err != nil {
				writeErr(w, 400, "bad json")
				return
			}
			t, err := h.store.MoveTask(id, in.Date)
			if err != nil {
				writeStoreErr(w, err)
				return
			}
			writeJSON(w, 200, t)
		default:
			writeErr(w, 404, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.store.GetTask(id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 200, t)

	case http.MethodPatch, http.MethodPut:
		var p TaskPatch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		t, err := h.store.UpdateTask(id, p)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 200, t)

	case http.MethodDelete:
		if err := h.store.DeleteTask(id); err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"deleted": string(id)})

	default:
		writeErr(w, 405, "method not allowed")
	}
}

// /api/days/{date}/materialize
func (h *Handler) DaysSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/days/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] != "materialize" {
		writeErr(w, 404, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	batch, err := h.store.MaterializeDate(parts[0])
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	if batch == nil {
		batch = []model.TaskInstance{}
	}
	writeJSON(w, 200, map[string]any{
		"date":    parts[0],
		"created": batch,
	})
}

// /api/settings/end-of-day
func (h *Handler) EndOfDay(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, 200, h.store.EndOfDayTime())

	case http.MethodPut:
		var t model.TimeOfDay
		if err := decodeJSON(r, &t); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if err := h.store.SetEndOfDayTime(t); err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, 200, t)

	default:
		writeErr(w, 405, "method not allowed")
	}
}

// /api/telemetry/stats?since=YYYY-MM-DD
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	if h.events == nil {
		writeErr(w, 404, "telemetry disabled")
		return
	}

	since := time.Time{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := calendar.ParseDate(raw)
		if err != nil {
			writeErr(w, 400, "since must be YYYY-MM-DD")
			return
		}
		since = parsed
	}

	events, err := h.events.GetEvents(since, nil)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	stats, err := telemetry.CalculateStats(events, since)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, stats)
}
