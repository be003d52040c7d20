// Package serverapp assembles the HTTP server: storage backend, store,
// telemetry, notification scheduler, API routes, middleware.
package serverapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/reach-kraj/DayToday/internal/config"
	"github.com/reach-kraj/DayToday/internal/httpmw"
	"github.com/reach-kraj/DayToday/internal/model"
	"github.com/reach-kraj/DayToday/internal/notify"
	"github.com/reach-kraj/DayToday/internal/store"
	"github.com/reach-kraj/DayToday/internal/telemetry"
)

type Options struct {
	Config    *config.Config
	Logger    *log.Logger
	Scheduler notify.Scheduler
}

// App is the assembled server. Close releases the storage backend.
type App struct {
	Handler http.Handler
	Store   *store.Store
	Close   func() error
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Scheduler == nil {
		if cfg.Notifications.Enabled {
			opts.Scheduler = notify.NewLogScheduler(opts.Logger)
		} else {
			opts.Scheduler = notify.NopScheduler{}
		}
	}

	backend, closeBackend, err := buildBackend(cfg)
	if err != nil {
		return nil, err
	}

	blob, err := backend.Load()
	if err != nil {
		closeBackend()
		return nil, fmt.Errorf("probe state: %w", err)
	}
	fresh := len(blob) == 0

	events := telemetry.NewMemoryRepository()
	st, err := store.New(store.Options{
		Backend:   backend,
		Scheduler: opts.Scheduler,
		Events:    events,
		Logger:    opts.Logger,
	})
	if err != nil {
		closeBackend()
		return nil, err
	}

	if fresh {
		eod := model.TimeOfDay{Hour: cfg.EndOfDay.Hour, Minute: cfg.EndOfDay.Minute}
		if err := st.SetEndOfDayTime(eod); err != nil {
			closeBackend()
			return nil, err
		}
	}

	apiHandler := store.NewHandler(st)
	apiHandler.SetEvents(events)
	apiHandler.SetMaxRangeDays(cfg.Calendar.MaxEnumerationDays)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "daytoday",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := backend.Load(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "daytoday",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/routines", apiHandler.RoutinesRoot)
	mux.HandleFunc("/api/routines/", apiHandler.RoutinesSub)
	mux.HandleFunc("/api/tasks", apiHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", apiHandler.TasksSub)
	mux.HandleFunc("/api/days/", apiHandler.DaysSub)
	mux.HandleFunc("/api/settings/end-of-day", apiHandler.EndOfDay)
	mux.HandleFunc("/api/telemetry/stats", apiHandler.Stats)

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	handler := httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	)

	return &App{
		Handler: handler,
		Store:   st,
		Close:   closeBackend,
	}, nil
}

func buildBackend(cfg *config.Config) (store.Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Driver {
	case "memory":
		return store.NewMemoryBackend(), noop, nil
	case "file":
		b, err := store.NewFileBackend(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return b, noop, nil
	case "sqlite":
		b, err := store.NewSQLiteBackend(cfg.Storage.DataDir + "/daytoday.db")
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
