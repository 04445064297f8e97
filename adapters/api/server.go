package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// App serves the read-only results API the dashboard polls. All routes
// return JSON; the engine never accepts writes over HTTP.
type App struct {
	router  *chi.Mux
	results ports.ResultRepository
	port    string
}

// Config holds API application configuration
type Config struct {
	Port string
}

// NewApp creates a new results API application
func NewApp(config Config, results ports.ResultRepository) *App {
	app := &App{
		router:  chi.NewRouter(),
		results: results,
		port:    config.Port,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	a.router.Get("/api/report", a.handleLatestReport)
	a.router.Get("/api/report/{runID}", a.handleReport)
	a.router.Get("/api/metrics/{runID}", a.handleMetricResults)
	a.router.Get("/api/runs", a.handleListRuns)
}

// Router exposes the configured handler, mainly for tests.
func (a *App) Router() http.Handler {
	return a.router
}

// Start runs the HTTP server until the listener fails.
func (a *App) Start() error {
	addr := ":" + a.port
	log.Printf("[API] listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *App) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.results.LatestReport(r.Context())
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, report)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		a.respondJSON(w, http.StatusBadRequest, errorBody("invalid run ID"))
		return
	}
	report, err := a.results.GetReport(r.Context(), runID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, report)
}

func (a *App) handleMetricResults(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		a.respondJSON(w, http.StatusBadRequest, errorBody("invalid run ID"))
		return
	}
	results, err := a.results.GetMetricResults(r.Context(), runID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{
		"run_id":  runID,
		"results": results,
	})
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			a.respondJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	runs, err := a.results.ListRuns(r.Context(), limit)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if runs == nil {
		runs = []ports.RunSummary{}
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (a *App) respondError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFoundError(err):
		a.respondJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, context.Canceled):
		a.respondJSON(w, http.StatusServiceUnavailable, errorBody("request canceled"))
	default:
		log.Printf("[API] internal error: %v", err)
		a.respondJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func (a *App) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
