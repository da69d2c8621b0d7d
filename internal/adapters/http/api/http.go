// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/afero"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
	"github.com/okian/shiftsheet/internal/adapters/sheet"
	service "github.com/okian/shiftsheet/internal/app"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Names lists the people found in this month's event titles.
	Names(ctx context.Context) ([]string, calendar.Window, error)

	// Preview parses this month's shifts for a person without writing.
	Preview(ctx context.Context, name string) (service.Result, error)

	// Generate writes this month's timesheet for a person.
	Generate(ctx context.Context, name string) (service.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	namesHandler     *NamesHandler
	shiftsHandler    *ShiftsHandler
	timesheetHandler *TimesheetHandler
}

// Option applies a configuration option to the Server.
type Option func(*options)

type options struct {
	fs afero.Fs
}

// WithFs sets the filesystem generated timesheets are read back from.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		namesHandler:     NewNamesHandler(deps),
		shiftsHandler:    NewShiftsHandler(deps),
		timesheetHandler: NewTimesheetHandler(deps, o.fs),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/names", MetricsMiddleware(s.namesHandler.HandleGetNames, "names"))
	mux.HandleFunc("/shifts", MetricsMiddleware(s.shiftsHandler.HandleGetShifts, "shifts"))
	mux.HandleFunc("/timesheet", MetricsMiddleware(s.timesheetHandler.HandlePostTimesheet, "timesheet"))
}

// Timesheet returns the POST /timesheet handler for mounting on other paths.
func (s *Server) Timesheet() http.HandlerFunc {
	return MetricsMiddleware(s.timesheetHandler.HandlePostTimesheet, "timesheet")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if rw, ok := w.(*responseWriter); ok {
		rw.errorCode = code
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps generation errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyName), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUnknownName):
		writeError(w, http.StatusNotFound, "unknown_name", err)
	case errors.Is(err, service.ErrFetch), errors.Is(err, service.ErrNoSource):
		writeError(w, http.StatusBadGateway, "calendar_unavailable", err)
	case errors.Is(err, sheet.ErrRecord):
		writeError(w, http.StatusInternalServerError, "invalid_record", err)
	default:
		writeError(w, http.StatusInternalServerError, "timesheet_failed", err)
	}
}
