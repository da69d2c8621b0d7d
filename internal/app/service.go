// Package service runs timesheet generations: it lists the month's calendar
// events, parses them for one person and writes the workbook.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
	"github.com/okian/shiftsheet/internal/adapters/sheet"
	"github.com/okian/shiftsheet/internal/domain/shift"
	"github.com/okian/shiftsheet/pkg/logger"
	"github.com/okian/shiftsheet/pkg/metrics"
)

// Failure stages reported to metrics.
const (
	stageFetch = "fetch"
	stageName  = "name"
	stageWrite = "write"
)

// TimesheetWriter persists parsed records into runDir. *sheet.Writer
// satisfies it.
type TimesheetWriter interface {
	WriteRun(ctx context.Context, runDir string, records []shift.Record, layout sheet.Layout, now time.Time) (string, error)
}

// Service implements the API dependencies for timesheet generation.
type Service struct {
	mu sync.RWMutex

	// Core components
	source calendar.Source
	parser *shift.Parser
	writer TimesheetWriter

	// Configuration
	layout           sheet.Layout
	roles            map[string]string
	requireKnownName bool
	now              func() time.Time

	// State
	started     bool
	generated   int64
	failures    int64
	lastRun     *Result
	lastFailure string

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where calendar events come from.
func WithSource(src calendar.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithWriter sets the timesheet writer.
func WithWriter(w TimesheetWriter) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithLayout sets where records are placed in the sheet.
func WithLayout(l sheet.Layout) Option {
	return func(s *Service) {
		s.layout = l
	}
}

// WithRoles sets the role code to position table used by the parser.
func WithRoles(roles map[string]string) Option {
	return func(s *Service) {
		if len(roles) > 0 {
			s.roles = roles
		}
	}
}

// WithRequireKnownName rejects names that appear in no event title of the month.
func WithRequireKnownName(require bool) Option {
	return func(s *Service) {
		s.requireKnownName = require
	}
}

// WithClock overrides the time source that picks the month.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		layout:           sheet.DefaultLayout(),
		roles:            shift.DefaultRoles(),
		requireKnownName: true,
		now:              time.Now,
		logger:           logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.parser = shift.NewParser(
		shift.WithRoles(s.roles),
		shift.WithLogger(s.logger),
	)
	return s
}

// Start checks the service is wired and marks it ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}
	if s.writer == nil {
		return ErrNoWriter
	}
	if err := s.layout.Validate(); err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "timesheet service started",
		logger.String("source", s.source.Name()),
		logger.Int("startRow", s.layout.StartRow),
		logger.Int("roles", len(s.roles)),
	)
	return nil
}

// Stop marks the service stopped. Generations already running finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "timesheet service stopped")
}

// Names returns the people named in this month's event titles.
func (s *Service) Names(ctx context.Context) ([]string, calendar.Window, error) {
	run := NewRun("", s.now())
	events, err := s.fetch(ctx, run)
	if err != nil {
		return nil, run.Window, err
	}
	return shift.Names(events), run.Window, nil
}

// Preview parses this month's shifts for name without writing a file.
func (s *Service) Preview(ctx context.Context, name string) (Result, error) {
	started := time.Now()
	run, events, err := s.prepare(ctx, name)
	if err != nil {
		return Result{Run: run}, err
	}
	records := s.parser.Parse(ctx, events, run.Name)
	return Result{
		Run:      run,
		Records:  records,
		Summary:  shift.Summarize(records),
		Events:   len(events),
		Duration: time.Since(started),
	}, nil
}

// Generate lists this month's events, parses the shifts of name and writes
// the timesheet into a directory named after the run ID, so concurrent runs
// never share a file.
func (s *Service) Generate(ctx context.Context, name string) (Result, error) {
	started := time.Now()
	run, events, err := s.prepare(ctx, name)
	if err != nil {
		return Result{Run: run}, err
	}
	if s.writer == nil {
		return Result{Run: run}, ErrNoWriter
	}

	records := s.parser.Parse(ctx, events, run.Name)
	path, err := s.writer.WriteRun(ctx, run.ID.String(), records, s.layout, run.Now)
	if err != nil {
		s.fail(ctx, run, stageWrite, err)
		return Result{Run: run, Records: records}, fmt.Errorf("generate %s: %w", run.ID, err)
	}

	res := Result{
		Run:      run,
		Path:     path,
		Records:  records,
		Summary:  shift.Summarize(records),
		Events:   len(events),
		Duration: time.Since(started),
	}
	metrics.RecordTimesheetGenerated(len(records), res.Summary.TotalHours, float64(res.Duration.Milliseconds()))

	s.mu.Lock()
	s.generated++
	last := res
	s.lastRun = &last
	s.mu.Unlock()

	s.logger.Info(ctx, "timesheet generated",
		logger.String("run", run.ID.String()),
		logger.String("name", run.Name),
		logger.String("file", path),
		logger.Int("events", len(events)),
		logger.Int("shifts", len(records)),
		logger.Float64("hours", res.Summary.TotalHours),
		logger.Int("unknownPositions", res.Summary.Unknown),
	)
	return res, nil
}

// prepare validates name and lists the month's events for a new run.
func (s *Service) prepare(ctx context.Context, name string) (Run, []shift.CalendarEvent, error) {
	run := NewRun(strings.TrimSpace(name), s.now())
	if run.Name == "" {
		s.fail(ctx, run, stageName, ErrEmptyName)
		return run, nil, ErrEmptyName
	}

	events, err := s.fetch(ctx, run)
	if err != nil {
		s.fail(ctx, run, stageFetch, err)
		return run, nil, err
	}

	if s.requireKnownName && !shift.HasName(events, run.Name) {
		err := fmt.Errorf("%w: %q", ErrUnknownName, run.Name)
		s.fail(ctx, run, stageName, err)
		return run, nil, err
	}
	return run, events, nil
}

func (s *Service) fetch(ctx context.Context, run Run) ([]shift.CalendarEvent, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	events, err := s.source.List(ctx, run.Window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return events, nil
}

func (s *Service) fail(ctx context.Context, run Run, stage string, err error) {
	metrics.RecordGenerationFailure(stage)

	s.mu.Lock()
	s.failures++
	s.lastFailure = err.Error()
	s.mu.Unlock()

	s.logger.Warn(ctx, "timesheet run failed",
		logger.String("run", run.ID.String()),
		logger.String("name", run.Name),
		logger.String("stage", stage),
		logger.Error(err),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"generated":        s.generated,
		"failures":         s.failures,
		"requireKnownName": s.requireKnownName,
		"layout":           s.layout,
	}
	if s.source != nil {
		stats["source"] = s.source.Name()
	}
	if s.lastRun != nil {
		stats["lastRun"] = map[string]interface{}{
			"id":     s.lastRun.Run.ID.String(),
			"name":   s.lastRun.Run.Name,
			"file":   s.lastRun.Path,
			"shifts": s.lastRun.Summary.Shifts,
			"hours":  s.lastRun.Summary.TotalHours,
			"at":     s.lastRun.Run.Now.UTC().Format(time.RFC3339),
		}
	}
	if s.lastFailure != "" {
		stats["lastFailure"] = s.lastFailure
	}
	return stats
}
