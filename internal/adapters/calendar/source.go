// Package calendar lists calendar events for a time window from Google
// Calendar, iCalendar feeds and JSON fixture files.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/shiftsheet/internal/domain/dedupe"
	"github.com/okian/shiftsheet/internal/domain/shift"
	"github.com/okian/shiftsheet/pkg/logger"
	"github.com/okian/shiftsheet/pkg/metrics"
)

// Source is a read-only provider of calendar events.
type Source interface {
	Name() string
	List(ctx context.Context, w Window) ([]shift.CalendarEvent, error)
}

// Window bounds a listing; both ends are inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthWindow returns the window covering the UTC calendar month of now:
// its first instant up to one second before the next month starts.
func MonthWindow(now time.Time) Window {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Second),
	}
}

// Overlaps reports whether [start, end) intersects the window.
func (w Window) Overlaps(start, end time.Time) bool {
	if end.Before(start) {
		end = start
	}
	return !start.After(w.End) && (end.After(w.Start) || start.Equal(w.Start))
}

// Merged lists every configured source and combines the results: the first
// occurrence of an event identity wins and the output is sorted by start.
type Merged struct {
	sources []Source
	logger  logger.Logger
}

// MergedOption applies a configuration option to Merged.
type MergedOption func(*Merged)

// WithMergeLogger sets the logger used by Merged.
func WithMergeLogger(l logger.Logger) MergedOption {
	return func(m *Merged) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMerged combines sources in priority order.
func NewMerged(sources []Source, opts ...MergedOption) *Merged {
	m := &Merged{
		sources: append([]Source(nil), sources...),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Source.
func (m *Merged) Name() string { return "merged" }

// Sources returns the names of the combined sources.
func (m *Merged) Sources() []string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return names
}

// List implements Source. A failing source fails the whole listing.
func (m *Merged) List(ctx context.Context, w Window) ([]shift.CalendarEvent, error) {
	if len(m.sources) == 0 {
		return nil, ErrNoSources
	}

	seen := dedupe.NewInMemoryDeduper()
	var out []shift.CalendarEvent
	for _, src := range m.sources {
		started := time.Now()
		events, err := src.List(ctx, w)
		metrics.RecordSourceFetchLatency(src.Name(), float64(time.Since(started).Milliseconds()))
		if err != nil {
			return nil, fmt.Errorf("calendar.list %s: %w", src.Name(), err)
		}

		dropped := 0
		for _, ev := range events {
			if seen.SeenAndRecord(ctx, EventKey(ev)) {
				dropped++
				continue
			}
			out = append(out, ev)
		}
		m.logger.Debug(ctx, "calendar source listed",
			logger.String("source", src.Name()),
			logger.Int("events", len(events)),
			logger.Int("duplicates", dropped),
			logger.Int("unique", int(seen.Size())),
		)
	}

	SortByStart(out)
	if out == nil {
		out = []shift.CalendarEvent{}
	}
	return out, nil
}

// EventKey identifies an event across sources: its ID, or its title and start
// when the source assigned none.
func EventKey(ev shift.CalendarEvent) string {
	if ev.ID != "" {
		return ev.ID
	}
	return ev.Title + "\x00" + ev.Start
}

// SortByStart orders events by start instant. Events whose start cannot be
// read keep their relative order after all readable ones.
func SortByStart(events []shift.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, aok := parseStart(events[i].Start)
		b, bok := parseStart(events[j].Start)
		switch {
		case aok && bok:
			return a.Before(b)
		case aok:
			return true
		default:
			return false
		}
	})
}

func parseStart(v string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true
	}
	return time.Time{}, false
}
