package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/spf13/afero"
	"github.com/teambition/rrule-go"

	"github.com/okian/shiftsheet/internal/domain/shift"
	"github.com/okian/shiftsheet/pkg/logger"
)

const (
	defaultFetchTimeout = 15 * time.Second
	maxFeedBytes        = 10 << 20

	icsDateLayout     = "20060102"
	icsLocalLayout    = "20060102T150405"
	icsUTCLayout      = "20060102T150405Z"
	instanceIDLayout  = "20060102T150405Z"
	propRecurrenceID  = "RECURRENCE-ID"
	statusCancelled   = "CANCELLED"
	paramValue        = "VALUE"
	paramTZID         = "TZID"
	paramValueDate    = "DATE"
	allDayEventLength = 24 * time.Hour
)

// ICSOption applies a configuration option to an ICS source.
type ICSOption func(*ICS)

// WithICSFs sets the filesystem local feeds are read from.
func WithICSFs(fs afero.Fs) ICSOption {
	return func(s *ICS) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithHTTPClient sets the client used for http(s) feeds.
func WithHTTPClient(c *http.Client) ICSOption {
	return func(s *ICS) {
		if c != nil {
			s.client = c
		}
	}
}

// WithICSLogger sets the source logger.
func WithICSLogger(l logger.Logger) ICSOption {
	return func(s *ICS) {
		if l != nil {
			s.logger = l
		}
	}
}

// ICS lists events from an iCalendar feed, a local path or an http(s) URL.
// Recurring events are expanded inside the requested window.
type ICS struct {
	location string
	fs       afero.Fs
	client   *http.Client
	logger   logger.Logger
}

// NewICS creates a source for the feed at location.
func NewICS(location string, opts ...ICSOption) *ICS {
	s := &ICS{
		location: strings.TrimSpace(location),
		fs:       afero.NewOsFs(),
		client:   &http.Client{Timeout: defaultFetchTimeout},
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Source.
func (s *ICS) Name() string { return "ics" }

// List implements Source.
func (s *ICS) List(ctx context.Context, w Window) ([]shift.CalendarEvent, error) {
	body, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: ics %s: %v", ErrParse, s.location, err)
	}

	var (
		masters   []vevent
		overrides = make(map[string]vevent)
	)
	for _, comp := range cal.Events() {
		ev, err := readVEvent(comp)
		if err != nil {
			s.logger.Debug(ctx, "ics event skipped",
				logger.String("feed", s.location),
				logger.Error(err),
			)
			continue
		}
		if ev.recurrenceID != nil {
			overrides[overrideKey(ev.uid, *ev.recurrenceID)] = ev
			continue
		}
		masters = append(masters, ev)
	}

	out := make([]shift.CalendarEvent, 0, len(masters)+len(overrides))
	for _, ev := range masters {
		if ev.rrule == "" {
			if !ev.cancelled && w.Overlaps(ev.start, ev.end) {
				out = append(out, ev.event(ev.uid, ev.start, ev.end))
			}
			continue
		}
		instances, err := ev.expand(w)
		if err != nil {
			s.logger.Debug(ctx, "ics recurrence skipped",
				logger.String("feed", s.location),
				logger.String("uid", ev.uid),
				logger.Error(err),
			)
			continue
		}
		for _, start := range instances {
			if _, moved := overrides[overrideKey(ev.uid, start)]; moved {
				continue
			}
			id := ev.uid + "_" + start.UTC().Format(instanceIDLayout)
			out = append(out, ev.event(id, start, start.Add(ev.end.Sub(ev.start))))
		}
	}
	for _, ov := range overrides {
		if ov.cancelled || !w.Overlaps(ov.start, ov.end) {
			continue
		}
		id := ov.uid + "_" + ov.recurrenceID.UTC().Format(instanceIDLayout)
		out = append(out, ov.event(id, ov.start, ov.end))
	}

	SortByStart(out)
	return out, nil
}

func (s *ICS) read(ctx context.Context) ([]byte, error) {
	if s.location == "" {
		return nil, fmt.Errorf("%w: ics feed location is empty", ErrFetch)
	}
	if !strings.HasPrefix(s.location, "http://") && !strings.HasPrefix(s.location, "https://") {
		b, err := afero.ReadFile(s.fs, s.location)
		if err != nil {
			return nil, fmt.Errorf("%w: ics %s: %v", ErrFetch, s.location, err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: ics %s: %v", ErrFetch, s.location, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ics %s: %v", ErrFetch, s.location, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ics %s: unexpected status %d", ErrFetch, s.location, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: ics %s: %v", ErrFetch, s.location, err)
	}
	return b, nil
}

// vevent is the subset of a VEVENT needed to produce calendar events.
type vevent struct {
	uid          string
	summary      string
	location     string
	start        time.Time
	end          time.Time
	allDay       bool
	cancelled    bool
	rrule        string
	exdates      []time.Time
	recurrenceID *time.Time
}

func readVEvent(ve *ical.VEvent) (vevent, error) {
	var ev vevent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, fmt.Errorf("missing UID")
	}
	ev.uid = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		ev.cancelled = strings.EqualFold(p.Value, statusCancelled)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, fmt.Errorf("event %s: missing DTSTART", ev.uid)
	}
	ev.allDay = isDateValue(dtStart)

	var err error
	if ev.allDay {
		if ev.start, err = time.Parse(icsDateLayout, dtStart.Value); err != nil {
			return ev, fmt.Errorf("event %s: DTSTART: %w", ev.uid, err)
		}
		ev.end = ev.start.Add(allDayEventLength)
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if end, err := time.Parse(icsDateLayout, p.Value); err == nil && end.After(ev.start) {
				ev.end = end
			}
		}
	} else {
		if ev.start, err = ve.GetStartAt(); err != nil {
			return ev, fmt.Errorf("event %s: DTSTART: %w", ev.uid, err)
		}
		ev.end = ev.start
		if end, err := ve.GetEndAt(); err == nil && end.After(ev.start) {
			ev.end = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), tzid(p), ev.start.Location()); err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}
	if p := ve.GetProperty(propRecurrenceID); p != nil {
		t, err := parseICSTime(p.Value, tzid(p), ev.start.Location())
		if err != nil {
			return ev, fmt.Errorf("event %s: RECURRENCE-ID: %w", ev.uid, err)
		}
		ev.recurrenceID = &t
	}
	return ev, nil
}

// expand returns the starts of the occurrences of a recurring event that
// overlap w, using the same test as single events.
func (ev vevent) expand(w Window) ([]time.Time, error) {
	if ev.cancelled {
		return nil, nil
	}
	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exdates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	dur := ev.end.Sub(ev.start)
	loc := ev.start.Location()
	candidates := set.Between(w.Start.Add(-dur).In(loc), w.End.In(loc), true)
	starts := make([]time.Time, 0, len(candidates))
	for _, start := range candidates {
		if w.Overlaps(start, start.Add(dur)) {
			starts = append(starts, start)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return starts, nil
}

func (ev vevent) event(id string, start, end time.Time) shift.CalendarEvent {
	return shift.CalendarEvent{
		ID:       id,
		Title:    ev.summary,
		Start:    ev.format(start),
		End:      ev.format(end),
		Location: ev.location,
	}
}

func (ev vevent) format(t time.Time) string {
	if ev.allDay {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

func overrideKey(uid string, start time.Time) string {
	return fmt.Sprintf("%s|%d", uid, start.Unix())
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters[paramValue]; ok && len(vs) > 0 && strings.EqualFold(vs[0], paramValueDate) {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzid(p *ical.IANAProperty) string {
	if vs, ok := p.ICalParameters[paramTZID]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// parseICSTime reads a DATE or DATE-TIME value. Floating values are placed in
// the TZID location when given, otherwise in fallback.
func parseICSTime(v, tz string, fallback *time.Location) (time.Time, error) {
	loc := fallback
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse(icsUTCLayout, v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation(icsLocalLayout, v, loc)
	default:
		return time.ParseInLocation(icsDateLayout, v, loc)
	}
}
