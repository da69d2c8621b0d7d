package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/okian/shiftsheet/internal/domain/shift"
)

const defaultCalendarID = "primary"

// Google lists events from one Google calendar.
type Google struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogle wraps an existing Calendar service. An empty calendarID selects
// the primary calendar.
func NewGoogle(svc *gcal.Service, calendarID string) *Google {
	if calendarID == "" {
		calendarID = defaultCalendarID
	}
	return &Google{svc: svc, calendarID: calendarID}
}

// NewGoogleFromServiceAccount builds a read-only Calendar client from a
// service-account key file. Extra client options are applied after the
// credentials.
func NewGoogleFromServiceAccount(ctx context.Context, fs afero.Fs, keyFile, calendarID string, extra ...option.ClientOption) (*Google, error) {
	b, err := afero.ReadFile(fs, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCredentials, keyFile, err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(b, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCredentials, keyFile, err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(jwtCfg.Client(ctx))}, extra...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return NewGoogle(svc, calendarID), nil
}

// Name implements Source.
func (g *Google) Name() string { return "google" }

// List implements Source. Recurring events are expanded by the API and
// results arrive ordered by start time.
func (g *Google) List(ctx context.Context, w Window) ([]shift.CalendarEvent, error) {
	call := g.svc.Events.List(g.calendarID).
		TimeMin(w.Start.Format(time.RFC3339)).
		TimeMax(w.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	out := make([]shift.CalendarEvent, 0)
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if item == nil || item.Status == "cancelled" {
				continue
			}
			out = append(out, shift.CalendarEvent{
				ID:       item.Id,
				Title:    item.Summary,
				Start:    eventTime(item.Start),
				End:      eventTime(item.End),
				Location: item.Location,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: google calendar %s: %v", ErrFetch, g.calendarID, err)
	}
	return out, nil
}

// eventTime prefers the timed value and falls back to the all-day date.
func eventTime(t *gcal.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}
