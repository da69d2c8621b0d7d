package calendar_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
)

const julyFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//shiftsheet//test//EN
BEGIN:VEVENT
UID:single-1
DTSTAMP:20240601T000000Z
DTSTART:20240703T130000Z
DTEND:20240703T180000Z
SUMMARY:Neel J. (M 5)
LOCATION:Main Campus
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
DTSTAMP:20240601T000000Z
DTSTART:20240701T090000Z
DTEND:20240701T120000Z
RRULE:FREQ=WEEKLY;COUNT=6
EXDATE:20240715T090000Z
SUMMARY:Neel J. (S 3)
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
DTSTAMP:20240601T000000Z
RECURRENCE-ID:20240708T090000Z
DTSTART:20240709T100000Z
DTEND:20240709T140000Z
SUMMARY:Neel J. (S 4)
END:VEVENT
BEGIN:VEVENT
UID:allday-1
DTSTAMP:20240601T000000Z
DTSTART;VALUE=DATE:20240720
DTEND;VALUE=DATE:20240721
SUMMARY:Ana B. (M 8)
END:VEVENT
BEGIN:VEVENT
UID:cancelled-1
DTSTAMP:20240601T000000Z
DTSTART:20240711T090000Z
DTEND:20240711T100000Z
STATUS:CANCELLED
SUMMARY:Neel J. (M 1)
END:VEVENT
BEGIN:VEVENT
UID:june-1
DTSTAMP:20240601T000000Z
DTSTART:20240615T090000Z
DTEND:20240615T100000Z
SUMMARY:Neel J. (M 1)
END:VEVENT
END:VCALENDAR
`

const overnightFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//shiftsheet//test//EN
BEGIN:VEVENT
UID:overnight-single
DTSTAMP:20240601T000000Z
DTSTART:20240630T200000Z
DTEND:20240701T010000Z
SUMMARY:Neel J. (M 5)
END:VEVENT
BEGIN:VEVENT
UID:overnight-1
DTSTAMP:20240601T000000Z
DTSTART:20240629T220000Z
DTEND:20240630T020000Z
RRULE:FREQ=DAILY;COUNT=3
SUMMARY:Neel J. (S 4)
END:VEVENT
END:VCALENDAR
`

func crlf(s string) string { return strings.ReplaceAll(s, "\n", "\r\n") }

func TestICS_List(t *testing.T) {
	ctx := context.Background()
	july := calendar.MonthWindow(time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC))

	Convey("Given a local feed with recurring, moved, all-day and cancelled events", t, func() {
		fs := afero.NewMemMapFs()
		So(afero.WriteFile(fs, "/feeds/work.ics", []byte(crlf(julyFeed)), 0o644), ShouldBeNil)
		src := calendar.NewICS("/feeds/work.ics", calendar.WithICSFs(fs))

		Convey("When listing July", func() {
			events, err := src.List(ctx, july)
			So(err, ShouldBeNil)

			ids := make([]string, len(events))
			for i, ev := range events {
				ids[i] = ev.ID
			}

			Convey("Then only July occurrences are returned in start order", func() {
				So(ids, ShouldResemble, []string{
					"weekly-1_20240701T090000Z",
					"single-1",
					"weekly-1_20240708T090000Z",
					"allday-1",
					"weekly-1_20240722T090000Z",
					"weekly-1_20240729T090000Z",
				})
			})

			Convey("Then timed events keep RFC3339 values and the location", func() {
				So(events[1].Title, ShouldEqual, "Neel J. (M 5)")
				So(events[1].Start, ShouldEqual, "2024-07-03T13:00:00Z")
				So(events[1].End, ShouldEqual, "2024-07-03T18:00:00Z")
				So(events[1].Location, ShouldEqual, "Main Campus")
			})

			Convey("Then the moved occurrence carries the override", func() {
				So(events[2].Title, ShouldEqual, "Neel J. (S 4)")
				So(events[2].Start, ShouldEqual, "2024-07-09T10:00:00Z")
			})

			Convey("Then recurring occurrences keep the master duration", func() {
				So(events[4].Start, ShouldEqual, "2024-07-22T09:00:00Z")
				So(events[4].End, ShouldEqual, "2024-07-22T12:00:00Z")
			})

			Convey("Then all-day events use plain dates", func() {
				So(events[3].Start, ShouldEqual, "2024-07-20")
				So(events[3].End, ShouldEqual, "2024-07-21")
				So(events[3].Location, ShouldBeEmpty)
			})
		})
	})

	Convey("Given the same feed served over HTTP", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/work.ics" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = w.Write([]byte(crlf(julyFeed)))
		}))
		defer srv.Close()

		Convey("When the URL exists", func() {
			events, err := calendar.NewICS(srv.URL+"/work.ics", calendar.WithHTTPClient(srv.Client())).List(ctx, july)

			Convey("Then it lists the same events", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 6)
			})
		})

		Convey("When the URL is missing", func() {
			_, err := calendar.NewICS(srv.URL+"/missing.ics", calendar.WithHTTPClient(srv.Client())).List(ctx, july)

			Convey("Then a fetch error is returned", func() {
				So(errors.Is(err, calendar.ErrFetch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "404")
			})
		})
	})

	Convey("Given single and recurring events that run into the month", t, func() {
		fs := afero.NewMemMapFs()
		So(afero.WriteFile(fs, "/feeds/night.ics", []byte(crlf(overnightFeed)), 0o644), ShouldBeNil)

		events, err := calendar.NewICS("/feeds/night.ics", calendar.WithICSFs(fs)).List(ctx, july)
		So(err, ShouldBeNil)

		ids := make([]string, len(events))
		for i, ev := range events {
			ids[i] = ev.ID
		}

		Convey("Then both kinds are kept when they overlap the first day", func() {
			So(ids, ShouldResemble, []string{
				"overnight-single",
				"overnight-1_20240630T220000Z",
				"overnight-1_20240701T220000Z",
			})
			So(events[1].End, ShouldEqual, "2024-07-01T02:00:00Z")
		})
	})

	Convey("Given a feed path that does not exist", t, func() {
		_, err := calendar.NewICS("/nope.ics", calendar.WithICSFs(afero.NewMemMapFs())).List(ctx, july)
		So(errors.Is(err, calendar.ErrFetch), ShouldBeTrue)
	})

	Convey("Given an empty feed location", t, func() {
		_, err := calendar.NewICS("  ").List(ctx, july)
		So(errors.Is(err, calendar.ErrFetch), ShouldBeTrue)
	})
}
