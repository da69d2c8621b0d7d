package calendar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
	"github.com/okian/shiftsheet/internal/domain/shift"
)

type stubSource struct {
	name   string
	events []shift.CalendarEvent
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) List(_ context.Context, _ calendar.Window) ([]shift.CalendarEvent, error) {
	s.calls++
	return s.events, s.err
}

func TestMonthWindow(t *testing.T) {
	Convey("Given a time in the middle of July", t, func() {
		now := time.Date(2024, time.July, 17, 15, 4, 5, 0, time.UTC)

		Convey("When the month window is computed", func() {
			w := calendar.MonthWindow(now)

			Convey("Then it spans the first instant to one second before August", func() {
				So(w.Start, ShouldEqual, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
				So(w.End, ShouldEqual, time.Date(2024, time.July, 31, 23, 59, 59, 0, time.UTC))
			})
		})
	})

	Convey("Given a December time in a non-UTC zone", t, func() {
		zone := time.FixedZone("UTC+9", 9*60*60)
		now := time.Date(2025, time.January, 1, 3, 0, 0, 0, zone)

		Convey("Then the window follows the UTC month", func() {
			w := calendar.MonthWindow(now)
			So(w.Start, ShouldEqual, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC))
			So(w.End, ShouldEqual, time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC))
		})
	})
}

func TestWindow_Overlaps(t *testing.T) {
	Convey("Given the July window", t, func() {
		w := calendar.MonthWindow(time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC))
		at := func(m time.Month, d, h int) time.Time { return time.Date(2024, m, d, h, 0, 0, 0, time.UTC) }

		So(w.Overlaps(at(time.July, 3, 9), at(time.July, 3, 12)), ShouldBeTrue)
		So(w.Overlaps(at(time.June, 30, 22), at(time.July, 1, 2)), ShouldBeTrue)
		So(w.Overlaps(at(time.July, 31, 22), at(time.August, 1, 2)), ShouldBeTrue)
		So(w.Overlaps(at(time.June, 30, 0), at(time.July, 1, 0)), ShouldBeFalse)
		So(w.Overlaps(at(time.August, 1, 0), at(time.August, 1, 1)), ShouldBeFalse)
		So(w.Overlaps(at(time.July, 1, 0), at(time.July, 1, 0)), ShouldBeTrue)
	})
}

func TestMerged_List(t *testing.T) {
	ctx := context.Background()
	w := calendar.MonthWindow(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))

	Convey("Given two sources with an overlapping event", t, func() {
		first := &stubSource{name: "google", events: []shift.CalendarEvent{
			{ID: "b", Title: "Neel J. (M 5)", Start: "2024-07-10T09:00:00-04:00"},
			{ID: "a", Title: "Neel J. (S 2)", Start: "2024-07-02T09:00:00Z"},
		}}
		second := &stubSource{name: "ics", events: []shift.CalendarEvent{
			{ID: "b", Title: "Neel J. (M 9)", Start: "2024-07-10T13:00:00Z"},
			{Title: "Ana B. (M 1)", Start: "2024-07-05"},
			{Title: "Ana B. (M 1)", Start: "2024-07-05"},
			{ID: "c", Title: "Raj K. (S 4)", Start: "2024-07-10T12:00:00Z"},
		}}
		m := calendar.NewMerged([]calendar.Source{first, second})

		Convey("When listing", func() {
			events, err := m.List(ctx, w)

			Convey("Then duplicates are dropped with the first source winning", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 4)
				So(events[2].ID, ShouldEqual, "c")
				So(events[3].Title, ShouldEqual, "Neel J. (M 5)")
			})

			Convey("Then events are sorted by start instant across offsets", func() {
				So(events[0].ID, ShouldEqual, "a")
				So(events[1].Start, ShouldEqual, "2024-07-05")
			})

			Convey("Then every source was asked once", func() {
				So(first.calls, ShouldEqual, 1)
				So(second.calls, ShouldEqual, 1)
				So(m.Sources(), ShouldResemble, []string{"google", "ics"})
			})
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("boom")
		m := calendar.NewMerged([]calendar.Source{
			&stubSource{name: "json"},
			&stubSource{name: "google", err: boom},
		})

		Convey("Then the whole listing fails naming the source", func() {
			_, err := m.List(ctx, w)
			So(errors.Is(err, boom), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "google")
		})
	})

	Convey("Given no sources", t, func() {
		_, err := calendar.NewMerged(nil).List(ctx, w)
		So(errors.Is(err, calendar.ErrNoSources), ShouldBeTrue)
	})

	Convey("Given sources that return nothing", t, func() {
		events, err := calendar.NewMerged([]calendar.Source{&stubSource{name: "json"}}).List(ctx, w)
		So(err, ShouldBeNil)
		So(events, ShouldNotBeNil)
		So(events, ShouldBeEmpty)
	})
}

func TestSortByStart(t *testing.T) {
	Convey("Given events with an unreadable start", t, func() {
		events := []shift.CalendarEvent{
			{ID: "bad", Start: "soon"},
			{ID: "late", Start: "2024-07-09T00:00:00Z"},
			{ID: "early", Start: "2024-07-01"},
		}
		calendar.SortByStart(events)

		Convey("Then readable starts come first in order", func() {
			So(events[0].ID, ShouldEqual, "early")
			So(events[1].ID, ShouldEqual, "late")
			So(events[2].ID, ShouldEqual, "bad")
		})
	})
}
