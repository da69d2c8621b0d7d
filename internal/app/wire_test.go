package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
	service "github.com/okian/shiftsheet/internal/app"
	"github.com/okian/shiftsheet/internal/config"
	"github.com/okian/shiftsheet/pkg/logger"
)

func TestSources(t *testing.T) {
	ctx := context.Background()

	Convey("Given a config without sources", t, func() {
		_, err := service.Sources(ctx, config.New(), afero.NewMemMapFs(), logger.Nop())
		So(errors.Is(err, service.ErrNoSource), ShouldBeTrue)
	})

	Convey("Given ICS feeds and JSON files", t, func() {
		cfg := config.New()
		cfg.ICSFeeds = []string{"/feeds/a.ics", "https://example.com/b.ics"}
		cfg.JSONFiles = []string{"/fixtures/july.json"}

		sources, err := service.Sources(ctx, cfg, afero.NewMemMapFs(), logger.Nop())

		Convey("Then one source is built per entry in order", func() {
			So(err, ShouldBeNil)
			names := make([]string, len(sources))
			for i, s := range sources {
				names[i] = s.Name()
			}
			So(names, ShouldResemble, []string{"ics", "ics", "json"})
		})
	})

	Convey("Given a Google key file that is missing", t, func() {
		cfg := config.New()
		cfg.GoogleCredentialsFile = "/secrets/key.json"

		_, err := service.Sources(ctx, cfg, afero.NewMemMapFs(), logger.Nop())
		So(errors.Is(err, calendar.ErrCredentials), ShouldBeTrue)
	})
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	Convey("Given a config with a fixture and a template", t, func() {
		fs := afero.NewMemMapFs()
		writeTemplate(fs, "/templates/Timesheet.xlsx")
		So(afero.WriteFile(fs, "/fixtures/july.json", []byte(integrationEvents), 0o644), ShouldBeNil)

		cfg := config.New()
		cfg.TemplatePath = "/templates/Timesheet.xlsx"
		cfg.OutputDir = "/out"
		cfg.JSONFiles = []string{"/fixtures/july.json"}
		cfg.StartRow = 10

		now := time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC)
		svc, err := service.NewFromConfig(ctx, cfg, fs, logger.Nop(), service.WithClock(func() time.Time { return now }))
		So(err, ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When generating", func() {
			res, err := svc.Generate(ctx, "Neel J.")

			Convey("Then the configured output directory and layout are used", func() {
				So(err, ShouldBeNil)
				So(res.Path, ShouldEqual, "/out/"+res.Run.ID.String()+"/July Timesheet.xlsx")
				So(svc.GetStats()["layout"], ShouldResemble, service.Layout(cfg))
				So(svc.GetStats()["source"], ShouldEqual, "merged")
			})
		})
	})
}

func TestNewFromConfig_PrefixedTitles(t *testing.T) {
	ctx := context.Background()

	Convey("Given a default config whose events prefix the name", t, func() {
		fs := afero.NewMemMapFs()
		writeTemplate(fs, "/templates/Timesheet.xlsx")
		events := `[{"id": "t1", "title": "Team: Neel J. (M 5)", "start": "2024-07-03T09:00:00-04:00"}]`
		So(afero.WriteFile(fs, "/fixtures/team.json", []byte(events), 0o644), ShouldBeNil)

		cfg := config.New()
		cfg.TemplatePath = "/templates/Timesheet.xlsx"
		cfg.JSONFiles = []string{"/fixtures/team.json"}

		now := time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC)
		clock := service.WithClock(func() time.Time { return now })

		Convey("When previewing the bare name", func() {
			svc, err := service.NewFromConfig(ctx, cfg, fs, logger.Nop(), clock)
			So(err, ShouldBeNil)
			res, err := svc.Preview(ctx, "Neel J.")

			Convey("Then the shift is found", func() {
				So(err, ShouldBeNil)
				So(res.Summary.Shifts, ShouldEqual, 1)
				So(res.Summary.TotalHours, ShouldEqual, 5)
			})
		})

		Convey("When the name check is enabled", func() {
			cfg.RequireKnownName = true
			svc, err := service.NewFromConfig(ctx, cfg, fs, logger.Nop(), clock)
			So(err, ShouldBeNil)
			_, err = svc.Preview(ctx, "Neel J.")

			Convey("Then the bare name is rejected", func() {
				So(errors.Is(err, service.ErrUnknownName), ShouldBeTrue)
			})
		})
	})
}
