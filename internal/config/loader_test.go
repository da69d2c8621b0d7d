package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/shiftsheet/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StartRow, convey.ShouldEqual, 4)
				convey.So(cfg.Roles["M"], convey.ShouldEqual, "Summer Manager")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SHIFTSHEET_ADDR", ":8080")
			_ = os.Setenv("SHIFTSHEET_START_ROW", "7")
			_ = os.Setenv("SHIFTSHEET_OUTPUT_DIR", "/srv/timesheets")
			_ = os.Setenv("SHIFTSHEET_ICS_FEEDS", "/feeds/a.ics, https://example.com/b.ics")
			_ = os.Setenv("SHIFTSHEET_REQUIRE_KNOWN_NAME", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StartRow, convey.ShouldEqual, 7)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/srv/timesheets")
				convey.So(cfg.ICSFeeds, convey.ShouldResemble, []string{"/feeds/a.ics", "https://example.com/b.ics"})
				convey.So(cfg.RequireKnownName, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When roles and positions come from the environment", func() {
			_ = os.Setenv("SHIFTSHEET_POSITIONS", "Lead,Assistant")
			_ = os.Setenv("SHIFTSHEET_ROLES", "L=Lead, A=Assistant")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the role table is replaced, not merged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Positions, convey.ShouldResemble, []string{"Lead", "Assistant"})
				convey.So(cfg.Roles, convey.ShouldResemble, map[string]string{"L": "Lead", "A": "Assistant"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
template_path: /templates/Timesheet 2024.xlsx
start_row: 6
position_col: 7
roles:
  M: Summer Manager
  T: Teacher - Lead
json_files:
  - /fixtures/july.json
schedule: "0 6 1 * *"
schedule_name: Neel J.
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SHIFTSHEET_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TemplatePath, convey.ShouldEqual, "/templates/Timesheet 2024.xlsx")
				convey.So(cfg.StartRow, convey.ShouldEqual, 6)
				convey.So(cfg.PositionCol, convey.ShouldEqual, 7)
				convey.So(cfg.JSONFiles, convey.ShouldResemble, []string{"/fixtures/july.json"})
				convey.So(cfg.Schedule, convey.ShouldEqual, "0 6 1 * *")
				convey.So(cfg.ScheduleName, convey.ShouldEqual, "Neel J.")
			})

			convey.Convey("Then the file role table replaces the defaults", func() {
				convey.So(cfg.Roles, convey.ShouldResemble, map[string]string{"M": "Summer Manager", "T": "Teacher - Lead"})
			})

			convey.Convey("Then defaults fill the fields the file omits", func() {
				convey.So(cfg.DateCol, convey.ShouldEqual, 1)
				convey.So(cfg.OutputDir, convey.ShouldEqual, ".")
				convey.So(len(cfg.Positions), convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\noutput_dir: /from/file\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SHIFTSHEET_CONFIG", tmpFile)
			_ = os.Setenv("SHIFTSHEET_OUTPUT_DIR", "/from/env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/from/env")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SHIFTSHEET_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SHIFTSHEET_CONFIG", "/non/existent/shiftsheet.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SHIFTSHEET_START_ROW", "fourth")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a role points outside the catalog", func() {
			_ = os.Setenv("SHIFTSHEET_ROLES", "X=Astronaut")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When two columns collide", func() {
			_ = os.Setenv("SHIFTSHEET_HOURS_COL", "1")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SHIFTSHEET_CONFIG",
		"SHIFTSHEET_ADDR",
		"SHIFTSHEET_START_ROW",
		"SHIFTSHEET_HOURS_COL",
		"SHIFTSHEET_OUTPUT_DIR",
		"SHIFTSHEET_ICS_FEEDS",
		"SHIFTSHEET_POSITIONS",
		"SHIFTSHEET_ROLES",
		"SHIFTSHEET_REQUIRE_KNOWN_NAME",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "shiftsheet-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
