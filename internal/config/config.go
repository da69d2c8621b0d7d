// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, also writes logs to a size-rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TemplatePath is the workbook every timesheet is copied from.
	TemplatePath string `koanf:"template_path"`

	// OutputDir receives generated timesheets.
	OutputDir string `koanf:"output_dir"`

	// StartRow and the *Col fields place records in the sheet; all 1-based.
	StartRow    int `koanf:"start_row"`
	DateCol     int `koanf:"date_col"`
	HoursCol    int `koanf:"hours_col"`
	LocationCol int `koanf:"location_col"`
	PositionCol int `koanf:"position_col"`

	// Roles maps title role codes to positions.
	Roles map[string]string `koanf:"roles"`

	// Positions is the drop-down catalog for the position column.
	Positions []string `koanf:"positions"`

	// GoogleCredentialsFile is a service-account key; empty disables Google.
	GoogleCredentialsFile string `koanf:"google_credentials_file"`
	GoogleCalendarID      string `koanf:"google_calendar_id"`

	// ICSFeeds lists iCalendar paths or http(s) URLs.
	ICSFeeds []string `koanf:"ics_feeds"`

	// JSONFiles lists event fixture files.
	JSONFiles []string `koanf:"json_files"`

	// Schedule is a cron spec for unattended generation; empty disables it.
	Schedule string `koanf:"schedule"`

	// ScheduleName is the user name generated for on each scheduled run.
	ScheduleName string `koanf:"schedule_name"`

	// RequireKnownName rejects names that appear in no event title. The CLI
	// enables it unless --strict=false is given.
	RequireKnownName bool `koanf:"require_known_name"`

	// ShutdownTimeoutSec bounds graceful HTTP shutdown.
	ShutdownTimeoutSec int `koanf:"shutdown_timeout_sec"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		TemplatePath: "Timesheet.xlsx",
		OutputDir:    ".",
		StartRow:     4,
		DateCol:      1,
		HoursCol:     2,
		LocationCol:  3,
		PositionCol:  4,
		Roles: map[string]string{
			"M": "Summer Manager",
			"S": "Summer Teacher",
		},
		Positions: []string{
			"Back Office",
			"ISFT Assistant",
			"ISFT Lead",
			"PSS",
			"Special Event",
			"Summer Manager",
			"Summer Teacher",
			"Teacher - Assistant",
			"Teacher - Lead",
			"Teacher - Online Class",
		},
		GoogleCalendarID:   "primary",
		RequireKnownName:   false,
		ShutdownTimeoutSec: 10,
	}
}

// HasSources reports whether at least one event source is configured.
func (c *Config) HasSources() bool {
	return c.GoogleCredentialsFile != "" || len(c.ICSFeeds) > 0 || len(c.JSONFiles) > 0
}

// Validate checks values that would otherwise fail late, at generation time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.TemplatePath) == "" {
		return fmt.Errorf("%w: template_path must not be empty", ErrInvalidConfig)
	}
	if c.StartRow < 1 {
		return fmt.Errorf("%w: start_row must be >= 1, got %d", ErrInvalidConfig, c.StartRow)
	}

	cols := map[string]int{
		"date_col":     c.DateCol,
		"hours_col":    c.HoursCol,
		"location_col": c.LocationCol,
		"position_col": c.PositionCol,
	}
	used := make(map[int]string, len(cols))
	for _, key := range []string{"date_col", "hours_col", "location_col", "position_col"} {
		col := cols[key]
		if col < 1 {
			return fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidConfig, key, col)
		}
		if other, dup := used[col]; dup {
			return fmt.Errorf("%w: %s and %s both use column %d", ErrInvalidConfig, other, key, col)
		}
		used[col] = key
	}

	if len(c.Positions) == 0 {
		return fmt.Errorf("%w: positions must not be empty", ErrInvalidConfig)
	}
	catalog := make(map[string]struct{}, len(c.Positions))
	for _, p := range c.Positions {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: positions contains an empty label", ErrInvalidConfig)
		}
		catalog[p] = struct{}{}
	}
	for code, position := range c.Roles {
		if _, ok := catalog[position]; !ok {
			return fmt.Errorf("%w: role %q maps to %q which is not in positions", ErrInvalidConfig, code, position)
		}
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, c.Schedule, err)
		}
		if strings.TrimSpace(c.ScheduleName) == "" {
			return fmt.Errorf("%w: schedule_name is required when schedule is set", ErrInvalidConfig)
		}
	}
	return nil
}
