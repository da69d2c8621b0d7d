package service

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
	"github.com/okian/shiftsheet/internal/adapters/sheet"
	"github.com/okian/shiftsheet/internal/config"
	"github.com/okian/shiftsheet/pkg/logger"
)

// Sources builds the calendar sources cfg names, in priority order:
// Google first, then ICS feeds, then JSON files.
func Sources(ctx context.Context, cfg *config.Config, fs afero.Fs, l logger.Logger) ([]calendar.Source, error) {
	var sources []calendar.Source
	if cfg.GoogleCredentialsFile != "" {
		g, err := calendar.NewGoogleFromServiceAccount(ctx, fs, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID)
		if err != nil {
			return nil, err
		}
		sources = append(sources, g)
	}
	for _, feed := range cfg.ICSFeeds {
		sources = append(sources, calendar.NewICS(feed, calendar.WithICSFs(fs), calendar.WithICSLogger(l)))
	}
	for _, path := range cfg.JSONFiles {
		sources = append(sources, calendar.NewJSONFile(fs, path))
	}
	if len(sources) == 0 {
		return nil, ErrNoSource
	}
	return sources, nil
}

// Layout returns the sheet placement configured in cfg.
func Layout(cfg *config.Config) sheet.Layout {
	return sheet.Layout{
		StartRow:    cfg.StartRow,
		DateCol:     cfg.DateCol,
		HoursCol:    cfg.HoursCol,
		LocationCol: cfg.LocationCol,
		PositionCol: cfg.PositionCol,
	}
}

// NewFromConfig wires sources, writer and service from cfg. Extra options
// are applied last.
func NewFromConfig(ctx context.Context, cfg *config.Config, fs afero.Fs, l logger.Logger, extra ...Option) (*Service, error) {
	sources, err := Sources(ctx, cfg, fs, l)
	if err != nil {
		return nil, fmt.Errorf("configure sources: %w", err)
	}

	writer := sheet.New(
		sheet.WithFs(fs),
		sheet.WithTemplate(cfg.TemplatePath),
		sheet.WithOutputDir(cfg.OutputDir),
		sheet.WithCatalog(cfg.Positions),
		sheet.WithLogger(l),
	)

	opts := []Option{
		WithSource(calendar.NewMerged(sources, calendar.WithMergeLogger(l))),
		WithWriter(writer),
		WithLayout(Layout(cfg)),
		WithRoles(cfg.Roles),
		WithRequireKnownName(cfg.RequireKnownName),
		WithLogger(l),
	}
	return New(append(opts, extra...)...), nil
}
