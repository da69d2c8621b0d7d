// Command fill-timesheet generates a timesheet from the configured calendars
// without starting the HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	app "github.com/okian/shiftsheet/internal/app"
	"github.com/okian/shiftsheet/internal/config"
	"github.com/okian/shiftsheet/pkg/logger"
)

const configEnv = "SHIFTSHEET_CONFIG"

type options struct {
	configFile string
	name       string
	month      string
	listNames  bool
	preview    bool
	strict     bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(afero.NewOsFs()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "fill-timesheet",
		Short: "Fill the monthly timesheet from calendar shifts",
		Long: `fill-timesheet reads this month's calendar events, keeps the ones whose
title names the given person, and writes them into a copy of the timesheet
template. Sources, template and layout come from the same configuration the
server uses (SHIFTSHEET_* environment variables and an optional YAML file).`,
		Example: `  fill-timesheet --name "Neel J."
  fill-timesheet --list-names
  fill-timesheet --name "Neel J." --preview --month 2024-07
  fill-timesheet --name "Neel J." --strict=false`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), fs, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "person whose shifts are collected")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file (overrides "+configEnv+")")
	cmd.Flags().StringVar(&opts.month, "month", "", "month to generate as YYYY-MM (default: current month)")
	cmd.Flags().BoolVar(&opts.listNames, "list-names", false, "print the names found in this month's events and exit")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "print the parsed shifts without writing a workbook")
	cmd.Flags().BoolVar(&opts.strict, "strict", true, "fail when the name appears in no event title")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	cmd.MarkFlagsMutuallyExclusive("list-names", "preview")

	return cmd
}

func run(ctx context.Context, fs afero.Fs, out io.Writer, opts options) error {
	if !opts.listNames && strings.TrimSpace(opts.name) == "" {
		return fmt.Errorf("--name is required unless --list-names is set")
	}

	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if opts.configFile != "" {
		if err := os.Setenv(configEnv, opts.configFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = logger.SetLevelString("info")
	}

	extra := []app.Option{app.WithRequireKnownName(opts.strict || cfg.RequireKnownName)}
	if opts.month != "" {
		m, err := time.Parse("2006-01", opts.month)
		if err != nil {
			return fmt.Errorf("--month %q: want YYYY-MM", opts.month)
		}
		// Mid-month keeps the run inside the month in every time zone.
		at := m.AddDate(0, 0, 14)
		extra = append(extra, app.WithClock(func() time.Time { return at }))
	}

	svc, err := app.NewFromConfig(ctx, cfg, fs, logger.Named("fill-timesheet"), extra...)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	switch {
	case opts.listNames:
		names, window, err := svc.Names(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# %s to %s\n", window.Start.Format(time.DateOnly), window.End.Format(time.DateOnly))
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	case opts.preview:
		res, err := svc.Preview(ctx, opts.name)
		if err != nil {
			return err
		}
		return printRecords(out, res)
	default:
		res, err := svc.Generate(ctx, opts.name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%d shifts, %.2f hours)\n", res.Path, res.Summary.Shifts, res.Summary.TotalHours)
		return nil
	}
}

func printRecords(out io.Writer, res app.Result) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tHOURS\tLOCATION\tPOSITION")
	for _, r := range res.Records {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\n", r.Start, r.Hours, r.Location, r.Label())
	}
	fmt.Fprintf(tw, "total\t%g\t\t%d shifts\n", res.Summary.TotalHours, res.Summary.Shifts)
	return tw.Flush()
}
