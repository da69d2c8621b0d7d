package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	app "github.com/okian/shiftsheet/internal/app"
	"github.com/okian/shiftsheet/internal/config"
	"github.com/okian/shiftsheet/pkg/logger"
)

// generator is the part of the service a scheduled run needs.
type generator interface {
	Generate(ctx context.Context, name string) (app.Result, error)
}

// newScheduler returns nil when no schedule is configured. Overlapping runs
// are skipped rather than queued.
func newScheduler(ctx context.Context, cfg *config.Config, gen generator, l logger.Logger) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		return nil, nil
	}

	cl := cronLogger{ctx: ctx, l: l}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	name := cfg.ScheduleName
	_, err := c.AddFunc(cfg.Schedule, func() {
		res, err := gen.Generate(ctx, name)
		if err != nil {
			// Generate already logged and counted the failure.
			return
		}
		l.Info(ctx, "scheduled timesheet written",
			logger.String("run", res.Run.ID.String()),
			logger.String("file", res.Path),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}
	return c, nil
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	ctx context.Context
	l   logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(c.ctx, msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(c.ctx, msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
