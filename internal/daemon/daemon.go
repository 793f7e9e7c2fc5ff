// Package daemon schedules digest runs in-process for hosts without an
// external cron. The run command remains the entry point when the platform
// owns scheduling.
package daemon

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"aidigest/internal/config"
	"aidigest/internal/pipeline"
)

// Daemon wraps a cron schedule around pipeline runs.
type Daemon struct {
	cfg    config.RunConfig
	pipe   *pipeline.Pipeline
	logger *log.Logger
}

// New builds a daemon that runs the pipeline on the given schedule.
func New(cfg config.RunConfig, pipe *pipeline.Pipeline, logger *log.Logger) *Daemon {
	return &Daemon{cfg: cfg, pipe: pipe, logger: logger}
}

// Run blocks until ctx is cancelled, firing the pipeline on spec (standard
// 5-field cron syntax, e.g. "0 11 * * *" for daily at 11:00).
func (d *Daemon) Run(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := d.pipe.RunOnce(ctx, d.cfg); err != nil {
			d.logger.Printf("scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	d.logger.Printf("daemon started, schedule=%q", spec)
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	d.logger.Printf("daemon stopped")
	return ctx.Err()
}
