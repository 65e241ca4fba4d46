package am

import (
	"time"

	"github.com/teranos/qsup/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Timing: every poll needs a positive interval and every wait a positive bound
	durations := []struct {
		key   string
		value time.Duration
	}{
		{"supervisor.confirm_deadline", c.Supervisor.ConfirmDeadline},
		{"supervisor.confirm_interval", c.Supervisor.ConfirmInterval},
		{"supervisor.monitor_interval", c.Supervisor.MonitorInterval},
		{"supervisor.monitor_timeout", c.Supervisor.MonitorTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return errors.NewInvalidConfigError("%s must be > 0, got %v", d.key, d.value)
		}
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Scheduler.MaxQueriesPerMinute < 0 {
		return errors.NewInvalidConfigError("scheduler.max_queries_per_minute must be >= 0, got %d", c.Scheduler.MaxQueriesPerMinute)
	}
	if c.Scheduler.QueryBurst < 0 {
		return errors.NewInvalidConfigError("scheduler.query_burst must be >= 0, got %d", c.Scheduler.QueryBurst)
	}

	if c.Scheduler.SqueuePath == "" {
		return errors.NewInvalidConfigError("scheduler.squeue_path cannot be empty")
	}
	if c.Scheduler.SacctPath == "" {
		return errors.NewInvalidConfigError("scheduler.sacct_path cannot be empty")
	}

	return nil
}
