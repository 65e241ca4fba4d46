// Package am loads the qsup configuration ("I am").
//
// Settings cascade from built-in defaults through system, user and project
// TOML files to QSUP_* environment variables; command-line flags are applied
// on top by the caller.
package am

import (
	"fmt"
	"time"
)

// Config represents the qsup configuration
type Config struct {
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" toml:"scheduler"`
	Supervisor SupervisorConfig `mapstructure:"supervisor" toml:"supervisor"`
	Launcher   LauncherConfig   `mapstructure:"launcher" toml:"launcher"`
	Log        LogConfig        `mapstructure:"log" toml:"log"`
}

// SchedulerConfig configures how squeue and sacct are invoked
type SchedulerConfig struct {
	SqueuePath      string `mapstructure:"squeue_path" toml:"squeue_path"`
	SacctPath       string `mapstructure:"sacct_path" toml:"sacct_path"`
	CommandPrefix   string `mapstructure:"command_prefix" toml:"command_prefix"`       // shell-quoted, e.g. "ssh login01"
	SqueueExtraArgs string `mapstructure:"squeue_extra_args" toml:"squeue_extra_args"` // shell-quoted
	SacctExtraArgs  string `mapstructure:"sacct_extra_args" toml:"sacct_extra_args"`   // shell-quoted

	// NativeStateFilter also passes --states/--state to the scheduler. Results
	// are filtered client-side either way.
	NativeStateFilter bool `mapstructure:"native_state_filter" toml:"native_state_filter"`

	MaxQueriesPerMinute int `mapstructure:"max_queries_per_minute" toml:"max_queries_per_minute"` // 0 = unlimited
	QueryBurst          int `mapstructure:"query_burst" toml:"query_burst"`
}

// SupervisorConfig configures the polling phases of a run
type SupervisorConfig struct {
	ConfirmDeadline time.Duration `mapstructure:"confirm_deadline" toml:"confirm_deadline"` // give up if no job appears
	ConfirmInterval time.Duration `mapstructure:"confirm_interval" toml:"confirm_interval"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval" toml:"monitor_interval"`
	MonitorTimeout  time.Duration `mapstructure:"monitor_timeout" toml:"monitor_timeout"`
	RunIDSuffix     bool          `mapstructure:"run_id_suffix" toml:"run_id_suffix"` // append a short uuid to generated run ids
}

// LauncherConfig holds defaults for the pipeline launcher invocation
type LauncherConfig struct {
	Account   string `mapstructure:"account" toml:"account"`
	Partition string `mapstructure:"partition" toml:"partition"`
	ExtraArgs string `mapstructure:"extra_args" toml:"extra_args"` // shell-quoted
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json"`
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Scheduler: {Squeue: %s, Sacct: %s}, Supervisor: {Confirm: %s/%s, Monitor: %s/%s}}",
		c.Scheduler.SqueuePath, c.Scheduler.SacctPath,
		c.Supervisor.ConfirmInterval, c.Supervisor.ConfirmDeadline,
		c.Supervisor.MonitorInterval, c.Supervisor.MonitorTimeout)
}
