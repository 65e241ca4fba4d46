package am

import (
	"time"

	"github.com/spf13/viper"
)

// Supervisor timing defaults
const (
	DefaultConfirmDeadline = 2 * time.Minute
	DefaultConfirmInterval = 10 * time.Second
	DefaultMonitorInterval = 30 * time.Second
	DefaultMonitorTimeout  = 20 * time.Minute
)

// DefaultDirPermissions is used for the user config directory
const DefaultDirPermissions = 0o755

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Scheduler defaults
	v.SetDefault("scheduler.squeue_path", "squeue")
	v.SetDefault("scheduler.sacct_path", "sacct")
	v.SetDefault("scheduler.command_prefix", "")
	v.SetDefault("scheduler.squeue_extra_args", "")
	v.SetDefault("scheduler.sacct_extra_args", "")
	v.SetDefault("scheduler.native_state_filter", false) // --states is unreliable with --json
	v.SetDefault("scheduler.max_queries_per_minute", 30)
	v.SetDefault("scheduler.query_burst", 2)

	// Supervisor defaults
	v.SetDefault("supervisor.confirm_deadline", DefaultConfirmDeadline.String())
	v.SetDefault("supervisor.confirm_interval", DefaultConfirmInterval.String())
	v.SetDefault("supervisor.monitor_interval", DefaultMonitorInterval.String())
	v.SetDefault("supervisor.monitor_timeout", DefaultMonitorTimeout.String())
	v.SetDefault("supervisor.run_id_suffix", false)

	// Launcher defaults
	v.SetDefault("launcher.account", "")
	v.SetDefault("launcher.partition", "")
	v.SetDefault("launcher.extra_args", "")

	v.SetDefault("log.json", false)
}

// BindEnvVars binds launcher settings to sbatch's own input variables as a
// fallback after the QSUP_* names
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("launcher.account", "QSUP_LAUNCHER_ACCOUNT", "SBATCH_ACCOUNT")
	v.BindEnv("launcher.partition", "QSUP_LAUNCHER_PARTITION", "SBATCH_PARTITION")
	v.BindEnv("scheduler.command_prefix", "QSUP_SCHEDULER_COMMAND_PREFIX")
}
