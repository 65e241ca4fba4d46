package commands

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/qsup/display"
	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/internal/runner"
	"github.com/teranos/qsup/logger"
	"github.com/teranos/qsup/pulse/supervisor"
	"github.com/teranos/qsup/sym"
)

// RunCmd launches a pipeline and supervises it to completion
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: sym.Pulse + " Launch a pipeline and supervise it to completion",
	Long: sym.Pulse + ` run — Launch a pipeline and supervise it to completion

Runs the launcher, waits for its jobs to appear in the queue, polls until
none are pending or running, then checks accounting. The run succeeds only
if the latest record of every job is COMPLETED.

Exit codes:
  0  all jobs successful
  1  configuration or scheduler query error
  2  one or more jobs failed
  3  jobs still running when the monitor timeout was reached
  4  launch failed or was never confirmed in the queue

Examples:
  qsup run -e ./execute --account proj --partition batch
  qsup run -e ./execute --run-id nightly-0301 --timeout 2h --report out/run.json
  qsup run -e ./execute --json | jq .`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runExecutable string
	runAccount    string
	runPartition  string
	runWorkDir    string
	runIDFlag     string
	runTimeout    time.Duration
	runReport     string
	runUser       string
)

func init() {
	RunCmd.Flags().StringVarP(&runExecutable, "executable", "e", "", "Pipeline launcher to execute (required)")
	RunCmd.Flags().StringVar(&runAccount, "account", "", "Scheduler account (default: launcher.account)")
	RunCmd.Flags().StringVar(&runPartition, "partition", "", "Scheduler partition (default: launcher.partition)")
	RunCmd.Flags().StringVar(&runWorkDir, "dir", "", "Working directory passed to the launcher (default: current directory)")
	RunCmd.Flags().StringVar(&runIDFlag, "run-id", "", "Run identifier and job-name prefix (default: local time YYYYmmddHHMM)")
	RunCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Monitor timeout (default: supervisor.monitor_timeout)")
	RunCmd.Flags().StringVar(&runReport, "report", "", "Write a run report (.json, .yaml or .toml)")
	RunCmd.Flags().StringVar(&runUser, "user", "", "Scheduler user owning the jobs (default: $USER)")
	RunCmd.MarkFlagRequired("executable")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spec, err := buildLaunchSpec(cfg.Launcher.Account, cfg.Launcher.Partition, cfg.Launcher.ExtraArgs, cfg.Supervisor.RunIDSuffix, time.Now())
	if err != nil {
		return err
	}

	user, err := resolveUser(runUser)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	supCfg := supervisor.ConfigFrom(cfg.Supervisor)
	if cmd.Flags().Changed("timeout") {
		if runTimeout <= 0 {
			return errors.Newf("--timeout must be positive, got %s", runTimeout)
		}
		supCfg.MonitorTimeout = runTimeout
	}

	emitter := newEmitter(cmd, cmd.OutOrStdout())
	sup := supervisor.New(client, supervisor.NewExecLauncher(runner.NewExecRunner()), supCfg,
		supervisor.WithEmitter(emitter))

	ctx := logger.WithRunID(cmd.Context(), spec.RunID)
	logger.LoggerFromContext(ctx).Infow("Starting supervised run",
		logger.FieldUser, user,
		logger.FieldAccount, spec.Account,
		logger.FieldPartition, spec.Partition,
		logger.FieldWorkDir, spec.WorkDir,
		logger.FieldTimeout, supCfg.MonitorTimeout)

	res, runErr := sup.Run(ctx, spec, user)

	if runReport != "" {
		if err := display.WriteReport(runReport, res); err != nil {
			if runErr == nil {
				return err
			}
			logger.Warnw("Failed to write run report", logger.FieldError, err)
		}
	}

	logger.LoggerFromContext(ctx).Infow("Supervised run finished", logger.FieldState, res.State)
	return Annotate(runErr, spec.RunID)
}

// buildLaunchSpec merges run flags over the [launcher] config section.
func buildLaunchSpec(account, partition, extraArgs string, suffix bool, now time.Time) (supervisor.LaunchSpec, error) {
	spec := supervisor.LaunchSpec{
		Executable: runExecutable,
		Account:    account,
		Partition:  partition,
		RunID:      runIDFlag,
	}
	if runAccount != "" {
		spec.Account = runAccount
	}
	if runPartition != "" {
		spec.Partition = runPartition
	}
	if spec.RunID == "" {
		spec.RunID = supervisor.NewRunID(now, suffix)
	}

	dir := runWorkDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return spec, errors.Wrap(err, "failed to determine working directory")
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return spec, errors.Wrapf(err, "invalid work dir %s", dir)
	}
	spec.WorkDir = abs

	if spec.ExtraArgs, err = supervisor.ParseExtraArgs(extraArgs); err != nil {
		return spec, err
	}
	return spec, spec.Validate()
}
