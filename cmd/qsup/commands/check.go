package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/qsup/display"
	"github.com/teranos/qsup/pulse/supervisor"
	"github.com/teranos/qsup/sym"
)

// CheckCmd re-runs the accounting check for a finished run
var CheckCmd = &cobra.Command{
	Use:   "check RUN_ID",
	Short: sym.PulseClose + " Classify a finished run from accounting",
	Long: sym.PulseClose + ` check — Classify a finished run from accounting

Runs only the final phase of ` + "`qsup run`" + `: reads sacct for jobs named RUN_ID*
since --since, keeps the latest attempt per job name and reports any that
did not finish COMPLETED. Exit codes match ` + "`qsup run`" + `.

Examples:
  qsup check 202403011200 --since 2024-03-01T12:00
  qsup check 202403011200 --since 3h --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var checkSince string

func init() {
	CheckCmd.Flags().StringVar(&checkSince, "since", "", "Start of the accounting window (default: midnight today)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	now := time.Now()
	run := supervisor.RunContext{RunID: args[0], StartTime: midnight(now)}
	if checkSince != "" {
		start, err := parseTime(checkSince, now)
		if err != nil {
			return err
		}
		run.StartTime = start
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	// Check never launches, so no launcher is wired.
	sup := supervisor.New(client, nil, supervisor.ConfigFrom(cfg.Supervisor),
		supervisor.WithEmitter(newEmitter(cmd, cmd.OutOrStdout())))
	res, checkErr := sup.Check(cmd.Context(), run)

	if res != nil && !display.ShouldOutputJSON(cmd) {
		if err := display.RenderJobs(cmd.OutOrStdout(), res.Jobs, true); err != nil {
			return err
		}
	}
	return Annotate(checkErr, run.RunID)
}
