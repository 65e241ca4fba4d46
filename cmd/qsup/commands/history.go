package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/qsup/display"
	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/slurm"
	"github.com/teranos/qsup/sym"
)

// HistoryCmd shows accounting records for a run
var HistoryCmd = &cobra.Command{
	Use:   "history RUN_ID",
	Short: sym.AX + " Show accounting records for a run",
	Long: sym.AX + ` history — Show accounting records for a run

Lists every finished attempt of the run's jobs in the window, as reported by
sacct. Requeued or retried jobs appear once per attempt unless --latest is
given, which keeps only the record with the latest end time per job name.

Times accept 2006-01-02T15:04:05, 2006-01-02, 15:04 (today) or a duration
back from now such as 2h.

Examples:
  qsup history 202403011200
  qsup history 202403011200 --since 2024-03-01 --state FAILED,TIMEOUT
  qsup history 202403011200 --since 6h --latest --json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var (
	historySince  string
	historyUntil  string
	historyStates string
	historyLatest bool
)

func init() {
	HistoryCmd.Flags().StringVar(&historySince, "since", "", "Start of the accounting window (default: midnight today)")
	HistoryCmd.Flags().StringVar(&historyUntil, "until", "", "End of the accounting window (default: now)")
	HistoryCmd.Flags().StringVar(&historyStates, "state", "", "Comma-separated terminal states to keep, e.g. FAILED,TIMEOUT")
	HistoryCmd.Flags().BoolVar(&historyLatest, "latest", false, "Keep only the latest record per job name")
}

func runHistory(cmd *cobra.Command, args []string) error {
	runID := args[0]
	now := time.Now()

	q, err := historyQuery(runID, historySince, historyUntil, historyStates, now)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	records, err := client.QueryHistory(cmd.Context(), q)
	if err != nil {
		return Annotate(err, runID)
	}
	if historyLatest {
		records = slurm.SortedRecords(slurm.DedupeToLatest(records))
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), records)
	}
	return display.RenderJobs(cmd.OutOrStdout(), records, true)
}

// historyQuery builds the accounting query from the history flags.
func historyQuery(runID, since, until, states string, now time.Time) (slurm.HistoryQuery, error) {
	q := slurm.HistoryQuery{RunIDPrefix: runID, Start: midnight(now)}

	var err error
	if since != "" {
		if q.Start, err = parseTime(since, now); err != nil {
			return q, err
		}
	}
	if until != "" {
		if q.End, err = parseTime(until, now); err != nil {
			return q, err
		}
		if q.End.Before(q.Start) {
			return q, errors.Newf("--until %s is before --since %s", q.End.Format(time.RFC3339), q.Start.Format(time.RFC3339))
		}
	}
	if q.States, err = parseStates(states); err != nil {
		return q, err
	}
	return q, nil
}
