package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/qsup/display"
	"github.com/teranos/qsup/sym"
)

// QueueCmd shows the live queue for a run
var QueueCmd = &cobra.Command{
	Use:   "queue [RUN_ID]",
	Short: sym.AX + " Show pending and running jobs",
	Long: sym.AX + ` queue — Show pending and running jobs

Lists the user's PENDING and RUNNING jobs whose name starts with RUN_ID.
Without RUN_ID every live job of the user is shown.

Examples:
  qsup queue 202403011200
  qsup queue --user pipeline-bot --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQueue,
}

var queueUser string

func init() {
	QueueCmd.Flags().StringVar(&queueUser, "user", "", "Scheduler user owning the jobs (default: $USER)")
}

func runQueue(cmd *cobra.Command, args []string) error {
	var prefix string
	if len(args) == 1 {
		prefix = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	user, err := resolveUser(queueUser)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	records, err := client.QueryLiveQueue(cmd.Context(), user, prefix)
	if err != nil {
		return Annotate(err, prefix)
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), records)
	}
	return display.RenderJobs(cmd.OutOrStdout(), records, false)
}
