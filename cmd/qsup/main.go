package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qsup/am"
	"github.com/teranos/qsup/cmd/qsup/commands"
	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/logger"
)

var rootCmd = &cobra.Command{
	Use:   "qsup",
	Short: "qsup - Slurm pipeline supervisor",
	Long: `qsup - Slurm pipeline supervisor.

qsup launches a pipeline through its launcher, confirms its jobs reached the
Slurm queue, waits for the queue to drain and classifies the run from
accounting records. Jobs belong to a run when their name starts with the run
id.

Available commands:
  run      - Launch a pipeline and supervise it to completion
  check    - Classify a finished run from accounting
  queue    - Show pending and running jobs
  history  - Show accounting records for a run
  doctor   - Check scheduler connectivity
  am       - Manage qsup configuration ("I am")

Examples:
  qsup run -e ./execute --account proj --partition batch
  qsup queue 202403011200
  qsup history 202403011200 --since 2h --latest
  qsup am where`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		am.SetConfigFile(configPath)

		// Config errors are reported by the command itself; here the config
		// only decides the log encoding.
		jsonLogs := jsonOutput
		if cmd.Name() != "version" {
			if cfg, err := am.Load(); err == nil {
				jsonLogs = jsonLogs || cfg.Log.JSON
			}
		}

		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		for _, w := range am.Warnings {
			logger.Warnw("Configuration warning", "warning", w)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().String("config", "", "Config file layered on top of the discovered ones")
	rootCmd.PersistentFlags().Bool("json", false, "Emit machine-readable JSON instead of terminal output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.QueueCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.DoctorCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Cleanup()

	if err != nil {
		fmt.Fprintln(os.Stderr, pterm.Error.Sprint(err.Error()))
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, pterm.Info.Sprint(hint))
		}
		os.Exit(commands.ExitCode(err))
	}
}
