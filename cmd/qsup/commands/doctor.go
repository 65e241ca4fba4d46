package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/slurm"
	"github.com/teranos/qsup/sym"
)

// DoctorCmd checks that qsup can talk to the scheduler
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks against the configured scheduler tools.

Checks that the configuration is valid, the acting user can be resolved,
squeue and sacct answer with JSON qsup can decode, and the reported Slurm
release supports JSON output.

Examples:
  qsup doctor
  qsup doctor --user pipeline-bot`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorUser string

func init() {
	DoctorCmd.Flags().StringVar(&doctorUser, "user", "", "Scheduler user to query (default: $USER)")
}

// doctorCheck is one numbered diagnostic. run returns a short detail on success.
type doctorCheck struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var (
		client *slurm.CLIClient
		user   string
	)

	checks := []doctorCheck{
		{"configuration", func(context.Context) (string, error) {
			cfg, err := loadConfig()
			if err != nil {
				return "", err
			}
			if client, err = newClient(cfg); err != nil {
				return "", err
			}
			return fmt.Sprintf("squeue=%s sacct=%s", cfg.Scheduler.SqueuePath, cfg.Scheduler.SacctPath), nil
		}},
		{"user", func(context.Context) (string, error) {
			var err error
			user, err = resolveUser(doctorUser)
			return user, err
		}},
		{"squeue", func(ctx context.Context) (string, error) {
			if client == nil || user == "" {
				return "", errors.New("skipped")
			}
			records, err := client.QueryLiveQueue(ctx, user, "")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d live job(s)", len(records)), nil
		}},
		{"sacct", func(ctx context.Context) (string, error) {
			if client == nil {
				return "", errors.New("skipped")
			}
			records, err := client.QueryHistory(ctx, slurm.HistoryQuery{Start: time.Now().Add(-time.Hour)})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d record(s) in the last hour", len(records)), nil
		}},
		{"slurm release", func(context.Context) (string, error) {
			if client == nil || client.Release() == "" {
				return "", errors.New("no release reported")
			}
			if err := slurm.CheckVersion(client.Release()); err != nil {
				return "", err
			}
			return client.Release(), nil
		}},
	}

	failed := runDoctorChecks(cmd.Context(), cmd.OutOrStdout(), checks)
	if failed > 0 {
		return errors.Newf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s All checks passed\n", sym.OK)
	return nil
}

// runDoctorChecks runs checks in order, printing one line each, and returns
// the number that failed.
func runDoctorChecks(ctx context.Context, w io.Writer, checks []doctorCheck) int {
	failed := 0
	for i, c := range checks {
		detail, err := c.run(ctx)
		if err != nil {
			failed++
			fmt.Fprintf(w, "[%d/%d] %s %s: %v\n", i+1, len(checks), sym.Fail, c.name, err)
			for _, hint := range errors.GetAllHints(err) {
				fmt.Fprintf(w, "      hint: %s\n", hint)
			}
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s %s: %s\n", i+1, len(checks), sym.OK, c.name, detail)
	}
	return failed
}
