// Package commands implements the qsup subcommands.
package commands

import (
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/qsup/am"
	"github.com/teranos/qsup/display"
	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/internal/identity"
	"github.com/teranos/qsup/internal/runner"
	"github.com/teranos/qsup/logger"
	"github.com/teranos/qsup/pulse"
	"github.com/teranos/qsup/slurm"
)

// loadConfig loads and validates the configuration cascade.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(err, "run `qsup am validate` to check your configuration")
	}
	return cfg, nil
}

// newClient builds the scheduler client from the [scheduler] section.
func newClient(cfg *am.Config) (*slurm.CLIClient, error) {
	opts, err := slurm.OptionsFromConfig(cfg.Scheduler)
	if err != nil {
		return nil, err
	}
	return slurm.NewCLIClient(runner.NewExecRunner(), opts), nil
}

// resolveUser returns the --user flag value or the acting user.
func resolveUser(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return identity.CurrentUser()
}

// newEmitter picks the JSON or terminal emitter for cmd.
func newEmitter(cmd *cobra.Command, out io.Writer) pulse.ProgressEmitter {
	if display.ShouldOutputJSON(cmd) {
		return display.NewJSONEmitter(out)
	}
	return display.NewCLIEmitter(out, logger.Verbosity)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime accepts an absolute timestamp in local time, a clock time today
// ("14:30"), or a duration back from now ("90m", "2h").
func parseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty time")
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	if t, err := time.ParseInLocation("15:04", s, time.Local); err == nil {
		y, m, d := now.Local().Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.Local), nil
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, errors.Newf("duration %q must be positive", s)
		}
		return now.Add(-d), nil
	}

	return time.Time{}, errors.WithHint(
		errors.Newf("cannot parse time %q", s),
		"use 2006-01-02T15:04:05, 2006-01-02, 15:04 or a duration such as 2h",
	)
}

// midnight returns the start of now's local day.
func midnight(now time.Time) time.Time {
	y, m, d := now.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// parseStates parses a comma-separated terminal state list.
func parseStates(s string) ([]slurm.TerminalState, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var states []slurm.TerminalState
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		st := slurm.ParseTerminalState(part)
		if st == slurm.TerminalOther && !strings.EqualFold(part, string(slurm.TerminalOther)) {
			return nil, errors.WithHint(
				errors.Newf("unknown state %q", part),
				"valid states: COMPLETED, FAILED, TIMEOUT, CANCELLED, NODE_FAIL, OTHER",
			)
		}
		states = append(states, st)
	}
	return states, nil
}
