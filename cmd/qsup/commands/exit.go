package commands

import (
	"fmt"

	"github.com/teranos/qsup/errors"
)

// Process exit codes
const (
	ExitOK              = 0
	ExitError           = 1 // usage, configuration or scheduler query errors
	ExitPipelineFailure = 2
	ExitTimeout         = 3
	ExitLaunchFailure   = 4
)

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsPipelineFailure(err):
		return ExitPipelineFailure
	case errors.IsMonitorTimeoutError(err):
		return ExitTimeout
	case errors.IsLaunchError(err), errors.IsLaunchNotConfirmedError(err):
		return ExitLaunchFailure
	default:
		return ExitError
	}
}

// Annotate attaches operator hints for the error kinds a run can end with.
func Annotate(err error, runID string) error {
	if err == nil {
		return nil
	}
	if runID == "" {
		runID = "RUN_ID"
	}
	switch {
	case errors.IsSchedulerQueryError(err):
		return errors.WithHint(err,
			"check that squeue and sacct work for your user, or set scheduler.command_prefix; `qsup doctor` runs both")
	case errors.IsLaunchNotConfirmedError(err):
		return errors.WithHint(err,
			"the launcher exited 0 but no job named "+runID+"* reached the queue; check its output with -vvv")
	case errors.IsMonitorTimeoutError(err):
		return errors.WithHint(err,
			fmt.Sprintf("jobs were left running; inspect them with `qsup queue %s` or raise --timeout", runID))
	case errors.IsPipelineFailure(err):
		return errors.WithHint(err,
			fmt.Sprintf("inspect every attempt with `qsup history %s --since <start>`", runID))
	case errors.IsLaunchError(err):
		return errors.WithHint(err, "rerun with -vvv to see the launcher's output")
	default:
		return err
	}
}
