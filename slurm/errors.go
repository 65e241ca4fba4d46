package slurm

import (
	"fmt"
	"strings"

	"github.com/teranos/qsup/errors"
)

// QueryError reports a scheduler query that failed: the tool exited
// non-zero, could not be started, or printed output we could not decode.
// It matches errors.ErrSchedulerQuery.
type QueryError struct {
	// Tool is the scheduler command (e.g., "squeue", "sacct").
	Tool string

	// Command is the full command line that was run.
	Command string

	// ExitCode is the tool's exit status; 0 when the failure was in decoding.
	ExitCode int

	// Stderr is the tool's diagnostic output.
	Stderr string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	switch {
	case e.ExitCode != 0 && stderr != "":
		return fmt.Sprintf("error occurred running %s (exit %d): %s", e.Tool, e.ExitCode, stderr)
	case e.ExitCode != 0:
		return fmt.Sprintf("error occurred running %s (exit %d)", e.Tool, e.ExitCode)
	case e.Err != nil:
		return fmt.Sprintf("error occurred running %s: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("error occurred running %s", e.Tool)
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is matches the scheduler-query sentinel.
func (e *QueryError) Is(target error) bool {
	return target == errors.ErrSchedulerQuery
}
