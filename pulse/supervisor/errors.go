package supervisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/slurm"
)

// LaunchError reports a launcher invocation that did not exit 0.
type LaunchError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error // set when the launcher could not be started
}

func (e *LaunchError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	switch {
	case e.Err != nil:
		return fmt.Sprintf("launch command failed: %v", e.Err)
	case stderr != "":
		return fmt.Sprintf("launch command exited %d: %s", e.ExitCode, stderr)
	default:
		return fmt.Sprintf("launch command exited %d", e.ExitCode)
	}
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is matches errors.ErrLaunch.
func (e *LaunchError) Is(target error) bool { return target == errors.ErrLaunch }

// LaunchNotConfirmedError reports that no job for the run appeared in the
// live queue before the confirmation deadline.
type LaunchNotConfirmedError struct {
	RunID    string
	Deadline time.Duration
	Elapsed  time.Duration
}

func (e *LaunchNotConfirmedError) Error() string {
	return fmt.Sprintf("no jobs for run %s appeared in the queue within %s (waited %s)",
		e.RunID, e.Deadline, e.Elapsed.Round(time.Second))
}

// Is matches errors.ErrLaunchNotConfirmed.
func (e *LaunchNotConfirmedError) Is(target error) bool {
	return target == errors.ErrLaunchNotConfirmed
}

// MonitorTimeoutError reports jobs still pending or running when the monitor
// timeout was reached.
type MonitorTimeoutError struct {
	RunID     string
	Timeout   time.Duration
	Remaining []slurm.JobRecord
}

func (e *MonitorTimeoutError) Error() string {
	return fmt.Sprintf("run %s still has %d job(s) pending/running after %s",
		e.RunID, len(e.Remaining), e.Timeout)
}

// Is matches errors.ErrMonitorTimeout.
func (e *MonitorTimeoutError) Is(target error) bool {
	return target == errors.ErrMonitorTimeout
}

// FailedJob is one job that did not finish COMPLETED.
type FailedJob struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	JobID int64  `json:"job_id,omitempty" yaml:"job_id,omitempty" toml:"job_id,omitempty"`
	State string `json:"state" yaml:"state" toml:"state"`
}

// String renders the job as "name :: state".
func (f FailedJob) String() string {
	return f.Name + " :: " + f.State
}

// PipelineFailure reports jobs whose latest accounting record is not
// COMPLETED. Failed is ordered by name.
type PipelineFailure struct {
	RunID  string
	Failed []FailedJob
}

func (e *PipelineFailure) Error() string {
	return fmt.Sprintf("run %s has %d failed job(s): %s",
		e.RunID, len(e.Failed), strings.Join(e.Lines(), ", "))
}

// Lines returns one "name :: state" line per failed job.
func (e *PipelineFailure) Lines() []string {
	lines := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		lines[i] = f.String()
	}
	return lines
}

// Is matches errors.ErrPipelineFailure.
func (e *PipelineFailure) Is(target error) bool {
	return target == errors.ErrPipelineFailure
}
