// Package errors provides error handling for qsup.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Operator-facing hints and details
//
// It also defines the supervisor's error taxonomy as sentinels. Typed errors
// elsewhere (slurm.QueryError, supervisor.LaunchError, ...) match these
// sentinels through errors.Is so callers never need to import the
// concrete types to branch on a failure class.
//
// Usage:
//
//	if err := client.QueryLiveQueue(ctx, user, runID); err != nil {
//	    return errors.Wrap(err, "await queue appearance")
//	}
//
//	if errors.Is(err, errors.ErrMonitorTimeout) {
//	    // run exceeded its wall-clock budget
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapOnce    = crdb.UnwrapOnce
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Supervisor error taxonomy. Wrap these (or return a typed error whose Is
// method matches them) so the top level can pick an exit status.
var (
	// ErrSchedulerQuery indicates a scheduler query tool failed or returned malformed output
	ErrSchedulerQuery = New("scheduler query failed")

	// ErrLaunch indicates the pipeline launcher exited non-zero
	ErrLaunch = New("pipeline launch failed")

	// ErrLaunchNotConfirmed indicates the launcher succeeded but no job ever reached the queue
	ErrLaunchNotConfirmed = New("pipeline launch not confirmed")

	// ErrMonitorTimeout indicates the run exceeded its wall-clock budget
	ErrMonitorTimeout = New("pipeline monitor timed out")

	// ErrPipelineFailure indicates one or more jobs did not terminate as COMPLETED
	ErrPipelineFailure = New("pipeline failure")

	// ErrInvalidConfig indicates configuration values that cannot be used
	ErrInvalidConfig = New("invalid configuration")
)

// IsSchedulerQueryError checks if an error is or wraps ErrSchedulerQuery
func IsSchedulerQueryError(err error) bool {
	return err != nil && Is(err, ErrSchedulerQuery)
}

// IsLaunchError checks if an error is or wraps ErrLaunch
func IsLaunchError(err error) bool {
	return err != nil && Is(err, ErrLaunch)
}

// IsLaunchNotConfirmedError checks if an error is or wraps ErrLaunchNotConfirmed
func IsLaunchNotConfirmedError(err error) bool {
	return err != nil && Is(err, ErrLaunchNotConfirmed)
}

// IsMonitorTimeoutError checks if an error is or wraps ErrMonitorTimeout
func IsMonitorTimeoutError(err error) bool {
	return err != nil && Is(err, ErrMonitorTimeout)
}

// IsPipelineFailure checks if an error is or wraps ErrPipelineFailure
func IsPipelineFailure(err error) bool {
	return err != nil && Is(err, ErrPipelineFailure)
}

// NewInvalidConfigError creates an invalid-config error with a formatted message
func NewInvalidConfigError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidConfig, Newf(format, args...).Error())
}
