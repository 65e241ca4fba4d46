package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across qsup.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID   = "run_id"
	FieldJobName = "job_name"
	FieldJobID   = "job_id"
	FieldUser    = "user"

	// Components
	FieldComponent = "component"
	FieldPhase     = "phase"

	// Operations
	FieldCommand   = "command"
	FieldExitCode  = "exit_code"
	FieldAccount   = "account"
	FieldPartition = "partition"
	FieldWorkDir   = "work_dir"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldStartTime  = "start_time"
	FieldEndTime    = "end_time"
	FieldElapsed    = "elapsed"
	FieldTimeout    = "timeout"
	FieldInterval   = "interval"

	// Errors
	FieldError  = "error"
	FieldStderr = "stderr"

	// Counts
	FieldCount      = "count"
	FieldTotalCount = "total_count"
	FieldPoll       = "poll"

	// Status
	FieldState = "state"

	// qsup-specific
	FieldSymbol = "symbol" // phase symbol (꩜, ✿, ❀)
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	phaseKey     contextKey = "logger_phase"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithPhase adds a supervisor phase name to the context for logging
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey, phase)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if phase, ok := ctx.Value(phaseKey).(string); ok && phase != "" {
		fields = append(fields, FieldPhase, phase)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
// Use this to get a logger that automatically includes run_id, phase, etc.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type CLIClient struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewCLIClient() *CLIClient {
//	    return &CLIClient{
//	        logger: logger.ComponentLogger("slurm"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
