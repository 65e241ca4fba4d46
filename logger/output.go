package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - Results, failed jobs, final status
//	1 (-v)      - + Poll progress, launch command echo, run summary
//	2 (-vv)     - + Scheduler commands, timing, config loaded
//	3 (-vvv)    - + Launcher stdout/stderr
//	4 (-vvvv)   - + Raw scheduler JSON responses

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Query results, command output
	OutputErrors                           // Errors with hints and failed job lists
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress      // Poll progress (e.g., "There are 3 jobs still pending/running...")
	OutputStartup       // Run banner, resolved user and run id
	OutputOperationInfo // Per-job outcomes including successes

	// Level 2 (-vv) - Detailed
	OutputSchedulerCalls // squeue/sacct command lines
	OutputTiming         // Phase timing
	OutputConfig         // Config values loaded/applied

	// Level 3 (-vvv) - Debug
	OutputLauncherLogs // Launcher stdout/stderr forwarding

	// Level 4 (-vvvv) - Full dump
	OutputResponseBody // Raw scheduler JSON
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress:      VerbosityInfo,
	OutputStartup:       VerbosityInfo,
	OutputOperationInfo: VerbosityInfo,

	OutputSchedulerCalls: VerbosityDebug,
	OutputTiming:         VerbosityDebug,
	OutputConfig:         VerbosityDebug,

	OutputLauncherLogs: VerbosityTrace,

	OutputResponseBody: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:        "results",
	OutputErrors:         "errors",
	OutputUserStatus:     "status",
	OutputProgress:       "progress",
	OutputStartup:        "startup",
	OutputOperationInfo:  "operation-info",
	OutputSchedulerCalls: "scheduler-calls",
	OutputTiming:         "timing",
	OutputConfig:         "config",
	OutputLauncherLogs:   "launcher-logs",
	OutputResponseBody:   "response-body",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
