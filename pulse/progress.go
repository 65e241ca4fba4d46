// Package pulse holds the progress-reporting contracts shared by the
// supervisor and the display layer.
package pulse

// ProgressEmitter defines the interface for emitting progress updates during
// a supervised run. Implementations live in the display package (terminal
// and JSON); the supervisor only ever talks to this interface.
type ProgressEmitter interface {
	// EmitStage announces the start of a phase
	EmitStage(stage string, message string)

	// EmitProgress reports one poll of the scheduler: count is the number of
	// matching jobs, metadata carries phase-specific detail such as the poll
	// number and a human message.
	EmitProgress(count int, metadata map[string]interface{})

	// EmitComplete announces successful completion with summary
	EmitComplete(summary map[string]interface{})

	// EmitError announces an error during processing
	EmitError(stage string, err error)

	// EmitInfo emits general informational message
	EmitInfo(message string)
}

// TaskTracker is an optional interface that ProgressEmitter implementations
// can implement to receive per-job outcomes once accounting is checked.
type TaskTracker interface {
	// AddTask registers a new task that will be tracked
	// taskID: unique identifier (the job name)
	// taskName: display name
	AddTask(taskID string, taskName string)

	// UpdateTaskStatus updates a task's completion status
	// completed: true if the job finished COMPLETED, false otherwise
	// result: the scheduler's state for the job
	UpdateTaskStatus(taskID string, completed bool, result string)
}

// NopEmitter discards all progress.
type NopEmitter struct{}

// EmitStage does nothing
func (NopEmitter) EmitStage(string, string) {}

// EmitProgress does nothing
func (NopEmitter) EmitProgress(int, map[string]interface{}) {}

// EmitComplete does nothing
func (NopEmitter) EmitComplete(map[string]interface{}) {}

// EmitError does nothing
func (NopEmitter) EmitError(string, error) {}

// EmitInfo does nothing
func (NopEmitter) EmitInfo(string) {}
