package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/logger"
	"github.com/teranos/qsup/pulse/supervisor"
	"github.com/teranos/qsup/sym"
)

// ProgressEvent represents a structured JSON progress event
type ProgressEvent struct {
	Type      string                 `json:"type"`      // "stage", "progress", "task", "complete", "error", "info"
	Timestamp time.Time              `json:"timestamp"` // When this event occurred
	Data      map[string]interface{} `json:"data"`      // Event-specific data
}

// CLIEmitter outputs pretty-printed progress to a terminal using pterm
type CLIEmitter struct {
	out       io.Writer
	verbosity int
	tasks     map[string]string // job name -> result, filled by the task tracker
}

// NewCLIEmitter creates a CLI progress emitter writing to out
func NewCLIEmitter(out io.Writer, verbosity int) *CLIEmitter {
	return &CLIEmitter{out: out, verbosity: verbosity, tasks: make(map[string]string)}
}

func (e *CLIEmitter) println(s string) {
	fmt.Fprintln(e.out, s)
}

// EmitStage prints a stage announcement
func (e *CLIEmitter) EmitStage(stage string, message string) {
	if !logger.ShouldOutput(e.verbosity, logger.OutputProgress) {
		return
	}
	e.println(fmt.Sprintf("%s %s: %s", sym.ForPhase(stage), pterm.LightCyan(stage), message))
}

// EmitProgress prints the poll message carried in metadata
func (e *CLIEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	msg, ok := metadata["message"].(string)
	if !ok {
		msg = fmt.Sprintf("%d job(s)", count)
	}
	if poll, ok := metadata["poll"].(int); ok && logger.ShouldOutput(e.verbosity, logger.OutputOperationInfo) {
		msg = fmt.Sprintf("%s %s", msg, pterm.Gray(fmt.Sprintf("(poll %d)", poll)))
	}
	e.println(msg)
}

// EmitComplete prints completion summary
func (e *CLIEmitter) EmitComplete(summary map[string]interface{}) {
	msg, ok := summary["message"].(string)
	if !ok {
		msg = "Run complete"
	}
	e.println(pterm.Success.Sprint(msg))

	if logger.ShouldOutput(e.verbosity, logger.OutputOperationInfo) {
		keys := make([]string, 0, len(summary))
		for k := range summary {
			if k != "message" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			e.println(fmt.Sprintf("  %s: %v", k, summary[k]))
		}
	}
}

// EmitError prints a failure. Failed jobs are listed as "name :: state".
func (e *CLIEmitter) EmitError(stage string, err error) {
	var pf *supervisor.PipelineFailure
	if errors.As(err, &pf) {
		e.println(pterm.Error.Sprint("Job failure(s) found:"))
		for _, line := range pf.Lines() {
			e.println(fmt.Sprintf("%s %s", sym.Fail, line))
		}
		return
	}
	e.println(pterm.Error.Sprintf("%s phase failed", stage))
}

// EmitInfo prints informational message
func (e *CLIEmitter) EmitInfo(message string) {
	if logger.ShouldOutput(e.verbosity, logger.OutputUserStatus) {
		e.println(message)
	}
}

// AddTask registers a job whose outcome will be reported
func (e *CLIEmitter) AddTask(taskID string, taskName string) {
	e.tasks[taskID] = ""
}

// UpdateTaskStatus prints one job outcome at -v and above
func (e *CLIEmitter) UpdateTaskStatus(taskID string, completed bool, result string) {
	e.tasks[taskID] = result
	if !logger.ShouldOutput(e.verbosity, logger.OutputOperationInfo) {
		return
	}
	mark := pterm.Red(sym.Fail)
	if completed {
		mark = pterm.Green(sym.OK)
	}
	e.println(fmt.Sprintf("%s %s :: %s", mark, taskID, result))
}

// JSONEmitter outputs one structured JSON event per line
type JSONEmitter struct {
	encoder *json.Encoder
	now     func() time.Time
}

// NewJSONEmitter creates a JSON progress emitter writing to out
func NewJSONEmitter(out io.Writer) *JSONEmitter {
	return &JSONEmitter{
		encoder: json.NewEncoder(out),
		now:     time.Now,
	}
}

func (e *JSONEmitter) emit(kind string, data map[string]interface{}) {
	if err := e.encoder.Encode(ProgressEvent{Type: kind, Timestamp: e.now(), Data: data}); err != nil {
		logger.Warnw("Failed to write progress event", "type", kind, logger.FieldError, err)
	}
}

// EmitStage emits a stage event as JSON
func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]interface{}{
		"stage":   stage,
		"message": message,
	})
}

// EmitProgress emits a progress event as JSON
func (e *JSONEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	data := map[string]interface{}{
		"count": count,
	}
	// Merge metadata into data
	for k, v := range metadata {
		data[k] = v
	}
	e.emit("progress", data)
}

// EmitComplete emits a completion event as JSON
func (e *JSONEmitter) EmitComplete(summary map[string]interface{}) {
	e.emit("complete", summary)
}

// EmitError emits an error event as JSON
func (e *JSONEmitter) EmitError(stage string, err error) {
	data := map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	}
	var pf *supervisor.PipelineFailure
	if errors.As(err, &pf) {
		data["failed"] = pf.Failed
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		data["hints"] = hints
	}
	e.emit("error", data)
}

// EmitInfo emits an info event as JSON
func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]interface{}{
		"message": message,
	})
}

// AddTask is a no-op; jobs are reported once their outcome is known
func (e *JSONEmitter) AddTask(taskID string, taskName string) {}

// UpdateTaskStatus emits a task event as JSON
func (e *JSONEmitter) UpdateTaskStatus(taskID string, completed bool, result string) {
	e.emit("task", map[string]interface{}{
		"name":      taskID,
		"completed": completed,
		"state":     result,
	})
}
