// Package slurm queries the Slurm workload manager for the jobs belonging to
// a supervised run and reconciles the records it returns.
//
// Two views are available and they disagree in useful ways:
//
//   - the live queue (squeue) answers "is anything for this run still
//     pending or running?" but keeps listing finished jobs for a few minutes
//   - the accounting log (sacct) answers "how did each job end?" but may hold
//     several rows per job name when steps are retried or resubmitted
//
// QueryLiveQueue therefore re-filters on live state client-side, and
// DedupeToLatest collapses accounting rows to the most recent per name
// before Classify decides pass or fail.
package slurm

import "strings"

// LiveState is the state of a job as reported by the live queue.
type LiveState string

const (
	LivePending LiveState = "PENDING"
	LiveRunning LiveState = "RUNNING"
	LiveOther   LiveState = "OTHER"
)

// ParseLiveState maps a scheduler state string to a LiveState.
func ParseLiveState(s string) LiveState {
	switch LiveState(strings.ToUpper(strings.TrimSpace(s))) {
	case LivePending:
		return LivePending
	case LiveRunning:
		return LiveRunning
	default:
		return LiveOther
	}
}

// Active reports whether the job is still pending or running.
func (s LiveState) Active() bool {
	return s == LivePending || s == LiveRunning
}

// TerminalState is the final state of a job as reported by accounting.
type TerminalState string

const (
	TerminalCompleted TerminalState = "COMPLETED"
	TerminalFailed    TerminalState = "FAILED"
	TerminalTimeout   TerminalState = "TIMEOUT"
	TerminalCancelled TerminalState = "CANCELLED"
	TerminalNodeFail  TerminalState = "NODE_FAIL"
	TerminalOther     TerminalState = "OTHER"
)

// ParseTerminalState maps a scheduler state string to a TerminalState.
// Anything unrecognized becomes TerminalOther.
func ParseTerminalState(s string) TerminalState {
	switch TerminalState(strings.ToUpper(strings.TrimSpace(s))) {
	case TerminalCompleted:
		return TerminalCompleted
	case TerminalFailed:
		return TerminalFailed
	case TerminalTimeout:
		return TerminalTimeout
	case TerminalCancelled:
		return TerminalCancelled
	case TerminalNodeFail:
		return TerminalNodeFail
	default:
		return TerminalOther
	}
}

// JobRecord is one scheduler job snapshot at query time.
//
// LiveState is set only by live-queue queries and TerminalState only by
// accounting queries. RawState keeps the scheduler's own spelling of the
// state so OTHER values (OUT_OF_MEMORY, PREEMPTED, ...) can be shown to the
// operator. Records are passed by value and never modified after decoding.
type JobRecord struct {
	Name          string        `json:"name" yaml:"name" toml:"name"`
	JobID         int64         `json:"job_id,omitempty" yaml:"job_id,omitempty" toml:"job_id,omitempty"`
	LiveState     LiveState     `json:"live_state,omitempty" yaml:"live_state,omitempty" toml:"live_state,omitempty"`
	TerminalState TerminalState `json:"terminal_state,omitempty" yaml:"terminal_state,omitempty" toml:"terminal_state,omitempty"`
	RawState      string        `json:"raw_state" yaml:"raw_state" toml:"raw_state"`
	EndTime       int64         `json:"end_time,omitempty" yaml:"end_time,omitempty" toml:"end_time,omitempty"`
}

// DisplayState is the state shown to operators: the scheduler's own
// spelling when present, otherwise the normalized enum.
func (r JobRecord) DisplayState() string {
	if r.RawState != "" {
		return r.RawState
	}
	if r.TerminalState != "" {
		return string(r.TerminalState)
	}
	return string(r.LiveState)
}

// filterByPrefix retains records whose name starts with prefix. An empty
// prefix retains everything.
func filterByPrefix(records []JobRecord, prefix string) []JobRecord {
	if prefix == "" {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if strings.HasPrefix(r.Name, prefix) {
			out = append(out, r)
		}
	}
	return out
}
