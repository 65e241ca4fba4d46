package slurm

import (
	"context"
	"sync"

	"github.com/teranos/qsup/internal/runner"
)

// fakeRunner returns canned results and records every command it was asked
// to run.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []runner.Command
	results  []*runner.Result
	err      error
	fallback *runner.Result
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return f.fallback, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

func ok(stdout string) *runner.Result {
	return &runner.Result{Stdout: []byte(stdout)}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.QueriesPerMinute = 0
	return opts
}

const squeueCurrent = `{
  "meta": {"slurm": {"version": {"major": "23", "minor": "02", "micro": "7"}, "release": "23.02.7"}},
  "errors": [],
  "jobs": [
    {"name": "run123-step1", "job_id": 101, "job_state": ["PENDING"]},
    {"name": "run123-step2", "job_id": 102, "job_state": ["RUNNING", "COMPLETING"]},
    {"name": "run123-step3", "job_id": 103, "job_state": ["COMPLETED"]},
    {"name": "run123-step4", "job_id": 104, "job_state": ["CANCELLED"]},
    {"name": "other-job", "job_id": 200, "job_state": ["RUNNING"]}
  ]
}`

const squeueLegacy = `{
  "meta": {"Slurm": {"release": "21.08.5"}},
  "jobs": [
    {"name": "run123-a", "job_id": 11, "job_state": "RUNNING"},
    {"name": "run123-b", "job_id": 12, "job_state": "PENDING"}
  ]
}`

const sacctCurrent = `{
  "meta": {"slurm": {"release": "23.11.1"}},
  "jobs": [
    {"name": "run123-step1", "job_id": 301, "time": {"end": {"set": true, "infinite": false, "number": 1700000100}}, "state": {"current": ["FAILED"], "reason": "None"}},
    {"name": "run123-step1", "job_id": 302, "time": {"end": {"set": true, "infinite": false, "number": 1700000200}}, "state": {"current": ["COMPLETED"], "reason": "None"}},
    {"name": "run123-step2", "job_id": 303, "time": {"end": {"set": true, "infinite": false, "number": 1700000150}}, "state": {"current": ["TIMEOUT"], "reason": "None"}},
    {"name": "unrelated", "job_id": 400, "time": {"end": {"set": true, "infinite": false, "number": 1700000000}}, "state": {"current": ["COMPLETED"], "reason": "None"}}
  ]
}`

const sacctLegacy = `{
  "jobs": [
    {"name": "run123-x", "job_id": 7, "time": {"end": 1600000000}, "state": {"current": "COMPLETED"}},
    {"name": "run123-y", "job_id": 8, "time": {}, "state": {"current": "OUT_OF_MEMORY"}}
  ]
}`
