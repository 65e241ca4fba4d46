package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teranos/qsup/slurm"
)

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// liveResponse is one scripted answer to QueryLiveQueue.
type liveResponse struct {
	records []slurm.JobRecord
	err     error
}

// fakeClient replays scripted live responses in order, repeating the last
// one once the script runs out.
type fakeClient struct {
	mu           sync.Mutex
	live         []liveResponse
	liveCalls    int
	history      []slurm.JobRecord
	historyErr   error
	historyCalls []slurm.HistoryQuery
	users        []string
}

func (f *fakeClient) QueryLiveQueue(_ context.Context, user, prefix string) ([]slurm.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, user)
	idx := f.liveCalls
	f.liveCalls++
	if len(f.live) == 0 {
		return nil, nil
	}
	if idx >= len(f.live) {
		idx = len(f.live) - 1
	}
	r := f.live[idx]
	if r.err != nil {
		return nil, r.err
	}
	var out []slurm.JobRecord
	for _, rec := range r.records {
		if len(rec.Name) >= len(prefix) && rec.Name[:len(prefix)] == prefix {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeClient) QueryHistory(_ context.Context, q slurm.HistoryQuery) ([]slurm.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls = append(f.historyCalls, q)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

// fakeLauncher records launches and optionally advances the clock to
// simulate a slow launcher.
type fakeLauncher struct {
	specs []LaunchSpec
	err   error
	clock *fakeClock
	takes time.Duration
}

func (l *fakeLauncher) Launch(_ context.Context, spec LaunchSpec) error {
	l.specs = append(l.specs, spec)
	if l.clock != nil {
		l.clock.now = l.clock.now.Add(l.takes)
	}
	return l.err
}

// recordingEmitter captures everything emitted and tracks tasks.
type recordingEmitter struct {
	stages   []string
	infos    []string
	progress []string
	errs     []error
	complete []map[string]interface{}
	tasks    map[string]string
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{tasks: make(map[string]string)}
}

func (e *recordingEmitter) EmitStage(stage, message string) {
	e.stages = append(e.stages, stage)
}

func (e *recordingEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	e.progress = append(e.progress, fmt.Sprint(metadata["message"]))
}

func (e *recordingEmitter) EmitComplete(summary map[string]interface{}) {
	e.complete = append(e.complete, summary)
}

func (e *recordingEmitter) EmitError(stage string, err error) {
	e.errs = append(e.errs, err)
}

func (e *recordingEmitter) EmitInfo(message string) {
	e.infos = append(e.infos, message)
}

func (e *recordingEmitter) AddTask(taskID, taskName string) {
	e.tasks[taskID] = ""
}

func (e *recordingEmitter) UpdateTaskStatus(taskID string, completed bool, result string) {
	mark := "✗"
	if completed {
		mark = "✓"
	}
	e.tasks[taskID] = mark + " " + result
}

func pending(name string) slurm.JobRecord {
	return slurm.JobRecord{Name: name, LiveState: slurm.LivePending, RawState: "PENDING"}
}

func running(name string) slurm.JobRecord {
	return slurm.JobRecord{Name: name, LiveState: slurm.LiveRunning, RawState: "RUNNING"}
}

func finished(name string, state slurm.TerminalState, end int64) slurm.JobRecord {
	return slurm.JobRecord{Name: name, TerminalState: state, RawState: string(state), EndTime: end}
}
