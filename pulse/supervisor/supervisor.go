// Package supervisor drives one pipeline run through its phases:
//
//	launching -> awaiting_queue_appearance -> monitoring -> checking
//
// ending in succeeded, failed, timed_out or launch_failed. Phases run
// strictly in order on the caller's goroutine and nothing is retried: the
// first error ends the run.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/qsup/am"
	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/logger"
	"github.com/teranos/qsup/pulse"
	"github.com/teranos/qsup/slurm"
)

// State is a supervisor lifecycle state.
type State string

const (
	StateLaunching    State = "launching"
	StateAwaiting     State = "awaiting_queue_appearance"
	StateMonitoring   State = "monitoring"
	StateChecking     State = "checking"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateTimedOut     State = "timed_out"
	StateLaunchFailed State = "launch_failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateLaunchFailed:
		return true
	default:
		return false
	}
}

// Phase names used for logging and progress stages
const (
	PhaseLaunch  = "launch"
	PhaseAwait   = "await"
	PhaseMonitor = "monitor"
	PhaseCheck   = "check"
)

// RunContext identifies one supervised execution. It is created by Launch
// and read-only afterwards.
type RunContext struct {
	RunID      string
	StartTime  time.Time
	OwningUser string
}

// Config holds the polling parameters.
type Config struct {
	ConfirmDeadline time.Duration
	ConfirmInterval time.Duration
	MonitorInterval time.Duration
	MonitorTimeout  time.Duration
}

// DefaultConfig returns the standard timing: confirm within 2 minutes
// polling every 10s, then monitor every 30s for up to 20 minutes.
func DefaultConfig() Config {
	return Config{
		ConfirmDeadline: am.DefaultConfirmDeadline,
		ConfirmInterval: am.DefaultConfirmInterval,
		MonitorInterval: am.DefaultMonitorInterval,
		MonitorTimeout:  am.DefaultMonitorTimeout,
	}
}

// ConfigFrom converts the [supervisor] config section.
func ConfigFrom(c am.SupervisorConfig) Config {
	return Config{
		ConfirmDeadline: c.ConfirmDeadline,
		ConfirmInterval: c.ConfirmInterval,
		MonitorInterval: c.MonitorInterval,
		MonitorTimeout:  c.MonitorTimeout,
	}
}

// Result summarizes a finished run.
type Result struct {
	RunID      string            `json:"run_id" yaml:"run_id" toml:"run_id"`
	OwningUser string            `json:"user" yaml:"user" toml:"user"`
	State      State             `json:"state" yaml:"state" toml:"state"`
	StartTime  time.Time         `json:"start_time" yaml:"start_time" toml:"start_time"`
	EndTime    time.Time         `json:"end_time" yaml:"end_time" toml:"end_time"`
	Jobs       []slurm.JobRecord `json:"jobs,omitempty" yaml:"jobs,omitempty" toml:"jobs,omitempty"`
	Failed     []FailedJob       `json:"failed,omitempty" yaml:"failed,omitempty" toml:"failed,omitempty"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// CheckResult is the outcome of the accounting check.
type CheckResult struct {
	Jobs           []slurm.JobRecord // latest record per name, by name
	Classification slurm.Classification
}

// Supervisor runs the phases against a scheduler client and launcher.
type Supervisor struct {
	client   slurm.QueryClient
	launcher Launcher
	cfg      Config
	clock    Clock
	emitter  pulse.ProgressEmitter
	logger   *zap.SugaredLogger

	state State
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithClock replaces the wall clock (tests).
func WithClock(c Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// WithEmitter sets the progress emitter.
func WithEmitter(e pulse.ProgressEmitter) Option {
	return func(s *Supervisor) { s.emitter = e }
}

// New creates a Supervisor. Zero durations in cfg take the defaults.
func New(client slurm.QueryClient, launcher Launcher, cfg Config, opts ...Option) *Supervisor {
	def := DefaultConfig()
	if cfg.ConfirmDeadline <= 0 {
		cfg.ConfirmDeadline = def.ConfirmDeadline
	}
	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = def.ConfirmInterval
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = def.MonitorInterval
	}
	if cfg.MonitorTimeout <= 0 {
		cfg.MonitorTimeout = def.MonitorTimeout
	}

	s := &Supervisor{
		client:   client,
		launcher: launcher,
		cfg:      cfg,
		clock:    RealClock(),
		emitter:  pulse.NopEmitter{},
		logger:   logger.ComponentLogger("supervisor"),
		state:    StateLaunching,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return s.state
}

func (s *Supervisor) transition(next State, run RunContext) {
	if s.state == next {
		return
	}
	s.logger.Debugw("State transition",
		logger.FieldRunID, run.RunID,
		"from", s.state,
		"to", next)
	s.state = next
}

func (s *Supervisor) phaseLogger(run RunContext, phase string) *zap.SugaredLogger {
	return logger.ForPhase(s.logger, phase).With(logger.FieldRunID, run.RunID)
}

// fail moves to the terminal state for err and reports it.
func (s *Supervisor) fail(run RunContext, phase string, state State, err error) error {
	s.transition(state, run)
	s.phaseLogger(run, phase).Warnw("Run ended",
		logger.FieldState, state,
		logger.FieldError, err)
	s.emitter.EmitError(phase, err)
	return err
}

// Launch creates the work dir, records the start time and invokes the
// launcher. A launcher failure ends the run in launch_failed.
func (s *Supervisor) Launch(ctx context.Context, spec LaunchSpec, owningUser string) (RunContext, error) {
	run := RunContext{RunID: spec.RunID, OwningUser: owningUser}
	s.transition(StateLaunching, run)
	log := s.phaseLogger(run, PhaseLaunch)

	if err := spec.Validate(); err != nil {
		return run, s.fail(run, PhaseLaunch, StateLaunchFailed, &LaunchError{Err: err})
	}
	if err := ensureWorkDir(spec.WorkDir); err != nil {
		return run, s.fail(run, PhaseLaunch, StateLaunchFailed, &LaunchError{Err: err})
	}

	cmd := LaunchCommand(spec)
	s.emitter.EmitStage(PhaseLaunch, fmt.Sprintf("Launching run %s", spec.RunID))
	s.emitter.EmitInfo("Running execute command: " + cmd.String())

	// Captured before the launcher runs so jobs it submits fall inside the
	// accounting window.
	run.StartTime = s.clock.Now()

	log.Infow("Invoking launcher",
		logger.FieldCommand, cmd.String(),
		logger.FieldAccount, spec.Account,
		logger.FieldPartition, spec.Partition,
		logger.FieldWorkDir, spec.WorkDir,
		logger.FieldStartTime, run.StartTime)

	if err := s.launcher.Launch(ctx, spec); err != nil {
		var le *LaunchError
		if !errors.As(err, &le) {
			err = &LaunchError{Command: cmd.String(), Err: err}
		}
		return run, s.fail(run, PhaseLaunch, StateLaunchFailed, err)
	}

	s.transition(StateAwaiting, run)
	return run, nil
}

// AwaitQueueAppearance polls the live queue until at least one job for the
// run shows up. If none has appeared once more than deadline has passed since
// the run started, the launch is considered unconfirmed.
func (s *Supervisor) AwaitQueueAppearance(ctx context.Context, run RunContext, deadline time.Duration) ([]slurm.JobRecord, error) {
	s.transition(StateAwaiting, run)
	log := s.phaseLogger(run, PhaseAwait)
	s.emitter.EmitStage(PhaseAwait, "Waiting for jobs to appear in queue...")

	for poll := 1; ; poll++ {
		records, err := s.client.QueryLiveQueue(ctx, run.OwningUser, run.RunID)
		if err != nil {
			return nil, s.fail(run, PhaseAwait, StateLaunchFailed, err)
		}
		if len(records) > 0 {
			log.Infow("Jobs appeared in queue", logger.FieldCount, len(records), logger.FieldPoll, poll)
			s.emitter.EmitProgress(len(records), map[string]interface{}{
				"phase":   PhaseAwait,
				"poll":    poll,
				"message": fmt.Sprintf("%d job(s) appeared in queue", len(records)),
			})
			s.transition(StateMonitoring, run)
			return records, nil
		}

		elapsed := s.clock.Now().Sub(run.StartTime)
		if elapsed > deadline {
			return nil, s.fail(run, PhaseAwait, StateLaunchFailed, &LaunchNotConfirmedError{
				RunID:    run.RunID,
				Deadline: deadline,
				Elapsed:  elapsed,
			})
		}

		log.Debugw("No jobs in queue yet",
			logger.FieldPoll, poll,
			logger.FieldElapsed, elapsed,
			logger.FieldTimeout, deadline)
		s.emitter.EmitInfo("Waiting for jobs to appear in queue...")

		if err := s.clock.Sleep(ctx, s.cfg.ConfirmInterval); err != nil {
			return nil, s.fail(run, PhaseAwait, StateFailed, errors.Wrap(err, "interrupted while waiting for jobs"))
		}
	}
}

// Monitor polls the live queue until no job for the run is pending or
// running. If jobs remain once timeout has elapsed since monitoring began the
// run is timed out; monitoring never ends successfully while jobs remain.
func (s *Supervisor) Monitor(ctx context.Context, run RunContext, timeout time.Duration) error {
	s.transition(StateMonitoring, run)
	log := s.phaseLogger(run, PhaseMonitor)
	s.emitter.EmitStage(PhaseMonitor, "Monitoring pipeline jobs")

	began := s.clock.Now()
	for poll := 1; ; poll++ {
		records, err := s.client.QueryLiveQueue(ctx, run.OwningUser, run.RunID)
		if err != nil {
			return s.fail(run, PhaseMonitor, StateFailed, err)
		}

		if len(records) == 0 {
			log.Infow("No running or pending jobs", logger.FieldPoll, poll)
			s.emitter.EmitInfo("No running/pending jobs - Pipeline complete!")
			s.transition(StateChecking, run)
			return nil
		}

		s.emitter.EmitProgress(len(records), map[string]interface{}{
			"phase":   PhaseMonitor,
			"poll":    poll,
			"message": fmt.Sprintf("There are %d jobs still pending/running...", len(records)),
		})

		elapsed := s.clock.Now().Sub(began)
		log.Debugw("Jobs still active",
			logger.FieldCount, len(records),
			logger.FieldPoll, poll,
			logger.FieldElapsed, elapsed)
		if elapsed >= timeout {
			return s.fail(run, PhaseMonitor, StateTimedOut, &MonitorTimeoutError{
				RunID:     run.RunID,
				Timeout:   timeout,
				Remaining: records,
			})
		}

		if err := s.clock.Sleep(ctx, s.cfg.MonitorInterval); err != nil {
			return s.fail(run, PhaseMonitor, StateFailed, errors.Wrap(err, "interrupted while monitoring"))
		}
	}
}

// Check reads accounting for the run, keeps the latest record per job name
// and fails the run if any of them did not finish COMPLETED.
func (s *Supervisor) Check(ctx context.Context, run RunContext) (*CheckResult, error) {
	s.transition(StateChecking, run)
	log := s.phaseLogger(run, PhaseCheck)
	s.emitter.EmitStage(PhaseCheck, "Checking job outcomes")

	records, err := s.client.QueryHistory(ctx, slurm.HistoryQuery{
		Start:       run.StartTime,
		RunIDPrefix: run.RunID,
	})
	if err != nil {
		return nil, s.fail(run, PhaseCheck, StateFailed, err)
	}

	latest := slurm.DedupeToLatest(records)
	result := &CheckResult{
		Jobs:           slurm.SortedRecords(latest),
		Classification: slurm.Classify(latest),
	}

	if tracker, ok := s.emitter.(pulse.TaskTracker); ok {
		for _, r := range result.Jobs {
			tracker.AddTask(r.Name, r.Name)
			tracker.UpdateTaskStatus(r.Name, result.Classification.Succeeded.Has(r.Name), r.DisplayState())
		}
	}

	if len(latest) == 0 {
		log.Warnw("Accounting returned no jobs for run", logger.FieldStartTime, run.StartTime)
		s.emitter.EmitInfo(fmt.Sprintf("No accounting records found for run %s", run.RunID))
	}

	if failed := failedJobs(result); len(failed) > 0 {
		return result, s.fail(run, PhaseCheck, StateFailed, &PipelineFailure{RunID: run.RunID, Failed: failed})
	}

	log.Infow("All jobs successful", logger.FieldCount, len(latest))
	s.transition(StateSucceeded, run)
	s.emitter.EmitComplete(map[string]interface{}{
		"run_id":    run.RunID,
		"succeeded": len(result.Classification.Succeeded),
		"message":   "All jobs successful!",
	})
	return result, nil
}

func failedJobs(r *CheckResult) []FailedJob {
	var failed []FailedJob
	for _, rec := range r.Jobs {
		if r.Classification.Failed.Has(rec.Name) {
			failed = append(failed, FailedJob{Name: rec.Name, JobID: rec.JobID, State: rec.DisplayState()})
		}
	}
	return failed
}

// Run executes Launch, AwaitQueueAppearance, Monitor and Check in order,
// stopping at the first failure. The Result is always returned; its State is
// terminal.
func (s *Supervisor) Run(ctx context.Context, spec LaunchSpec, owningUser string) (*Result, error) {
	res := &Result{RunID: spec.RunID, OwningUser: owningUser}
	finish := func(err error) (*Result, error) {
		res.State = s.state
		res.EndTime = s.clock.Now()
		if err != nil {
			res.Error = err.Error()
			if !s.state.Terminal() {
				s.state = StateFailed
				res.State = StateFailed
			}
		}
		return res, err
	}

	run, err := s.Launch(ctx, spec, owningUser)
	res.StartTime = run.StartTime
	if err != nil {
		return finish(err)
	}

	if _, err := s.AwaitQueueAppearance(ctx, run, s.cfg.ConfirmDeadline); err != nil {
		return finish(err)
	}

	if err := s.Monitor(ctx, run, s.cfg.MonitorTimeout); err != nil {
		return finish(err)
	}

	check, err := s.Check(ctx, run)
	if check != nil {
		res.Jobs = check.Jobs
		res.Failed = failedJobs(check)
	}
	return finish(err)
}
