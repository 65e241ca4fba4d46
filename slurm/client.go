package slurm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/qsup/am"
	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/internal/runner"
	"github.com/teranos/qsup/logger"
)

// historyTimeLayout is the wall-clock layout sacct accepts for -S and -E.
const historyTimeLayout = "2006-01-02T15:04:05"

// QueryClient is the read-only view of the scheduler used by the supervisor.
type QueryClient interface {
	// QueryLiveQueue returns the owning user's pending or running jobs whose
	// name starts with runIDPrefix (all of them when the prefix is empty).
	QueryLiveQueue(ctx context.Context, owningUser, runIDPrefix string) ([]JobRecord, error)

	// QueryHistory returns accounting records for jobs active in the window.
	QueryHistory(ctx context.Context, q HistoryQuery) ([]JobRecord, error)
}

// HistoryQuery selects accounting records.
type HistoryQuery struct {
	Start       time.Time
	End         time.Time       // zero means now
	RunIDPrefix string          // empty keeps every name
	States      []TerminalState // empty keeps every state
}

// Options configures a CLIClient.
type Options struct {
	SqueuePath        string
	SacctPath         string
	CommandPrefix     []string // prepended to every invocation, e.g. ["ssh", "login01"]
	SqueueExtraArgs   []string
	SacctExtraArgs    []string
	NativeStateFilter bool

	// QueriesPerMinute caps scheduler invocations; 0 disables the limit.
	QueriesPerMinute int
	Burst            int
}

// DefaultOptions returns options that call squeue and sacct from PATH.
func DefaultOptions() Options {
	return Options{
		SqueuePath:       "squeue",
		SacctPath:        "sacct",
		QueriesPerMinute: 30,
		Burst:            2,
	}
}

// OptionsFromConfig converts the [scheduler] config section, splitting the
// shell-quoted prefix and argument strings.
func OptionsFromConfig(cfg am.SchedulerConfig) (Options, error) {
	opts := DefaultOptions()
	if cfg.SqueuePath != "" {
		opts.SqueuePath = cfg.SqueuePath
	}
	if cfg.SacctPath != "" {
		opts.SacctPath = cfg.SacctPath
	}
	opts.NativeStateFilter = cfg.NativeStateFilter
	opts.QueriesPerMinute = cfg.MaxQueriesPerMinute
	opts.Burst = cfg.QueryBurst

	var err error
	if opts.CommandPrefix, err = splitArgs("scheduler.command_prefix", cfg.CommandPrefix); err != nil {
		return Options{}, err
	}
	if opts.SqueueExtraArgs, err = splitArgs("scheduler.squeue_extra_args", cfg.SqueueExtraArgs); err != nil {
		return Options{}, err
	}
	if opts.SacctExtraArgs, err = splitArgs("scheduler.sacct_extra_args", cfg.SacctExtraArgs); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func splitArgs(key, value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	args, err := shellquote.Split(value)
	if err != nil {
		return nil, errors.NewInvalidConfigError("%s: %v", key, err)
	}
	return args, nil
}

// CLIClient queries Slurm by running squeue and sacct with --json.
type CLIClient struct {
	runner  runner.Runner
	opts    Options
	limiter *rate.Limiter
	now     func() time.Time
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	release string
}

// NewCLIClient creates a client that runs scheduler tools through r.
func NewCLIClient(r runner.Runner, opts Options) *CLIClient {
	c := &CLIClient{
		runner: r,
		opts:   opts,
		now:    time.Now,
		logger: logger.WithQuerySymbol(logger.ComponentLogger("slurm")),
	}
	if opts.QueriesPerMinute > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(opts.QueriesPerMinute)/60.0), burst)
	}
	return c
}

// Release returns the scheduler release reported by the most recent query,
// or "" when none has been seen.
func (c *CLIClient) Release() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release
}

// QueryLiveQueue runs squeue for owningUser.
//
// squeue keeps listing jobs for a while after they finish, and --states is
// not honored together with --json on every release, so the live-state
// filter is always applied here regardless of how the query was scoped.
func (c *CLIClient) QueryLiveQueue(ctx context.Context, owningUser, runIDPrefix string) ([]JobRecord, error) {
	if owningUser == "" {
		return nil, errors.New("owning user is required for a live queue query")
	}

	args := []string{"-u", owningUser, "--json"}
	if c.opts.NativeStateFilter {
		args = append(args, "--states=PENDING,RUNNING")
	}
	args = append(args, c.opts.SqueueExtraArgs...)

	out, err := c.run(ctx, "squeue", c.opts.SqueuePath, args)
	if err != nil {
		return nil, err
	}

	records, rel, err := decodeQueue(out.Stdout)
	if err != nil {
		return nil, c.decodeError("squeue", c.opts.SqueuePath, args, out.Stdout, err)
	}
	c.setRelease(rel)

	records = filterByPrefix(records, runIDPrefix)
	live := records[:0:0]
	for _, r := range records {
		if r.LiveState.Active() {
			live = append(live, r)
		}
	}

	c.logger.Debugw("Live queue query complete",
		logger.FieldUser, owningUser,
		logger.FieldRunID, runIDPrefix,
		logger.FieldCount, len(live),
		logger.FieldTotalCount, len(records))
	return live, nil
}

// QueryHistory runs sacct over the query window.
func (c *CLIClient) QueryHistory(ctx context.Context, q HistoryQuery) ([]JobRecord, error) {
	if q.Start.IsZero() {
		return nil, errors.New("history query requires a start time")
	}
	end := q.End
	if end.IsZero() {
		end = c.now()
	}

	args := []string{
		"-S", q.Start.Local().Format(historyTimeLayout),
		"-E", end.Local().Format(historyTimeLayout),
		"-X", "--json",
	}
	if c.opts.NativeStateFilter && len(q.States) > 0 {
		names := make([]string, len(q.States))
		for i, s := range q.States {
			names[i] = string(s)
		}
		args = append(args, "--state="+strings.Join(names, ","))
	}
	args = append(args, c.opts.SacctExtraArgs...)

	out, err := c.run(ctx, "sacct", c.opts.SacctPath, args)
	if err != nil {
		return nil, err
	}

	records, rel, err := decodeHistory(out.Stdout)
	if err != nil {
		return nil, c.decodeError("sacct", c.opts.SacctPath, args, out.Stdout, err)
	}
	c.setRelease(rel)

	total := len(records)
	records = filterByPrefix(records, q.RunIDPrefix)
	records = filterByTerminalState(records, q.States)

	c.logger.Debugw("History query complete",
		logger.FieldRunID, q.RunIDPrefix,
		logger.FieldStartTime, q.Start,
		logger.FieldEndTime, end,
		logger.FieldCount, len(records),
		logger.FieldTotalCount, total)
	return records, nil
}

// run invokes one scheduler tool and enforces the exit-status contract.
func (c *CLIClient) run(ctx context.Context, tool, path string, args []string) (*runner.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrapf(err, "waiting to query %s", tool)
		}
	}

	cmd := c.command(path, args)
	c.logger.Debugw("Running scheduler query", logger.FieldCommand, cmd.String())

	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return nil, &QueryError{Tool: tool, Command: cmd.String(), Err: err}
	}

	c.logger.Debugw("Scheduler query finished",
		logger.FieldCommand, tool,
		logger.FieldExitCode, res.ExitCode,
		logger.FieldDurationMS, res.Duration.Milliseconds())
	if logger.ShouldOutput(logger.Verbosity, logger.OutputResponseBody) {
		c.logger.Debugw("Scheduler response", logger.FieldCommand, tool, "stdout", string(res.Stdout))
	}

	if !res.Success() {
		return nil, &QueryError{
			Tool:     tool,
			Command:  cmd.String(),
			ExitCode: res.ExitCode,
			Stderr:   string(res.Stderr),
		}
	}
	return res, nil
}

func (c *CLIClient) command(path string, args []string) runner.Command {
	if len(c.opts.CommandPrefix) == 0 {
		return runner.Command{Name: path, Args: args}
	}
	full := make([]string, 0, len(c.opts.CommandPrefix)+1+len(args))
	full = append(full, c.opts.CommandPrefix[1:]...)
	full = append(full, path)
	full = append(full, args...)
	return runner.Command{Name: c.opts.CommandPrefix[0], Args: full}
}

func (c *CLIClient) decodeError(tool, path string, args []string, stdout []byte, err error) error {
	return &QueryError{
		Tool:    tool,
		Command: c.command(path, args).String(),
		Err:     errors.WithDetail(err, snippet(stdout)),
	}
}

func (c *CLIClient) setRelease(rel string) {
	if rel == "" {
		return
	}
	c.mu.Lock()
	c.release = rel
	c.mu.Unlock()
}

// filterByTerminalState keeps records whose terminal state is listed.
// An empty list keeps everything.
func filterByTerminalState(records []JobRecord, states []TerminalState) []JobRecord {
	if len(states) == 0 {
		return records
	}
	want := make(map[TerminalState]struct{}, len(states))
	for _, s := range states {
		want[s] = struct{}{}
	}
	out := records[:0:0]
	for _, r := range records {
		if _, ok := want[r.TerminalState]; ok {
			out = append(out, r)
		}
	}
	return out
}
