package supervisor

import (
	"context"
	"os"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/internal/runner"
	"github.com/teranos/qsup/logger"
)

// LaunchSpec describes one pipeline submission.
type LaunchSpec struct {
	Executable string
	Account    string
	Partition  string
	WorkDir    string
	RunID      string
	ExtraArgs  []string // appended after the standard flags
}

// Validate checks the fields the launcher contract requires.
func (s LaunchSpec) Validate() error {
	switch {
	case s.Executable == "":
		return errors.New("launch executable is required")
	case s.Account == "":
		return errors.WithHint(errors.New("launch account is required"),
			"pass --account or set launcher.account in am.toml")
	case s.Partition == "":
		return errors.WithHint(errors.New("launch partition is required"),
			"pass --partition or set launcher.partition in am.toml")
	case s.WorkDir == "":
		return errors.New("launch work dir is required")
	case s.RunID == "":
		return errors.New("run id is required")
	}
	return nil
}

// LaunchCommand builds the launcher invocation:
//
//	<executable> --account A --partition P --work_dir D --run_id R [extra...]
func LaunchCommand(spec LaunchSpec) runner.Command {
	args := []string{
		"--account", spec.Account,
		"--partition", spec.Partition,
		"--work_dir", spec.WorkDir,
		"--run_id", spec.RunID,
	}
	args = append(args, spec.ExtraArgs...)
	return runner.Command{Name: spec.Executable, Args: args}
}

// ParseExtraArgs splits a shell-quoted launcher.extra_args value.
func ParseExtraArgs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	args, err := shellquote.Split(s)
	if err != nil {
		return nil, errors.NewInvalidConfigError("launcher.extra_args: %v", err)
	}
	return args, nil
}

// Launcher submits the pipeline's jobs. A nil error means the launcher
// accepted the request; it says nothing about whether jobs were queued.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) error
}

// ExecLauncher runs the pipeline's execute script as a subprocess.
type ExecLauncher struct {
	runner runner.Runner
	logger *zap.SugaredLogger
}

// NewExecLauncher creates a launcher that runs commands through r.
func NewExecLauncher(r runner.Runner) *ExecLauncher {
	return &ExecLauncher{
		runner: r,
		logger: logger.ComponentLogger("launcher"),
	}
}

// Launch runs the launcher and maps a non-zero exit to a LaunchError.
func (l *ExecLauncher) Launch(ctx context.Context, spec LaunchSpec) error {
	cmd := LaunchCommand(spec)

	res, err := l.runner.Run(ctx, cmd)
	if err != nil {
		return &LaunchError{Command: cmd.String(), Err: err}
	}

	if logger.ShouldOutput(logger.Verbosity, logger.OutputLauncherLogs) {
		l.logger.Debugw("Launcher output",
			logger.FieldRunID, spec.RunID,
			"stdout", string(res.Stdout),
			logger.FieldStderr, string(res.Stderr))
	}

	if !res.Success() {
		return &LaunchError{
			Command:  cmd.String(),
			ExitCode: res.ExitCode,
			Stderr:   string(res.Stderr),
		}
	}

	l.logger.Infow("Launcher accepted run",
		logger.FieldRunID, spec.RunID,
		logger.FieldDurationMS, res.Duration.Milliseconds())
	return nil
}

// ensureWorkDir creates dir if it does not exist.
func ensureWorkDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create work dir %s", dir)
	}
	return nil
}
