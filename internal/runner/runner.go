// Package runner executes external commands and captures their output.
//
// Scheduler tools and the pipeline launcher are both reached through a
// Runner so that tests can substitute canned results and never spawn a
// real process.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/qsup/errors"
)

// Command describes one external invocation. Args are passed to the process
// directly; no shell is involved.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory; empty inherits the caller's
	Env  []string // extra KEY=VALUE entries appended to the inherited environment
}

// String renders the command as a shell-quoted line for logs and echo output.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner runs external commands.
//
// A non-zero exit status is not an error: it is reported through
// Result.ExitCode so callers can apply their own failure contract. An error
// is returned only when the process could not be started or was killed
// because ctx ended.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, errors.New("command name is required")
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(ctxErr, "%s interrupted", cmd.Name)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, errors.Wrapf(err, "failed to start %s", cmd.Name)
	}

	return res, nil
}
