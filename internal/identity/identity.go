// Package identity resolves the user whose scheduler jobs a run owns.
package identity

import (
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/teranos/qsup/errors"
)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// ProcessOwner returns the owner of the current process.
type ProcessOwner func() (string, error)

// Resolver finds the acting user from the environment, falling back to the
// owner of the current process when neither USER nor LOGNAME is set (cron,
// some container runtimes).
type Resolver struct {
	Env   LookupEnv
	Owner ProcessOwner
}

// NewResolver returns a Resolver backed by the real environment and process
// table.
func NewResolver() *Resolver {
	return &Resolver{Env: os.LookupEnv, Owner: currentProcessOwner}
}

// Resolve returns the acting user name.
func (r *Resolver) Resolve() (string, error) {
	for _, key := range []string{"USER", "LOGNAME"} {
		if v, ok := r.Env(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}

	if r.Owner == nil {
		return "", errors.New("cannot determine user: USER and LOGNAME are unset")
	}
	name, err := r.Owner()
	if err != nil {
		return "", errors.WithHint(
			errors.Wrap(err, "cannot determine user: USER and LOGNAME are unset"),
			"pass --user or export USER",
		)
	}
	if name == "" {
		return "", errors.WithHint(
			errors.New("cannot determine user: process owner is empty"),
			"pass --user or export USER",
		)
	}
	return name, nil
}

// CurrentUser resolves the acting user for this process.
func CurrentUser() (string, error) {
	return NewResolver().Resolve()
}

func currentProcessOwner() (string, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return "", errors.Wrap(err, "failed to inspect current process")
	}
	name, err := p.Username()
	if err != nil {
		return "", errors.Wrap(err, "failed to look up process owner")
	}
	return name, nil
}
