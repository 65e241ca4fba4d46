package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/pulse/supervisor"
	"github.com/teranos/qsup/slurm"
)

func TestParseTime(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 30, 0, 0, time.Local)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", "2024-03-01T12:00:00Z", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), false},
		{"sacct layout", "2024-03-01T12:00:05", time.Date(2024, 3, 1, 12, 0, 5, 0, time.Local), false},
		{"minutes", "2024-03-01T12:00", time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local), false},
		{"space separated", "2024-03-01 08:15", time.Date(2024, 3, 1, 8, 15, 0, 0, time.Local), false},
		{"date only", "2024-02-28", time.Date(2024, 2, 28, 0, 0, 0, 0, time.Local), false},
		{"clock time today", "09:45", time.Date(2024, 3, 1, 9, 45, 0, 0, time.Local), false},
		{"duration back", "2h", now.Add(-2 * time.Hour), false},
		{"surrounding space", " 90m ", now.Add(-90 * time.Minute), false},
		{"negative duration", "-2h", time.Time{}, true},
		{"empty", "", time.Time{}, true},
		{"garbage", "yesterday-ish", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.input, now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseTimeHint(t *testing.T) {
	_, err := parseTime("soon", time.Now())
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestMidnight(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 59, 59, 0, time.Local)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), midnight(now))
}

func TestParseStates(t *testing.T) {
	states, err := parseStates("failed, TIMEOUT,,cancelled")
	require.NoError(t, err)
	assert.Equal(t, []slurm.TerminalState{slurm.TerminalFailed, slurm.TerminalTimeout, slurm.TerminalCancelled}, states)

	states, err = parseStates("")
	require.NoError(t, err)
	assert.Nil(t, states)

	states, err = parseStates("OTHER")
	require.NoError(t, err)
	assert.Equal(t, []slurm.TerminalState{slurm.TerminalOther}, states)

	_, err = parseStates("FAILED,EXPLODED")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPLODED")
}

func TestHistoryQuery(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 30, 0, 0, time.Local)

	q, err := historyQuery("202403011200", "", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, "202403011200", q.RunIDPrefix)
	assert.Equal(t, midnight(now), q.Start)
	assert.True(t, q.End.IsZero())
	assert.Nil(t, q.States)

	q, err = historyQuery("run", "3h", "1h", "FAILED", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-3*time.Hour), q.Start)
	assert.Equal(t, now.Add(-time.Hour), q.End)
	assert.Equal(t, []slurm.TerminalState{slurm.TerminalFailed}, q.States)

	_, err = historyQuery("run", "1h", "3h", "", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before")

	_, err = historyQuery("run", "nonsense", "", "", now)
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", errors.New("boom"), ExitError},
		{"scheduler query", &slurm.QueryError{Tool: "squeue", ExitCode: 1}, ExitError},
		{"pipeline failure", &supervisor.PipelineFailure{RunID: "r"}, ExitPipelineFailure},
		{"wrapped pipeline failure", errors.Wrap(&supervisor.PipelineFailure{RunID: "r"}, "check"), ExitPipelineFailure},
		{"monitor timeout", &supervisor.MonitorTimeoutError{RunID: "r", Timeout: time.Minute}, ExitTimeout},
		{"launch", &supervisor.LaunchError{Command: "./execute", ExitCode: 3}, ExitLaunchFailure},
		{"launch not confirmed", &supervisor.LaunchNotConfirmedError{RunID: "r"}, ExitLaunchFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestAnnotate(t *testing.T) {
	assert.NoError(t, Annotate(nil, "r"))

	err := Annotate(&supervisor.MonitorTimeoutError{RunID: "r1", Timeout: time.Minute}, "r1")
	hints := errors.GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "qsup queue r1")
	assert.Equal(t, ExitTimeout, ExitCode(err))

	err = Annotate(&supervisor.LaunchNotConfirmedError{RunID: ""}, "")
	assert.Contains(t, errors.GetAllHints(err)[0], "RUN_ID*")

	plain := errors.New("plain")
	assert.Same(t, plain, Annotate(plain, "r"))
}

func TestBuildLaunchSpec(t *testing.T) {
	restore := func(exe, acct, part, dir, id string) {
		runExecutable, runAccount, runPartition, runWorkDir, runIDFlag = exe, acct, part, dir, id
	}
	t.Cleanup(func() { restore("", "", "", "", "") })

	now := time.Date(2024, 3, 1, 12, 5, 0, 0, time.Local)
	dir := t.TempDir()

	t.Run("config values", func(t *testing.T) {
		restore("./execute", "", "", dir, "")
		spec, err := buildLaunchSpec("proj", "batch", "--resume --tag 'a b'", false, now)
		require.NoError(t, err)
		assert.Equal(t, "proj", spec.Account)
		assert.Equal(t, "batch", spec.Partition)
		assert.Equal(t, dir, spec.WorkDir)
		assert.Equal(t, "202403011205", spec.RunID)
		assert.Equal(t, []string{"--resume", "--tag", "a b"}, spec.ExtraArgs)
	})

	t.Run("flags override config", func(t *testing.T) {
		restore("./execute", "other", "debug", dir, "nightly")
		spec, err := buildLaunchSpec("proj", "batch", "", false, now)
		require.NoError(t, err)
		assert.Equal(t, "other", spec.Account)
		assert.Equal(t, "debug", spec.Partition)
		assert.Equal(t, "nightly", spec.RunID)
	})

	t.Run("missing account", func(t *testing.T) {
		restore("./execute", "", "", dir, "")
		_, err := buildLaunchSpec("", "batch", "", false, now)
		require.Error(t, err)
		assert.NotEmpty(t, errors.GetAllHints(err))
	})

	t.Run("bad extra args", func(t *testing.T) {
		restore("./execute", "", "", dir, "")
		_, err := buildLaunchSpec("proj", "batch", "'unterminated", false, now)
		require.Error(t, err)
	})
}

func TestRunDoctorChecks(t *testing.T) {
	var buf bytes.Buffer
	failed := runDoctorChecks(context.Background(), &buf, []doctorCheck{
		{"ok", func(context.Context) (string, error) { return "fine", nil }},
		{"broken", func(context.Context) (string, error) {
			return "", errors.WithHint(errors.New("nope"), "try again")
		}},
	})

	assert.Equal(t, 1, failed)
	out := buf.String()
	assert.Contains(t, out, "[1/2] ✓ ok: fine")
	assert.Contains(t, out, "[2/2] ✗ broken: nope")
	assert.Contains(t, out, "hint: try again")
}
