package display

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/pulse"
	"github.com/teranos/qsup/pulse/supervisor"
	"github.com/teranos/qsup/slurm"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// Both emitters must satisfy the optional task tracker.
var (
	_ pulse.ProgressEmitter = (*CLIEmitter)(nil)
	_ pulse.TaskTracker     = (*CLIEmitter)(nil)
	_ pulse.ProgressEmitter = (*JSONEmitter)(nil)
	_ pulse.TaskTracker     = (*JSONEmitter)(nil)
)

func TestCLIEmitter_DefaultVerbosity(t *testing.T) {
	var buf bytes.Buffer
	e := NewCLIEmitter(&buf, 0)

	e.EmitStage("monitor", "Monitoring pipeline jobs")
	e.EmitInfo("Waiting for jobs to appear in queue...")
	e.EmitProgress(3, map[string]interface{}{"poll": 2, "message": "There are 3 jobs still pending/running..."})
	e.AddTask("run123-a", "run123-a")
	e.UpdateTaskStatus("run123-a", true, "COMPLETED")
	e.EmitComplete(map[string]interface{}{"message": "All jobs successful!", "succeeded": 1})

	out := buf.String()
	assert.NotContains(t, out, "Monitoring pipeline jobs", "stages need -v")
	assert.Contains(t, out, "Waiting for jobs to appear in queue...")
	assert.Contains(t, out, "There are 3 jobs still pending/running...")
	assert.NotContains(t, out, "(poll 2)")
	assert.NotContains(t, out, "run123-a :: COMPLETED")
	assert.Contains(t, out, "All jobs successful!")
	assert.NotContains(t, out, "succeeded: 1")
}

func TestCLIEmitter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	e := NewCLIEmitter(&buf, 1)

	e.EmitStage("check", "Checking job outcomes")
	e.EmitProgress(1, map[string]interface{}{"poll": 4, "message": "There are 1 jobs still pending/running..."})
	e.UpdateTaskStatus("run123-b", false, "TIMEOUT")
	e.EmitComplete(map[string]interface{}{"message": "done", "succeeded": 2})

	out := buf.String()
	assert.Contains(t, out, "check: Checking job outcomes")
	assert.Contains(t, out, "(poll 4)")
	assert.Contains(t, out, "run123-b :: TIMEOUT")
	assert.Contains(t, out, "succeeded: 2")
}

func TestCLIEmitter_EmitError(t *testing.T) {
	var buf bytes.Buffer
	e := NewCLIEmitter(&buf, 0)

	e.EmitError("check", &supervisor.PipelineFailure{
		RunID: "run123",
		Failed: []supervisor.FailedJob{
			{Name: "run123-step1", State: "FAILED"},
			{Name: "run123-step3", State: "OUT_OF_MEMORY"},
		},
	})
	e.EmitError("await", errors.New("no jobs"))

	out := buf.String()
	assert.Contains(t, out, "Job failure(s) found:")
	assert.Contains(t, out, "run123-step1 :: FAILED")
	assert.Contains(t, out, "run123-step3 :: OUT_OF_MEMORY")
	assert.Contains(t, out, "await phase failed")
}

func TestJSONEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := NewJSONEmitter(&buf)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	e.EmitStage("await", "Waiting for jobs to appear in queue...")
	e.EmitProgress(2, map[string]interface{}{"phase": "monitor", "poll": 3})
	e.UpdateTaskStatus("run123-step1", false, "FAILED")
	e.EmitError("check", errors.WithHint(
		&supervisor.PipelineFailure{RunID: "run123", Failed: []supervisor.FailedJob{{Name: "run123-step1", State: "FAILED"}}},
		"inspect the job logs",
	))
	e.EmitInfo("hello")
	e.EmitComplete(map[string]interface{}{"run_id": "run123"})

	var events []ProgressEvent
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var ev ProgressEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 6)

	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
		assert.True(t, fixed.Equal(ev.Timestamp))
	}
	assert.Equal(t, []string{"stage", "progress", "task", "error", "info", "complete"}, types)

	assert.Equal(t, float64(2), events[1].Data["count"])
	assert.Equal(t, "monitor", events[1].Data["phase"])
	assert.Equal(t, "FAILED", events[2].Data["state"])
	assert.Equal(t, false, events[2].Data["completed"])
	assert.Contains(t, events[3].Data["error"], "run123-step1 :: FAILED")
	assert.NotNil(t, events[3].Data["failed"])
	assert.Equal(t, []interface{}{"inspect the job logs"}, events[3].Data["hints"])
}

func TestMarshal(t *testing.T) {
	doc := map[string]interface{}{
		"scheduler": map[string]interface{}{"squeue_path": "squeue", "query_burst": 2},
	}

	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			data, err := Marshal(format, doc)
			require.NoError(t, err)
			assert.Contains(t, string(data), "squeue_path")
		})
	}

	_, err := Marshal("xml", doc)
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "toml, json, yaml")
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"report.json":    FormatJSON,
		"out/REPORT.YML": FormatYAML,
		"r.yaml":         FormatYAML,
		"r.toml":         FormatTOML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("report.txt")
	assert.Error(t, err)
}

func sampleResult() *supervisor.Result {
	start := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return &supervisor.Result{
		RunID:      "202403011030",
		OwningUser: "alice",
		State:      supervisor.StateFailed,
		StartTime:  start,
		EndTime:    start.Add(15 * time.Minute),
		Jobs: []slurm.JobRecord{
			{Name: "202403011030-a", JobID: 1, TerminalState: slurm.TerminalCompleted, RawState: "COMPLETED", EndTime: 1709289000},
			{Name: "202403011030-b", JobID: 2, TerminalState: slurm.TerminalFailed, RawState: "FAILED", EndTime: 1709289100},
		},
		Failed: []supervisor.FailedJob{{Name: "202403011030-b", JobID: 2, State: "FAILED"}},
		Error:  "run 202403011030 has 1 failed job(s): 202403011030-b :: FAILED",
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "reports", "run.json")
		require.NoError(t, WriteReport(path, res))

		var got Report
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, res.RunID, got.Result.RunID)
		assert.Equal(t, supervisor.StateFailed, got.Result.State)
		assert.Equal(t, res.Failed, got.Result.Failed)
		assert.True(t, strings.HasPrefix(got.Tool, "qsup/"))
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "run.yaml")
		require.NoError(t, WriteReport(path, res))

		var got map[string]interface{}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, yaml.Unmarshal(data, &got))
		result := got["result"].(map[string]interface{})
		assert.Equal(t, "failed", result["state"])
		assert.Len(t, result["jobs"], 2)
	})

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, "run.toml")
		require.NoError(t, WriteReport(path, res))

		var got map[string]interface{}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, toml.Unmarshal(data, &got))
		result := got["result"].(map[string]interface{})
		assert.Equal(t, "202403011030", result["run_id"])
	})

	t.Run("unknown extension", func(t *testing.T) {
		err := WriteReport(filepath.Join(dir, "run.txt"), res)
		require.Error(t, err)
	})
}

func TestJobTableData(t *testing.T) {
	records := []slurm.JobRecord{
		{Name: "run123-a", JobID: 11, LiveState: slurm.LiveRunning, RawState: "RUNNING"},
		{Name: "run123-b", LiveState: slurm.LivePending, RawState: "PENDING"},
	}
	data := JobTableData(records, false)
	require.Len(t, data, 3)
	assert.Equal(t, []string{"NAME", "JOB ID", "STATE"}, data[0])
	assert.Equal(t, []string{"run123-a", "11", "RUNNING"}, data[1])
	assert.Equal(t, "-", data[2][1])

	withEnd := JobTableData([]slurm.JobRecord{{Name: "x", RawState: "COMPLETED"}}, true)
	assert.Equal(t, []string{"x", "-", "COMPLETED", "-"}, withEnd[1])
}

func TestRenderJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJobs(&buf, nil, false))
	assert.Equal(t, "No matching jobs\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderJobs(&buf, []slurm.JobRecord{{Name: "run123-a", RawState: "RUNNING"}}, false))
	assert.Contains(t, buf.String(), "run123-a")
	assert.Contains(t, buf.String(), "RUNNING")
}

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "child", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)

	assert.False(t, ShouldOutputJSON(nil))
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))
}
