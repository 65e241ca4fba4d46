package display

import (
	"os"
	"path/filepath"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/pulse/supervisor"
	"github.com/teranos/qsup/version"
)

// Report is the document written by `qsup run --report`.
type Report struct {
	Tool   string             `json:"tool" yaml:"tool" toml:"tool"`
	Result *supervisor.Result `json:"result" yaml:"result" toml:"result"`
}

// WriteReport writes the run result to path, choosing the encoding from the
// file extension. Parent directories are created as needed.
func WriteReport(path string, res *supervisor.Result) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Marshal(format, Report{Tool: version.Get().ReportTag(), Result: res})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create report directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write report %s", path)
	}
	return nil
}
