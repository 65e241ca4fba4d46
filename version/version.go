// Package version exposes build metadata stamped into the qsup binary.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/teranos/qsup/version.Version=0.3.0 -X github.com/teranos/qsup/version.CommitHash=$(git rev-parse HEAD)"
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info contains version and build information
type Info struct {
	Version    string `json:"version" yaml:"version" toml:"version"`
	CommitHash string `json:"commit_hash" yaml:"commit_hash" toml:"commit_hash"`
	BuildTime  string `json:"build_time" yaml:"build_time" toml:"build_time"`
	GoVersion  string `json:"go_version" yaml:"go_version" toml:"go_version"`
	Platform   string `json:"platform" yaml:"platform" toml:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("qsup %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("qsup dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// ReportTag identifies the binary in run reports, e.g. "qsup/0.3.0+abc1234".
func (i Info) ReportTag() string {
	return fmt.Sprintf("qsup/%s+%s", i.Version, i.Short())
}
