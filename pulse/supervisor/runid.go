package supervisor

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunIDLayout is the local-time layout of generated run ids.
const RunIDLayout = "200601021504"

// NewRunID returns a run id for now, e.g. "202403011030". With suffix set a
// short random tag is appended ("202403011030-1a2b3c4d") so two runs started
// in the same minute do not share a job-name prefix.
func NewRunID(now time.Time, suffix bool) string {
	id := now.Local().Format(RunIDLayout)
	if !suffix {
		return id
	}
	tag := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return id + "-" + tag
}
