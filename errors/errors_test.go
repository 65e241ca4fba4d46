package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := New("error")
	withHint := WithHint(err, "check the launcher logs")

	hints := GetAllHints(withHint)
	require.Len(t, hints, 1)
	assert.Equal(t, "check the launcher logs", hints[0])
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.False(t, IsSchedulerQueryError(nil))
	assert.False(t, IsPipelineFailure(nil))
}

// taxonomyError mimics the typed errors in slurm and supervisor.
type taxonomyError struct {
	sentinel error
}

func (e *taxonomyError) Error() string        { return "typed: " + e.sentinel.Error() }
func (e *taxonomyError) Is(target error) bool { return target == e.sentinel }

func TestTaxonomyHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"scheduler query", Wrap(ErrSchedulerQuery, "squeue"), IsSchedulerQueryError},
		{"launch", Wrap(ErrLaunch, "exit 1"), IsLaunchError},
		{"launch not confirmed", &taxonomyError{ErrLaunchNotConfirmed}, IsLaunchNotConfirmedError},
		{"monitor timeout", Wrap(&taxonomyError{ErrMonitorTimeout}, "monitor"), IsMonitorTimeoutError},
		{"pipeline failure", WithHint(&taxonomyError{ErrPipelineFailure}, "look at logs"), IsPipelineFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(New("unrelated")))
		})
	}
}

func TestTaxonomyIsDistinct(t *testing.T) {
	err := Wrap(ErrLaunch, "launcher exited 2")
	assert.False(t, IsLaunchNotConfirmedError(err))
	assert.False(t, IsMonitorTimeoutError(err))
}

func TestNewInvalidConfigError(t *testing.T) {
	err := NewInvalidConfigError("supervisor.monitor_interval must be > 0, got %s", "0s")
	assert.True(t, Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "monitor_interval")
}

func ExampleWithHint() {
	err := New("launch not confirmed")
	err = WithHint(err, "inspect the pipeline's own log in the working directory")

	hints := GetAllHints(err)
	fmt.Println(hints[0])
	// Output: inspect the pipeline's own log in the working directory
}
