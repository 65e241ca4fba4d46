package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelease(t *testing.T) {
	tests := []struct {
		release string
		want    string
		wantErr bool
	}{
		{"23.02.7", "23.2.7", false},
		{"21.08.5", "21.8.5", false},
		{"24.05", "24.5.0", false},
		{"22.05.11-1", "22.5.11", false},
		{"", "", true},
		{"twenty", "", true},
		{"1.2.3.4", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.release, func(t *testing.T) {
			v, err := ParseRelease(tt.release)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion("21.08.0"))
	assert.NoError(t, CheckVersion("23.11.4"))
	assert.NoError(t, CheckVersion("22.05.11-1"))

	err := CheckVersion("20.11.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support --json")

	assert.Error(t, CheckVersion("garbage"))
}
