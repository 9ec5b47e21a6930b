package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrides(t *testing.T) {
	overrides, err := ParseOverrides([]string{"threads=16", "region=us-west-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"threads": "16", "region": "us-west-2"}, overrides)
}

func TestParseOverrides_MissingEquals(t *testing.T) {
	_, err := ParseOverrides([]string{"threads"})
	require.Error(t, err)
}

func TestApplyOverrides_CoercesTypes(t *testing.T) {
	job := Job{URI: "s3://bucket/prefix", Threads: 1}
	overrides, err := ParseOverrides([]string{"threads=16", "region=us-west-2"})
	require.NoError(t, err)

	require.NoError(t, ApplyOverrides(&job, overrides))
	assert.Equal(t, 16, job.Threads)
	assert.Equal(t, "us-west-2", job.Region)
	assert.Equal(t, "s3://bucket/prefix", job.URI)
}

func TestApplyOverrides_NoOverridesIsNoOp(t *testing.T) {
	job := Job{URI: "s3://bucket/prefix", Threads: 4}
	require.NoError(t, ApplyOverrides(&job, nil))
	assert.Equal(t, 4, job.Threads)
}
