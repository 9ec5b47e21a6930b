package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatch_MissingManifestFile(t *testing.T) {
	batchJobFile = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { batchJobFile = "" }()

	err := runBatch(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid batch manifest")
}

func TestRunBatch_InvalidSetOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1"
jobs:
  - uri: s3://bucket/prefix
`), 0o644))

	batchJobFile = path
	batchSet = []string{"threads"} // missing "=value"
	defer func() {
		batchJobFile = ""
		batchSet = nil
	}()

	err := runBatch(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid --set override")
}

func TestRunBatch_InvalidManifestContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1"
jobs: []
`), 0o644))

	batchJobFile = path
	defer func() { batchJobFile = "" }()

	err := runBatch(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid batch manifest")
}
