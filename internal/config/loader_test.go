package config

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ".", cfg.DownloadDir)
	assert.Equal(t, "/", cfg.Delimiter)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Debug)
	assert.Greater(t, cfg.Threads, 0)
}

func TestLoad_RuntimeOverridesWinOverDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), map[string]any{
		"region":  "eu-west-1",
		"threads": 16,
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 16, cfg.Threads)
}

func TestLoad_EnvOverrides(t *testing.T) {
	require.NoError(t, os.Setenv("GOFETCH_REGION", "ap-southeast-2"))
	require.NoError(t, os.Setenv("GOFETCH_QUIET", "true"))
	defer func() {
		_ = os.Unsetenv("GOFETCH_REGION")
		_ = os.Unsetenv("GOFETCH_QUIET")
	}()

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.True(t, cfg.Quiet)
}

func TestLoad_RuntimeOverridePrecedesEnv(t *testing.T) {
	require.NoError(t, os.Setenv("GOFETCH_REGION", "us-west-2"))
	defer func() { _ = os.Unsetenv("GOFETCH_REGION") }()

	cfg, err := Load(context.Background(), map[string]any{"region": "sa-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "sa-east-1", cfg.Region)
}

func TestGetConfig_ReturnsLastLoaded(t *testing.T) {
	cfg, err := Load(context.Background(), map[string]any{"region": "us-east-2"})
	require.NoError(t, err)

	got := GetConfig()
	require.NotNil(t, got)
	assert.Equal(t, cfg.Region, got.Region)
}

func TestEnvSpecs_AllPrefixedAndNonEmpty(t *testing.T) {
	specs := envSpecs()
	require.NotEmpty(t, specs)
	for _, s := range specs {
		assert.Contains(t, s.Name, "GOFETCH_")
		assert.NotEmpty(t, s.Path)
	}
}

func TestDetectThreads_PositiveFallback(t *testing.T) {
	assert.Greater(t, detectThreads(), 0)
}
