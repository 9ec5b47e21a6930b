package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitCLILogger_SetsPackageLogger(t *testing.T) {
	logger := InitCLILogger("gofetch", false)
	assert.NotNil(t, logger)
	assert.Same(t, logger, CLILogger)
}

func TestInitCLILogger_DebugEnablesDebugLevel(t *testing.T) {
	logger := InitCLILogger("gofetch", true)
	assert.True(t, logger.Core().Enabled(-1)) // zapcore.DebugLevel == -1
}

func TestInitQuiet_SuppressesInfo(t *testing.T) {
	logger := InitQuiet("gofetch")
	assert.False(t, logger.Core().Enabled(0)) // zapcore.InfoLevel == 0
	assert.True(t, logger.Core().Enabled(2))  // zapcore.ErrorLevel == 2
}

func TestCLILogger_DefaultsToNonNil(t *testing.T) {
	assert.NotNil(t, CLILogger)
}
