// Package observability wires structured logging for the CLI layer.
package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the package-level logger used throughout internal/cmd. It is
// a no-op logger until InitCLILogger is called, so packages that import
// observability in tests never see a nil pointer.
var CLILogger *zap.Logger = zap.NewNop()

// InitCLILogger builds and installs CLILogger for the named binary.
//
// debug raises the level to Debug; otherwise Info. The encoder is a
// human-readable console encoder to stderr, matching the teacher's
// terminal-first CLI output style rather than a service's JSON logs.
func InitCLILogger(name string, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)

	logger := zap.New(core).Named(name)
	CLILogger = logger
	return logger
}

// InitQuiet installs a logger that only emits Error-level and above,
// matching the CLI's --quiet flag.
func InitQuiet(name string) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		zapcore.ErrorLevel,
	)
	logger := zap.New(core).Named(name)
	CLILogger = logger
	return logger
}
