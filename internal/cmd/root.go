package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/3leaps/gofetch/internal/cliutil"
	"github.com/3leaps/gofetch/internal/observability"
)

// AppIdentity carries build-time identity set via SetVersionInfo, exposed
// to commands (e.g. doctor's banner) via GetAppIdentity.
type AppIdentity struct {
	BinaryName string
	Version    string
	Commit     string
	BuildDate  string
}

var versionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var appIdentity *AppIdentity

// global CLI flags, bound in init() and consumed by PersistentPreRunE.
var (
	flagDebug bool
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:   "gofetch",
	Short: "Concurrent downloader for S3-compatible object storage",
	Long: `gofetch lists objects under an S3 prefix, filters them by a regular
expression, and downloads the matches concurrently into a local directory
tree that mirrors the key layout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagQuiet {
			observability.InitQuiet("gofetch")
		} else {
			observability.InitCLILogger("gofetch", flagDebug)
		}
		appIdentity = &AppIdentity{
			BinaryName: "gofetch",
			Version:    versionInfo.Version,
			Commit:     versionInfo.Commit,
			BuildDate:  versionInfo.BuildDate,
		}
		return nil
	},
}

func init() {
	setDefaults()
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all but error-level logging")
	rootCmd.Version = "dev"
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitError(cliutil.ExitUsage, "Invalid flags", err)
	})
}

// setDefaults seeds the global viper instance with gofetch's built-in
// defaults. internal/config.Load uses its own viper instance for the
// programmatic API; the command flags declare their own literal defaults
// and the command bodies do not read this global instance.
func setDefaults() {
	viper.SetDefault("download_dir", ".")
	viper.SetDefault("delimiter", "/")
	viper.SetDefault("region", "us-east-1")
	viper.SetDefault("threads", 4)
	viper.SetDefault("rate_limit", float64(0))
	viper.SetDefault("log_level", "info")
}

// SetVersionInfo records build-time version metadata, called from
// cmd/gofetch/main.go with values supplied via -ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
	rootCmd.Version = version
}

// GetAppIdentity returns the identity recorded by the last PersistentPreRunE,
// or nil before any command has run (e.g. in unit tests).
func GetAppIdentity() *AppIdentity {
	return appIdentity
}

// exitCodeError carries an explicit process exit code alongside a wrapped
// error, so Execute can translate it into os.Exit without every command
// needing to call os.Exit itself (which would bypass deferred cleanup).
type exitCodeError struct {
	code int
	msg  string
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *exitCodeError) Unwrap() error { return e.err }

// exitError builds an error carrying an explicit exit code for a cobra
// RunE to return.
func exitError(code int, msg string, err error) error {
	return &exitCodeError{code: code, msg: msg, err: err}
}

// ExitWithCode logs msg/err and terminates the process with code, for a
// command whose Run (not RunE) signature can't propagate an error back to
// Execute.
func ExitWithCode(logger *zap.Logger, code int, msg string, err error) {
	if err != nil {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Error(msg)
	}
	os.Exit(code)
}

// Execute runs the root command, translating any exitCodeError into the
// appropriate process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var ec *exitCodeError
		if as, ok := err.(*exitCodeError); ok {
			ec = as
		}
		if ec != nil {
			observability.CLILogger.Error(ec.msg, zap.Error(ec.err))
			return ec.code
		}
		observability.CLILogger.Error(err.Error())
		return 1
	}
	return 0
}
