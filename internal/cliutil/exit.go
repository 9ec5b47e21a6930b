// Package cliutil provides small CLI-layer helpers shared by internal/cmd:
// exit codes and a mapping from the engine's ErrorKind taxonomy to
// user-facing remediation text. gonimbus leans on an external
// fulmenhq/gofulmen exit-code helper that is not available to this module
// (see DESIGN.md); gofetch defines its own small set of exit codes instead.
package cliutil

import (
	"fmt"

	"github.com/3leaps/gofetch/pkg/download"
)

// Exit codes, per spec's CLI exit-code contract.
const (
	// ExitOK indicates every matched object downloaded successfully.
	ExitOK = 0

	// ExitFailure indicates at least one object failed (partial or total failure).
	ExitFailure = 1

	// ExitUsage indicates a usage error: bad flags, invalid URI, unreadable manifest.
	ExitUsage = 2
)

// Remediation returns a short, user-facing hint for an ErrorKind.
func Remediation(kind download.ErrorKind) string {
	switch kind {
	case download.ErrAuth:
		return "check AWS credentials (see `gofetch doctor`)"
	case download.ErrAccessDenied:
		return "the credentials in use lack permission for this bucket/key"
	case download.ErrNotFound:
		return "the object or bucket does not exist"
	case download.ErrThrottled:
		return "requests are being rate-limited; retry with --threads or --rate-limit lowered"
	case download.ErrNetwork:
		return "the storage endpoint was unreachable; check --endpoint/--region and connectivity"
	case download.ErrFilesystem:
		return "a local filesystem operation failed; check --download-dir permissions and free space"
	case download.ErrPathEscape:
		return "the object key would write outside --download-dir and was skipped"
	case download.ErrCancelled:
		return "the operation was cancelled before completion"
	default:
		return "an unexpected error occurred"
	}
}

// Explain formats an error kind and message into a single line suitable for
// CLI error output.
func Explain(kind download.ErrorKind, message string) string {
	return fmt.Sprintf("%s: %s (%s)", kind, message, Remediation(kind))
}
