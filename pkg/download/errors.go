package download

import (
	"context"
	"errors"

	"github.com/3leaps/gofetch/pkg/destpath"
	"github.com/3leaps/gofetch/pkg/provider"
)

// ErrorKind is the stable, user-facing fault taxonomy every error surfaced
// by the engine collapses into (spec.md §4.8 / §7).
type ErrorKind string

const (
	ErrAuth         ErrorKind = "Auth"
	ErrNotFound     ErrorKind = "NotFound"
	ErrAccessDenied ErrorKind = "AccessDenied"
	ErrThrottled    ErrorKind = "Throttled"
	ErrNetwork      ErrorKind = "Network"
	ErrFilesystem   ErrorKind = "Filesystem"
	ErrPathEscape   ErrorKind = "PathEscape"
	ErrCancelled    ErrorKind = "Cancelled"
	ErrUnknown      ErrorKind = "Unknown"
)

// classify maps a fault raised by a provider, the filesystem, or
// cancellation into the stable taxonomy above, following the same
// errors.Is/switch-dispatch shape as the teacher's classifyErrCode.
func classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCancelled
	case destpath.IsPathEscape(err):
		return ErrPathEscape
	case provider.IsNotFound(err):
		return ErrNotFound
	case provider.IsAccessDenied(err):
		return ErrAccessDenied
	case provider.IsInvalidCredentials(err):
		return ErrAuth
	case provider.IsThrottled(err):
		return ErrThrottled
	case provider.IsProviderUnavailable(err):
		return ErrNetwork
	case isFilesystemError(err):
		return ErrFilesystem
	default:
		return ErrUnknown
	}
}

// isFilesystemError reports whether err originates from a local filesystem
// operation (mkdir, rename, remove) rather than the remote provider.
// Filesystem implementations wrap their errors with errFilesystem via
// fmt.Errorf's multi-%w support so this check doesn't need to know the
// concrete os error type.
func isFilesystemError(err error) bool {
	return errors.Is(err, errFilesystem)
}

// errFilesystem is wrapped into errors returned by Filesystem
// implementations to mark them as filesystem-originated.
var errFilesystem = errors.New("filesystem operation failed")
