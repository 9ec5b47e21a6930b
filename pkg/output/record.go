// Package output provides JSONL output for download results.
//
// Output is structured as typed record envelopes containing objects,
// errors, and progress updates. Each line is a self-contained JSON
// object that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: gofetch.<type>.v<version>
const (
	// TypeObject identifies object/result records.
	TypeObject = "gofetch.object.v1"

	// TypeError identifies error records.
	TypeError = "gofetch.error.v1"

	// TypeProgress identifies progress update records.
	TypeProgress = "gofetch.progress.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "gofetch.summary.v1"

	// TypePrefix identifies tree/prefix summary records.
	TypePrefix = "gofetch.prefix.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of JSONL output contains a Record with a type-specific
// payload in the Data field. The type field determines how to
// interpret the Data payload.
type Record struct {
	// Type identifies the record type (e.g., "gofetch.object.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this download job.
	JobID string `json:"job_id"`

	// Provider identifies the storage provider (e.g., "s3").
	Provider string `json:"provider"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ObjectRecord is the data payload for a single object's download outcome.
type ObjectRecord struct {
	// Key is the full object key (path) in the bucket.
	Key string `json:"key"`

	// Destination is the local path the object was (or would be) written to.
	Destination string `json:"destination,omitempty"`

	// Size is the object size in bytes.
	Size int64 `json:"size"`

	// ETag is the entity tag, typically an MD5 hash of the object.
	ETag string `json:"etag,omitempty"`

	// LastModified is when the object was last modified.
	LastModified time.Time `json:"last_modified,omitzero"`

	// ContentType is the MIME type of the object.
	ContentType string `json:"content_type,omitempty"`

	// Metadata contains user-defined metadata key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ErrorRecord is the data payload for errors.
//
// Errors are emitted as records rather than failing the entire run,
// allowing partial results when some objects fail.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Key is the object key related to this error, if applicable.
	Key string `json:"key,omitempty"`

	// Prefix is the prefix being listed when the error occurred.
	Prefix string `json:"prefix,omitempty"`

	// Details contains additional error context.
	Details any `json:"details,omitempty"`
}

// Error codes for ErrorRecord. These mirror pkg/download.ErrorKind.
const (
	ErrCodeAuth         = "AUTH"
	ErrCodeAccessDenied = "ACCESS_DENIED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeThrottled    = "THROTTLED"
	ErrCodeNetwork      = "NETWORK"
	ErrCodeFilesystem   = "FILESYSTEM"
	ErrCodePathEscape   = "PATH_ESCAPE"
	ErrCodeCancelled    = "CANCELLED"
	ErrCodeInternal     = "INTERNAL"
)

// ProgressRecord is the data payload for progress updates.
//
// Progress records are emitted periodically during a run to provide
// visibility into long-running operations.
type ProgressRecord struct {
	// Phase indicates the current run phase.
	Phase string `json:"phase"`

	// ObjectsFound is the total number of objects seen so far.
	ObjectsFound int64 `json:"objects_found"`

	// ObjectsMatched is the number of objects downloaded so far.
	ObjectsMatched int64 `json:"objects_matched"`

	// BytesTotal is the cumulative size of downloaded objects in bytes.
	BytesTotal int64 `json:"bytes_total"`

	// Prefix is the current prefix being listed, if applicable.
	Prefix string `json:"prefix,omitempty"`
}

// Progress phase constants.
const (
	PhaseStarting = "starting"
	PhaseListing  = "listing"
	PhaseComplete = "complete"
)

// SummaryRecord is the data payload for final summaries.
type SummaryRecord struct {
	// ObjectsFound is the total number of objects seen.
	ObjectsFound int64 `json:"objects_found"`

	// ObjectsMatched is the number of objects downloaded.
	ObjectsMatched int64 `json:"objects_matched"`

	// BytesTotal is the cumulative size of downloaded objects in bytes.
	BytesTotal int64 `json:"bytes_total"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`

	// Errors is the count of errors encountered.
	Errors int64 `json:"errors"`

	// Prefixes lists the prefixes that were visited.
	Prefixes []string `json:"prefixes,omitempty"`
}

// PrefixRecord is the data payload for a `gofetch tree` prefix summary.
type PrefixRecord struct {
	// Prefix is the key prefix this record summarizes.
	Prefix string `json:"prefix"`

	// Delimiter is the delimiter used to derive common prefixes.
	Delimiter string `json:"delimiter"`

	// Depth is this prefix's distance from the traversal root (root is 0).
	Depth int `json:"depth"`

	// ObjectsDirect is the number of objects found directly under Prefix
	// (not in any nested common prefix).
	ObjectsDirect int64 `json:"objects_direct"`

	// BytesDirect is the cumulative size of the direct objects.
	BytesDirect int64 `json:"bytes_direct"`

	// CommonPrefixes is the number of immediate child prefixes.
	CommonPrefixes int64 `json:"common_prefixes"`

	// Pages is the number of listing pages consumed to build this record.
	Pages int64 `json:"pages"`

	// Truncated reports whether this summary stopped early.
	Truncated bool `json:"truncated"`

	// TruncatedReason explains why, when Truncated is true
	// ("max-objects" or "max-pages").
	TruncatedReason string `json:"truncated_reason,omitempty"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
