package download

import (
	"context"
	"io"

	"github.com/3leaps/gofetch/pkg/match"
	"github.com/3leaps/gofetch/pkg/progress"
)

// ListingRequest describes what to enumerate and select (spec.md §3).
type ListingRequest struct {
	Bucket    string
	Prefix    string
	Delimiter string
	Pattern   *match.Pattern // nil matches every key
}

// Result is emitted exactly once per dequeued key (spec.md §3).
type Result struct {
	Key          string
	Destination  string
	Success      bool
	BytesWritten int64
	Error        ErrorKind
	Message      string
}

// ObjectFetcher is the remote-transfer capability the Fetcher consumes
// (spec.md §6). A single instance, constructed with a pool size sized by
// TransportPoolSize, is shared across every worker.
type ObjectFetcher interface {
	// FetchToFile streams key into dst via WriteAt, so the implementation
	// may split the transfer into concurrent byte-range requests.
	// Returns the number of bytes written.
	FetchToFile(ctx context.Context, key string, dst io.WriterAt) (int64, error)
}

// Listing is the paginated enumeration capability the Lister consumes
// (spec.md §6).
type Listing interface {
	// ListPage returns the next page of keys for prefix, continuing from
	// continuationToken (empty on the first call).
	ListPage(ctx context.Context, prefix, continuationToken string) (page Page, err error)
}

// Page is one page of a Listing enumeration.
type Page struct {
	Keys              []string
	ContinuationToken string
	IsTruncated       bool
}

// Sink is re-exported so callers configuring a Coordinator don't need to
// import pkg/progress directly for the common case.
type Sink = progress.Sink
