package download

import (
	"context"
	"strings"

	"github.com/3leaps/gofetch/pkg/progress"
	"github.com/3leaps/gofetch/pkg/queue"
)

// Lister paginates a Listing capability and publishes matching keys to the
// work queue (spec.md §4.4), grounded on the teacher's
// Crawler.listPrefix page loop.
type Lister struct {
	listing Listing
	request ListingRequest
	sink    progress.Sink
}

// NewLister constructs a Lister for a single listing request.
func NewLister(listing Listing, request ListingRequest, sink progress.Sink) *Lister {
	if sink == nil {
		sink = progress.NoOp()
	}
	return &Lister{listing: listing, request: request, sink: sink}
}

// Run paginates the listing, enqueueing matched keys onto work in the
// order the store returned them, and closes work exactly once on
// completion — normal or cancelled. A non-nil error return is a terminal
// listing fault (spec.md §7); the work queue has still been closed.
func (l *Lister) Run(ctx context.Context, work *queue.ClosableQueue[string]) error {
	defer work.Close()

	var token string
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		page, err := l.listing.ListPage(ctx, l.request.Prefix, token)
		if err != nil {
			return err
		}

		for _, key := range page.Keys {
			if strings.HasSuffix(key, l.request.Delimiter) {
				continue // directory marker
			}
			if l.request.Pattern != nil && !l.request.Pattern.Match(key) {
				continue
			}

			if err := work.Put(ctx, key); err != nil {
				return nil // cancelled mid-enqueue; not a terminal fault
			}
			l.sink.IncrementFound()
		}

		if !page.IsTruncated || page.ContinuationToken == "" {
			return nil
		}
		token = page.ContinuationToken
	}
}
