package download

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/3leaps/gofetch/pkg/match"
)

// RateLimitedListing paces ListPage calls against a token-bucket limiter,
// self-throttling the single Lister's page requests without adding a retry
// layer. It wraps a Listing rather than living inside the Coordinator, so
// callers opt in only when they pass a non-nil limiter.
type RateLimitedListing struct {
	inner   Listing
	limiter *rate.Limiter
}

// NewRateLimitedListing wraps inner so every ListPage call first waits on
// limiter.
func NewRateLimitedListing(inner Listing, limiter *rate.Limiter) *RateLimitedListing {
	return &RateLimitedListing{inner: inner, limiter: limiter}
}

func (r *RateLimitedListing) ListPage(ctx context.Context, prefix, continuationToken string) (Page, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}
	return r.inner.ListPage(ctx, prefix, continuationToken)
}

// ExcludeFilteredListing drops keys matching any exclude glob before they
// reach the Lister's regex pattern check.
type ExcludeFilteredListing struct {
	inner   Listing
	exclude *match.ExcludeFilter
}

// NewExcludeFilteredListing wraps inner so pages are filtered through
// exclude before the Lister sees them.
func NewExcludeFilteredListing(inner Listing, exclude *match.ExcludeFilter) *ExcludeFilteredListing {
	return &ExcludeFilteredListing{inner: inner, exclude: exclude}
}

func (e *ExcludeFilteredListing) ListPage(ctx context.Context, prefix, continuationToken string) (Page, error) {
	page, err := e.inner.ListPage(ctx, prefix, continuationToken)
	if err != nil {
		return page, err
	}
	kept := page.Keys[:0]
	for _, k := range page.Keys {
		if !e.exclude.Excluded(k) {
			kept = append(kept, k)
		}
	}
	page.Keys = kept
	return page, nil
}
