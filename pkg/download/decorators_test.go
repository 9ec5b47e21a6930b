package download

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/3leaps/gofetch/pkg/match"
)

type staticPageListing struct {
	page Page
}

func (f *staticPageListing) ListPage(_ context.Context, _, _ string) (Page, error) {
	return f.page, nil
}

func TestExcludeFilteredListing_DropsMatches(t *testing.T) {
	inner := &staticPageListing{page: Page{Keys: []string{"a.txt", "b.log", "c.txt"}}}
	exclude, err := match.NewExcludeFilter([]string{"*.log"})
	require.NoError(t, err)

	listing := NewExcludeFilteredListing(inner, exclude)
	page, err := listing.ListPage(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "c.txt"}, page.Keys)
}

func TestRateLimitedListing_WaitsOnLimiter(t *testing.T) {
	inner := &staticPageListing{page: Page{Keys: []string{"a.txt"}}}
	listing := NewRateLimitedListing(inner, rate.NewLimiter(rate.Inf, 1))

	page, err := listing.ListPage(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, page.Keys)
}

func TestRateLimitedListing_CancelledContext(t *testing.T) {
	inner := &staticPageListing{page: Page{Keys: []string{"a.txt"}}}
	listing := NewRateLimitedListing(inner, rate.NewLimiter(rate.Limit(0.001), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := listing.ListPage(ctx, "", "")
	require.Error(t, err)
}
