package download

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofetch/pkg/match"
	"github.com/3leaps/gofetch/pkg/progress"
	"github.com/3leaps/gofetch/pkg/queue"
)

type pagedListing struct {
	pages []Page
	err   error
}

func (p *pagedListing) ListPage(ctx context.Context, prefix, token string) (Page, error) {
	if p.err != nil {
		return Page{}, p.err
	}
	idx := 0
	if token != "" {
		idx = int(token[0] - '0')
	}
	if idx >= len(p.pages) {
		return Page{}, nil
	}
	page := p.pages[idx]
	return page, nil
}

func drainAll(t *testing.T, q *queue.ClosableQueue[string]) []string {
	t.Helper()
	var got []string
	for {
		v, ok, err := q.Get(context.Background())
		require.NoError(t, err)
		if !ok {
			return got
		}
		got = append(got, v)
	}
}

func TestLister_EnqueuesInPageOrder(t *testing.T) {
	listing := &pagedListing{pages: []Page{
		{Keys: []string{"a", "b"}, IsTruncated: true, ContinuationToken: "1"},
		{Keys: []string{"c"}, IsTruncated: false},
	}}
	counters := progress.NewCounters()
	l := NewLister(listing, ListingRequest{Delimiter: "/"}, counters)
	work := queue.New[string](10)

	err := l.Run(context.Background(), work)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, drainAll(t, work))
	assert.Equal(t, int64(3), counters.Snapshot().Found)
}

func TestLister_SkipsDirectoryMarkers(t *testing.T) {
	listing := &pagedListing{pages: []Page{{Keys: []string{"dir/", "dir/file.txt"}}}}
	l := NewLister(listing, ListingRequest{Delimiter: "/"}, nil)
	work := queue.New[string](10)

	require.NoError(t, l.Run(context.Background(), work))
	assert.Equal(t, []string{"dir/file.txt"}, drainAll(t, work))
}

func TestLister_AppliesPattern(t *testing.T) {
	listing := &pagedListing{pages: []Page{{Keys: []string{"a.txt", "b.json"}}}}
	pattern, err := match.Compile(`\.txt$`)
	require.NoError(t, err)

	l := NewLister(listing, ListingRequest{Delimiter: "/", Pattern: pattern}, nil)
	work := queue.New[string](10)

	require.NoError(t, l.Run(context.Background(), work))
	assert.Equal(t, []string{"a.txt"}, drainAll(t, work))
}

func TestLister_TerminalErrorClosesQueueAndReturnsError(t *testing.T) {
	listing := &pagedListing{err: errors.New("boom")}
	l := NewLister(listing, ListingRequest{Delimiter: "/"}, nil)
	work := queue.New[string](10)

	err := l.Run(context.Background(), work)
	require.Error(t, err)
	assert.Empty(t, drainAll(t, work))
}

func TestLister_CancellationStopsPaginationAndClosesQueue(t *testing.T) {
	listing := &pagedListing{pages: []Page{
		{Keys: []string{"a"}, IsTruncated: true, ContinuationToken: "1"},
		{Keys: []string{"b"}},
	}}
	l := NewLister(listing, ListingRequest{Delimiter: "/"}, nil)
	work := queue.New[string](10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx, work)
	require.NoError(t, err)

	// The queue must still be closed even though nothing was enqueued.
	_, ok, getErr := work.Get(context.Background())
	require.NoError(t, getErr)
	assert.False(t, ok)
}
