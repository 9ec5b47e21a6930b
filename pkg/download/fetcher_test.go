package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofetch/pkg/progress"
	"github.com/3leaps/gofetch/pkg/queue"
)

func TestFetcher_WritesAndRenamesIntoPlace(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	fetcher.bodies["a/b.txt"] = []byte("payload")

	counters := progress.NewCounters()
	f := NewFetcher(fetcher, NewOSFilesystem(), FetcherConfig{Root: root, Delimiter: "/"}, counters)

	result := f.fetchOne(context.Background(), "a/b.txt")
	require.True(t, result.Success)
	assert.Equal(t, int64(7), result.BytesWritten)

	data, err := os.ReadFile(filepath.Join(root, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// No temp-suffixed file left behind.
	_, statErr := os.Stat(filepath.Join(root, "a", "b.txt"+tempSuffix))
	assert.True(t, os.IsNotExist(statErr))

	assert.Equal(t, int64(7), counters.Snapshot().Bytes)
}

func TestFetcher_FailureRemovesTempFile(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	fetcher.failing["bad.txt"] = errors.New("network blip")

	f := NewFetcher(fetcher, NewOSFilesystem(), FetcherConfig{Root: root, Delimiter: "/"}, nil)
	result := f.fetchOne(context.Background(), "bad.txt")

	assert.False(t, result.Success)
	assert.Equal(t, ErrUnknown, result.Error)

	_, statErr := os.Stat(filepath.Join(root, "bad.txt"+tempSuffix))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(root, "bad.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetcher_DryRunSkipsFetch(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	f := NewFetcher(fetcher, NewOSFilesystem(), FetcherConfig{Root: root, Delimiter: "/", DryRun: true}, nil)

	result := f.fetchOne(context.Background(), "a.txt")
	assert.True(t, result.Success)
	assert.Zero(t, result.BytesWritten)
	assert.Empty(t, fetcher.calls)
}

func TestFetcher_PathEscapeEmitsFailureWithoutFilesystemWrite(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	f := NewFetcher(fetcher, NewOSFilesystem(), FetcherConfig{Root: root, Delimiter: "/"}, nil)

	result := f.fetchOne(context.Background(), "../escape.txt")
	assert.False(t, result.Success)
	assert.Equal(t, ErrPathEscape, result.Error)
	assert.Empty(t, fetcher.calls)
}

func TestFetcher_Run_EmitsOneResultPerKeyAndExitsOnClose(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	fetcher.bodies["a.txt"] = []byte("1")
	fetcher.bodies["b.txt"] = []byte("22")

	f := NewFetcher(fetcher, NewOSFilesystem(), FetcherConfig{Root: root, Delimiter: "/"}, nil)
	work := queue.New[string](10)
	completion := queue.New[Result](10)

	require.NoError(t, work.Put(context.Background(), "a.txt"))
	require.NoError(t, work.Put(context.Background(), "b.txt"))
	work.Close()

	done := make(chan struct{})
	go func() {
		f.Run(context.Background(), work, completion)
		close(done)
	}()
	<-done
	completion.Close()

	results := map[string]Result{}
	for {
		r, ok, err := completion.Get(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		results[r.Key] = r
	}

	require.Len(t, results, 2)
	assert.True(t, results["a.txt"].Success)
	assert.True(t, results["b.txt"].Success)
}
