package download

import (
	"context"
	"path/filepath"

	"github.com/3leaps/gofetch/pkg/destpath"
	"github.com/3leaps/gofetch/pkg/progress"
	"github.com/3leaps/gofetch/pkg/queue"
)

// tempSuffix is the suffix every in-progress download is written under
// before its atomic rename to the final destination (spec.md §6).
const tempSuffix = ".s3fetch_tmp"

// Fetcher is one worker in the Coordinator's pool. Each worker dequeues a
// key, derives and prepares its destination, streams the object through
// ObjectFetcher into a temp file, and atomically renames it into place
// (spec.md §4.5), grounded on the teacher's Transfer.transferOne.
type Fetcher struct {
	fetcher   ObjectFetcher
	fs        Filesystem
	root      string
	prefix    string
	delimiter string
	dryRun    bool
	sink      progress.Sink
}

// FetcherConfig configures a Fetcher worker pool. All workers in a
// Coordinator share one Fetcher configuration and one ObjectFetcher
// instance.
type FetcherConfig struct {
	Root      string
	Prefix    string
	Delimiter string
	DryRun    bool
}

// NewFetcher constructs a Fetcher worker.
func NewFetcher(of ObjectFetcher, fs Filesystem, cfg FetcherConfig, sink progress.Sink) *Fetcher {
	if sink == nil {
		sink = progress.NoOp()
	}
	return &Fetcher{
		fetcher:   of,
		fs:        fs,
		root:      cfg.Root,
		prefix:    cfg.Prefix,
		delimiter: cfg.Delimiter,
		dryRun:    cfg.DryRun,
		sink:      sink,
	}
}

// Run dequeues keys from work until it is closed or cancellation fires,
// emitting exactly one Result per dequeued key onto completion.
func (f *Fetcher) Run(ctx context.Context, work *queue.ClosableQueue[string], completion *queue.ClosableQueue[Result]) {
	for {
		key, ok, err := work.Get(ctx)
		if err != nil || !ok {
			return
		}

		var result Result
		if ctx.Err() != nil {
			result = Result{Key: key, Success: false, Error: ErrCancelled, Message: ctx.Err().Error()}
		} else {
			result = f.fetchOne(ctx, key)
		}

		// The Coordinator drains completion until every worker has returned,
		// so this Put is not tied to ctx: a cancelled run still delivers the
		// result of every key already dequeued.
		_ = completion.Put(context.Background(), result)
	}
}

// fetchOne implements the per-key steps of spec.md §4.5.
func (f *Fetcher) fetchOne(ctx context.Context, key string) Result {
	dest, err := destpath.Derive(key, f.prefix, f.delimiter, f.root)
	if err != nil {
		return f.failure(key, "", err)
	}

	if err := f.fs.MkdirAll(filepath.Dir(dest)); err != nil {
		return f.failure(key, dest, err)
	}

	if f.dryRun {
		return Result{Key: key, Destination: dest, Success: true, BytesWritten: 0}
	}

	tmp := dest + tempSuffix
	handle, err := f.fs.Create(tmp)
	if err != nil {
		return f.failure(key, dest, err)
	}

	n, fetchErr := f.fetcher.FetchToFile(ctx, key, handle)
	closeErr := handle.Close()

	if fetchErr != nil {
		_ = f.fs.Remove(tmp)
		return f.failure(key, dest, fetchErr)
	}
	if closeErr != nil {
		_ = f.fs.Remove(tmp)
		return f.failure(key, dest, closeErr)
	}

	if err := f.fs.Rename(tmp, dest); err != nil {
		_ = f.fs.Remove(tmp)
		return f.failure(key, dest, err)
	}

	f.sink.IncrementDownloaded(n)
	return Result{Key: key, Destination: dest, Success: true, BytesWritten: n}
}

func (f *Fetcher) failure(key, dest string, err error) Result {
	return Result{
		Key:         key,
		Destination: dest,
		Success:     false,
		Error:       classify(err),
		Message:     err.Error(),
	}
}
