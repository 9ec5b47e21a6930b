// Package download implements the concurrent download engine: a
// producer/consumer pipeline that paginates a server-side listing,
// filters keys by pattern, dispatches matches to a bounded pool of
// transfer workers, writes each object atomically to a derived local
// path, and reports per-object results to an optional observer.
package download

import (
	"context"
	"fmt"
	"sync"

	"github.com/3leaps/gofetch/pkg/match"
	"github.com/3leaps/gofetch/pkg/progress"
	"github.com/3leaps/gofetch/pkg/queue"
)

// maxSaneThreads is the point past which the Coordinator warns (via the
// Warnings field) instead of failing, per spec.md §4.6 step 1.
const maxSaneThreads = 1000

const (
	defaultDelimiter   = "/"
	defaultQueueBuffer = 1024
)

// Config configures a single Coordinator run (spec.md §4.6).
type Config struct {
	Bucket      string
	Prefix      string
	Delimiter   string // default "/"
	Pattern     string // regex, empty matches everything
	Root        string // download root; must already exist
	Threads     int    // worker count; default 1
	DryRun      bool
	OnComplete  func(key string)
	Progress    progress.Sink
	QueueBuffer int // work/completion queue capacity; default 1024
}

// Outcome is the Coordinator's terminal result (spec.md §4.6 step 9).
type Outcome struct {
	SuccessCount int
	Failures     []Failure
	Warnings     []string
}

// Failure describes one key that did not complete successfully.
type Failure struct {
	Key     string
	Kind    ErrorKind
	Message string
}

// Coordinator wires a Lister and N Fetcher workers together, owning the
// work queue, completion queue, and worker pool lifecycle (spec.md §4.6),
// grounded on the teacher's Crawler.runPipeline/Transfer.Run wiring.
type Coordinator struct {
	listing  Listing
	fetcher  ObjectFetcher
	fs       Filesystem
	cfg      Config
	pattern  *match.Pattern
	warnings []string
}

// New validates cfg and constructs a Coordinator (spec.md §4.6 step 1).
// listing and fetcher are the capabilities the pipeline consumes; fs
// defaults to the os-backed Filesystem when nil.
func New(listing Listing, fetcher ObjectFetcher, fs Filesystem, cfg Config) (*Coordinator, error) {
	var warnings []string

	if cfg.Delimiter == "" {
		cfg.Delimiter = defaultDelimiter
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.Threads > maxSaneThreads {
		warnings = append(warnings, fmt.Sprintf("thread count %d exceeds %d; continuing anyway", cfg.Threads, maxSaneThreads))
	}
	if cfg.QueueBuffer <= 0 {
		cfg.QueueBuffer = defaultQueueBuffer
	}

	if err := ResolveExistingDir(cfg.Root); err != nil {
		return nil, err
	}

	pattern, err := match.Compile(cfg.Pattern)
	if err != nil {
		return nil, err
	}

	if fs == nil {
		fs = NewOSFilesystem()
	}

	return &Coordinator{
		listing:  listing,
		fetcher:  fetcher,
		fs:       fs,
		cfg:      cfg,
		pattern:  pattern,
		warnings: warnings,
	}, nil
}

// Run executes the pipeline to completion or cancellation and returns the
// aggregate outcome (spec.md §4.6 steps 3–9). A non-nil error is a
// terminal listing fault; Outcome still reflects whatever completed
// before the fault.
func (c *Coordinator) Run(ctx context.Context) (*Outcome, error) {
	sink := c.cfg.Progress
	if sink == nil {
		sink = progress.NoOp()
	}

	work := queue.New[string](c.cfg.QueueBuffer)
	completion := queue.New[Result](c.cfg.QueueBuffer)

	request := ListingRequest{
		Bucket:    c.cfg.Bucket,
		Prefix:    c.cfg.Prefix,
		Delimiter: c.cfg.Delimiter,
		Pattern:   c.pattern,
	}

	lister := NewLister(c.listing, request, sink)
	fetcherCfg := FetcherConfig{
		Root:      c.cfg.Root,
		Prefix:    c.cfg.Prefix,
		Delimiter: c.cfg.Delimiter,
		DryRun:    c.cfg.DryRun,
	}

	var listErr error
	var listWg sync.WaitGroup
	listWg.Add(1)
	go func() {
		defer listWg.Done()
		listErr = lister.Run(ctx, work)
	}()

	var workerWg sync.WaitGroup
	for i := 0; i < c.cfg.Threads; i++ {
		worker := NewFetcher(c.fetcher, c.fs, fetcherCfg, sink)
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			worker.Run(ctx, work, completion)
		}()
	}

	outcome := &Outcome{Warnings: c.warnings}
	var drainWg sync.WaitGroup
	drainWg.Add(1)
	go func() {
		defer drainWg.Done()
		// Drain unconditionally on context.Background(): cancellation must
		// not stop this goroutine from collecting every result workers
		// still emit before they exit. It terminates only when Run closes
		// completion after workerWg.Wait().
		for {
			result, ok, err := completion.Get(context.Background())
			if err != nil || !ok {
				return
			}
			if result.Success {
				outcome.SuccessCount++
				if c.cfg.OnComplete != nil {
					c.cfg.OnComplete(result.Key)
				}
			} else {
				outcome.Failures = append(outcome.Failures, Failure{
					Key:     result.Key,
					Kind:    result.Error,
					Message: result.Message,
				})
			}
		}
	}()

	listWg.Wait()
	workerWg.Wait()
	completion.Close()
	drainWg.Wait()

	return outcome, listErr
}
