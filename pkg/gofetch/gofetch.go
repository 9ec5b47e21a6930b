// Package gofetch is the public library entry point: a single Download
// call that runs the same engine "gofetch get" drives from the command
// line, for callers embedding gofetch rather than shelling out to it.
package gofetch

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/3leaps/gofetch/internal/config"
	"github.com/3leaps/gofetch/pkg/download"
	"github.com/3leaps/gofetch/pkg/match"
	"github.com/3leaps/gofetch/pkg/objecturi"
	"github.com/3leaps/gofetch/pkg/progress"
	"github.com/3leaps/gofetch/pkg/provider"
	"github.com/3leaps/gofetch/pkg/provider/s3"
)

// Options configures a Download call. All fields are optional; zero values
// fall back to the defaults noted per field.
type Options struct {
	// DownloadDir is the local directory objects are written into.
	// Defaults to the current working directory.
	DownloadDir string

	// Regex selects keys within the URI's prefix by substring match.
	// Empty matches every key.
	Regex string

	// Threads is the worker pool size. Defaults to a CPU-affinity-aware
	// detection, falling back to logical core count, then 1.
	Threads int

	// Region is the AWS region. Defaults to "us-east-1".
	Region string

	// Endpoint overrides the S3 endpoint (for S3-compatible stores).
	Endpoint string

	// Profile selects an AWS credentials profile.
	Profile string

	// Delimiter groups keys into prefixes. Defaults to "/".
	Delimiter string

	// DryRun lists and matches keys without writing any files.
	DryRun bool

	// ExcludeGlob drops keys matching any of these doublestar globs.
	ExcludeGlob []string

	// RateLimit caps listing requests/sec. Zero means unlimited.
	RateLimit float64

	// Client overrides the fetch/list capability, e.g. for tests. When
	// nil, Download constructs an S3 provider from Region/Endpoint/Profile.
	Client Client

	// OnComplete is called once per successfully downloaded key.
	OnComplete func(key string)

	// Progress receives found/downloaded/byte counts as the run proceeds.
	Progress progress.Sink
}

// Client is the storage capability Download needs: listing, metadata, and
// ranged-fetch-to-file. pkg/provider/s3.Provider satisfies it; tests can
// supply any other implementation via Options.Client.
type Client interface {
	provider.Provider
	download.ObjectFetcher
}

// Result is Download's terminal outcome.
type Result struct {
	SuccessCount int
	Failures     []download.Failure
}

// Download fetches every object under uri (an "s3://bucket[/prefix]" URI)
// matching opts.Regex into opts.DownloadDir, mirroring the key layout.
func Download(ctx context.Context, uri string, opts Options) (Result, error) {
	parsed, err := objecturi.Parse(uri)
	if err != nil {
		return Result{}, err
	}
	if parsed.Provider != string(provider.ProviderS3) {
		return Result{}, fmt.Errorf("gofetch: unsupported provider %q", parsed.Provider)
	}

	threads := opts.Threads
	if threads <= 0 {
		if cfg, cfgErr := config.Load(ctx); cfgErr == nil {
			threads = cfg.Threads
		}
	}

	prov := opts.Client
	if prov == nil {
		region := opts.Region
		if region == "" {
			region = "us-east-1"
		}
		p, err := s3.New(ctx, s3.Config{
			Bucket:         parsed.Bucket,
			Region:         region,
			Endpoint:       opts.Endpoint,
			Profile:        opts.Profile,
			ForcePathStyle: opts.Endpoint != "",
			PoolSize:       download.TransportPoolSize(threads),
		})
		if err != nil {
			return Result{}, fmt.Errorf("gofetch: connect to storage provider: %w", err)
		}
		defer func() { _ = p.Close() }()
		prov = p
	}
	// When opts.Client is caller-supplied, closing it is the caller's
	// responsibility, not Download's.

	var listing download.Listing = download.NewProviderListing(prov)
	if len(opts.ExcludeGlob) > 0 {
		exclude, err := match.NewExcludeFilter(opts.ExcludeGlob)
		if err != nil {
			return Result{}, fmt.Errorf("gofetch: invalid exclude glob: %w", err)
		}
		listing = download.NewExcludeFilteredListing(listing, exclude)
	}
	if opts.RateLimit > 0 {
		listing = download.NewRateLimitedListing(listing, rate.NewLimiter(rate.Limit(opts.RateLimit), 1))
	}

	downloadDir := opts.DownloadDir
	if downloadDir == "" {
		downloadDir = "."
	}
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = "/"
	}

	coord, err := download.New(listing, prov, nil, download.Config{
		Bucket:     parsed.Bucket,
		Prefix:     parsed.Key,
		Delimiter:  delimiter,
		Pattern:    opts.Regex,
		Root:       downloadDir,
		Threads:    threads,
		DryRun:     opts.DryRun,
		Progress:   opts.Progress,
		OnComplete: opts.OnComplete,
	})
	if err != nil {
		return Result{}, fmt.Errorf("gofetch: invalid download configuration: %w", err)
	}

	outcome, err := coord.Run(ctx)
	if err != nil {
		return Result{}, err
	}

	return Result{SuccessCount: outcome.SuccessCount, Failures: outcome.Failures}, nil
}
