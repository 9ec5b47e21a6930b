package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/3leaps/gofetch/internal/cliutil"
	"github.com/3leaps/gofetch/internal/config"
	"github.com/3leaps/gofetch/internal/observability"
	"github.com/3leaps/gofetch/pkg/download"
	"github.com/3leaps/gofetch/pkg/match"
	"github.com/3leaps/gofetch/pkg/output"
	"github.com/3leaps/gofetch/pkg/progress"
	"github.com/3leaps/gofetch/pkg/provider"
	"github.com/3leaps/gofetch/pkg/provider/s3"
)

var getCmd = &cobra.Command{
	Use:   "get <uri>",
	Short: "Download objects under an S3 prefix",
	Long: `Download every object matching a prefix (and optional regex) into a
local directory tree that mirrors the key layout.

Examples:
  gofetch get s3://bucket/prefix/
  gofetch get s3://bucket/prefix/ --regex '\.parquet$' --threads 16
  gofetch get s3://bucket/prefix/ --dry-run --progress detailed`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var (
	getDownloadDir string
	getRegion      string
	getEndpoint    string
	getProfile     string
	getDelimiter   string
	getRegex       string
	getThreads     int
	getDryRun      bool
	getProgress    string
	getRateLimit   float64
	getExcludeGlob []string
)

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVar(&getDownloadDir, "download-dir", ".", "Local directory to download into (must exist)")
	getCmd.Flags().StringVarP(&getRegex, "regex", "r", "", "Regular expression selecting keys (substring match; empty matches all)")
	getCmd.Flags().IntVarP(&getThreads, "threads", "t", 0, "Concurrent download workers (0=auto-detect)")
	getCmd.Flags().StringVar(&getRegion, "region", "", "AWS region")
	getCmd.Flags().StringVar(&getEndpoint, "endpoint", "", "Custom S3-compatible endpoint")
	getCmd.Flags().StringVar(&getProfile, "profile", "", "AWS profile")
	getCmd.Flags().StringVar(&getDelimiter, "delimiter", "/", "Delimiter used to recognize directory markers")
	getCmd.Flags().BoolVar(&getDryRun, "dry-run", false, "List and match but do not write any files")
	getCmd.Flags().BoolVar(&getDryRun, "list-only", false, "Alias for --dry-run")
	getCmd.Flags().StringVar(&getProgress, "progress", "simple", "Progress rendering: simple|detailed|live-update|fancy (only simple/detailed are implemented; others fall back to simple)")
	getCmd.Flags().Float64Var(&getRateLimit, "rate-limit", 0, "Max listing requests/sec (0=unlimited)")
	getCmd.Flags().StringArrayVar(&getExcludeGlob, "exclude-glob", nil, "Exclude keys matching this doublestar glob (repeatable)")
}

// downloadRequest is the provider-agnostic shape of one `gofetch get`
// invocation, shared by the get and batch commands so a batch manifest's
// jobs run through the exact same pipeline as a single `get` call.
type downloadRequest struct {
	Name        string
	URI         string
	Regex       string
	DownloadDir string
	Threads     int
	Delimiter   string
	DryRun      bool
	Region      string
	Endpoint    string
	Profile     string
	RateLimit   float64
	ExcludeGlob []string
	Progress    string
}

func runGet(cmd *cobra.Command, args []string) error {
	req := downloadRequest{
		URI:         args[0],
		Regex:       getRegex,
		DownloadDir: getDownloadDir,
		Threads:     getThreads,
		Delimiter:   getDelimiter,
		DryRun:      getDryRun,
		Region:      getRegion,
		Endpoint:    getEndpoint,
		Profile:     getProfile,
		RateLimit:   getRateLimit,
		ExcludeGlob: getExcludeGlob,
		Progress:    getProgress,
	}

	outcome, err := runDownloadRequest(cmd.Context(), req)
	if err != nil {
		return err
	}
	if len(outcome.Failures) > 0 {
		os.Exit(cliutil.ExitFailure)
	}
	return nil
}

// runDownloadRequest executes a single download request end to end:
// parses the URI, connects a provider, wires the engine's optional
// self-throttling/exclude-glob decorators, runs the Coordinator, and
// reports progress/results through observability and an optional JSONL
// writer. Returns the engine's Outcome so callers (get, batch) can decide
// how to translate failures into a process exit code.
func runDownloadRequest(ctx context.Context, req downloadRequest) (*download.Outcome, error) {
	parsed, err := ParseURI(req.URI)
	if err != nil {
		observability.CLILogger.Error("Invalid URI", zap.String("uri", req.URI), zap.Error(err))
		return nil, exitError(cliutil.ExitUsage, "Invalid URI", err)
	}
	if parsed.Provider != string(provider.ProviderS3) {
		return nil, exitError(cliutil.ExitUsage, "Unsupported provider", fmt.Errorf("provider %q is not supported", parsed.Provider))
	}

	exclude, err := match.NewExcludeFilter(req.ExcludeGlob)
	if err != nil {
		return nil, exitError(cliutil.ExitUsage, "Invalid --exclude-glob pattern", err)
	}

	threads := req.Threads
	if threads <= 0 {
		if cfg, cfgErr := config.Load(ctx); cfgErr == nil {
			threads = cfg.Threads
		}
	}

	poolSize := download.TransportPoolSize(threads)
	prov, err := s3.New(ctx, s3.Config{
		Bucket:         parsed.Bucket,
		Region:         req.Region,
		Endpoint:       req.Endpoint,
		Profile:        req.Profile,
		ForcePathStyle: req.Endpoint != "",
		PoolSize:       poolSize,
	})
	if err != nil {
		observability.CLILogger.Error("Failed to create provider", zap.Error(err))
		return nil, exitError(cliutil.ExitFailure, "Failed to connect to storage provider", err)
	}
	defer func() { _ = prov.Close() }()

	var listing download.Listing = download.NewProviderListing(prov)
	if len(req.ExcludeGlob) > 0 {
		listing = download.NewExcludeFilteredListing(listing, exclude)
	}
	if req.RateLimit > 0 {
		listing = download.NewRateLimitedListing(listing, rate.NewLimiter(rate.Limit(req.RateLimit), 1))
	}

	jobID := uuid.New().String()

	var writer output.Writer
	if req.Progress == "detailed" {
		w := output.NewJSONLWriter(os.Stdout, jobID, parsed.Provider)
		writer = w
		defer func() { _ = w.Close() }()
	}

	counters := progress.NewCounters()
	stopReporter := startSimpleProgressReporter(counters, req.Progress, req.Name)
	defer stopReporter()

	cfg := download.Config{
		Bucket:    parsed.Bucket,
		Prefix:    parsed.Key,
		Delimiter: req.Delimiter,
		Pattern:   req.Regex,
		Root:      req.DownloadDir,
		Threads:   threads,
		DryRun:    req.DryRun,
		Progress:  counters,
		OnComplete: func(key string) {
			if writer != nil {
				_ = writer.WriteObject(ctx, &output.ObjectRecord{Key: key})
			}
		},
	}

	coord, err := download.New(listing, prov, nil, cfg)
	if err != nil {
		return nil, exitError(cliutil.ExitUsage, "Invalid download configuration", err)
	}

	start := time.Now()
	outcome, err := coord.Run(ctx)
	if err != nil {
		observability.CLILogger.Error("Listing failed", zap.Error(err))
		return nil, exitError(cliutil.ExitFailure, "Listing failed", err)
	}

	for _, w := range outcome.Warnings {
		observability.CLILogger.Warn(w)
	}
	for _, f := range outcome.Failures {
		observability.CLILogger.Error("Download failed",
			zap.String("key", f.Key),
			zap.String("kind", string(f.Kind)),
			zap.String("message", f.Message))
		if writer != nil {
			_ = writer.WriteError(ctx, &output.ErrorRecord{
				Code:    errCodeForKind(f.Kind),
				Message: f.Message,
				Key:     f.Key,
			})
		}
	}

	dur := time.Since(start)
	snap := counters.Snapshot()
	observability.CLILogger.Info("Download complete",
		zap.String("job", req.Name),
		zap.Int64("found", snap.Found),
		zap.Int("downloaded", outcome.SuccessCount),
		zap.Int("failed", len(outcome.Failures)),
		zap.Int64("bytes", snap.Bytes),
		zap.Duration("duration", dur))

	if writer != nil {
		_ = writer.WriteSummary(ctx, &output.SummaryRecord{
			ObjectsFound:   snap.Found,
			ObjectsMatched: int64(outcome.SuccessCount),
			BytesTotal:     snap.Bytes,
			Duration:       dur,
			DurationHuman:  formatDuration(dur),
			Errors:         int64(len(outcome.Failures)),
			Prefixes:       []string{parsed.Key},
		})
	}

	return outcome, nil
}

// errCodeForKind maps a download.ErrorKind to the output package's
// error-code string constants.
func errCodeForKind(kind download.ErrorKind) string {
	switch kind {
	case download.ErrAuth:
		return output.ErrCodeAuth
	case download.ErrAccessDenied:
		return output.ErrCodeAccessDenied
	case download.ErrNotFound:
		return output.ErrCodeNotFound
	case download.ErrThrottled:
		return output.ErrCodeThrottled
	case download.ErrNetwork:
		return output.ErrCodeNetwork
	case download.ErrFilesystem:
		return output.ErrCodeFilesystem
	case download.ErrPathEscape:
		return output.ErrCodePathEscape
	case download.ErrCancelled:
		return output.ErrCodeCancelled
	default:
		return output.ErrCodeInternal
	}
}

// startSimpleProgressReporter logs a periodic one-line progress summary
// when mode requests any rendering. This is the "simple" renderer
// SPEC_FULL.md §2.4 calls out as the one concrete UI gofetch ships; richer
// modes (live-update/fancy) are accepted as flag values but render the
// same summary line, since the terminal UI itself is out of scope.
func startSimpleProgressReporter(counters *progress.Counters, mode, name string) func() {
	if mode == "" || mode == "none" {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				snap := counters.Snapshot()
				observability.CLILogger.Info("progress",
					zap.String("job", name),
					zap.Int64("found", snap.Found),
					zap.Int64("downloaded", snap.Downloaded),
					zap.Int64("bytes", snap.Bytes))
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
