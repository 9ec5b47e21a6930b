package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofetch/internal/cliutil"
	"github.com/3leaps/gofetch/internal/observability"
	"github.com/3leaps/gofetch/pkg/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a sequence of downloads described by a manifest file",
	Long: `Run every job in a batch manifest through the same download pipeline
as "gofetch get", one job after another, and report a per-job and overall
summary.

Example:
  gofetch batch --job jobs.yaml
  gofetch batch --job jobs.yaml --set threads=16 --set region=us-west-2`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

var (
	batchJobFile string
	batchSet     []string
)

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVar(&batchJobFile, "job", "", "Path to a batch manifest (YAML or JSON)")
	batchCmd.Flags().StringArrayVar(&batchSet, "set", nil, "Override a field on every job (key=value, repeatable)")
	_ = batchCmd.MarkFlagRequired("job")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manifest, err := batch.Load(batchJobFile)
	if err != nil {
		observability.CLILogger.Error("Failed to load batch manifest", zap.String("path", batchJobFile), zap.Error(err))
		return exitError(cliutil.ExitUsage, "Invalid batch manifest", err)
	}

	overrides, err := batch.ParseOverrides(batchSet)
	if err != nil {
		return exitError(cliutil.ExitUsage, "Invalid --set override", err)
	}
	for i := range manifest.Jobs {
		if err := batch.ApplyOverrides(&manifest.Jobs[i], overrides); err != nil {
			return exitError(cliutil.ExitUsage, "Invalid --set override", err)
		}
	}

	var anyFailures bool
	for i, job := range manifest.Jobs {
		name := job.Name
		if name == "" {
			name = fmt.Sprintf("job-%d", i+1)
		}

		observability.CLILogger.Info("Starting batch job", zap.String("job", name), zap.String("uri", job.URI))

		req := downloadRequest{
			Name:        name,
			URI:         job.URI,
			Regex:       job.Regex,
			DownloadDir: job.DownloadDir,
			Threads:     job.Threads,
			Delimiter:   "/",
			Region:      job.Region,
			Endpoint:    job.Endpoint,
			Profile:     job.Profile,
			ExcludeGlob: job.ExcludeGlob,
			Progress:    "simple",
		}

		outcome, runErr := runDownloadRequest(ctx, req)
		if runErr != nil {
			observability.CLILogger.Error("Batch job failed to run", zap.String("job", name), zap.Error(runErr))
			anyFailures = true
			continue
		}
		if len(outcome.Failures) > 0 {
			anyFailures = true
		}
	}

	if anyFailures {
		os.Exit(cliutil.ExitFailure)
	}
	return nil
}
