package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mcasconvert/internal/batch"
	"github.com/JonMunkholm/mcasconvert/internal/config"
	"github.com/JonMunkholm/mcasconvert/internal/store"
)

type batchOptions struct {
	inputDir  string
	outputDir string
	workers   int
	failFast  bool
	noStore   bool
	subjects  []string
	policy    string
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Convert every CSV file in a folder",
		Long: `Convert every *.csv file in the input folder, writing
<name>_batchprocessed.csv to the output folder (created if missing).

Files are converted independently and in parallel. A failed file is reported
and the rest continue unless --fail-fast is set. When DATABASE_URL is set,
converted rows are also stored and files already stored are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.inputDir, "input-dir", "i", "", "folder to read; overrides BATCH_INPUT_DIR")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "folder to write; overrides BATCH_OUTPUT_DIR")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "files converted in parallel; overrides BATCH_WORKERS")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "stop at the first failed file; overrides BATCH_FAIL_FAST")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "do not write rows to the database even if DATABASE_URL is set")
	addPipelineFlags(cmd, &opts.subjects, &opts.policy)

	return cmd
}

func runBatch(rootOpts *RootOptions, opts *batchOptions, cmd *cobra.Command) error {
	cfg := rootOpts.Config
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p, err := rootOpts.pipeline(opts.subjects, opts.policy)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), err)
	}

	runOpts := batch.Options{
		InputDir:    cfg.Batch.InputDir,
		OutputDir:   cfg.Batch.OutputDir,
		Suffix:      cfg.Batch.OutputSuffix,
		Workers:     cfg.Batch.Workers,
		FailFast:    cfg.Batch.FailFast || opts.failFast,
		MaxFileSize: cfg.Batch.MaxFileSize,
		Progress:    out,
	}
	if opts.inputDir != "" {
		runOpts.InputDir = opts.inputDir
	}
	if opts.outputDir != "" {
		runOpts.OutputDir = opts.outputDir
	}
	if opts.workers > 0 {
		runOpts.Workers = opts.workers
	}

	if cfg.Database.Enabled() && !opts.noStore {
		s, err := openStore(ctx, cfg.Database)
		if err != nil {
			return reportError(cmd.ErrOrStderr(), err)
		}
		defer s.Close()
		runOpts.Sink = s
		runOpts.Ledger = s
	}

	runner, err := batch.NewRunner(p, runOpts)
	if err != nil {
		return err
	}

	sum, runErr := runner.Run(ctx)
	printSummary(out, sum)

	if runErr != nil {
		return reportError(cmd.ErrOrStderr(), runErr)
	}
	if err := sum.Err(); err != nil {
		return fmt.Errorf("%d of %d files failed", sum.Failed(), len(sum.Files))
	}
	return nil
}

// printSummary writes the per-file failures and run totals.
func printSummary(w io.Writer, sum *batch.Summary) {
	if sum == nil {
		return
	}
	if len(sum.Files) == 0 {
		fmt.Fprintln(w, "No CSV files found")
	}
	for _, f := range sum.Files {
		if f.Err != nil {
			fmt.Fprintf(w, "Failed: %s: %v\n", filepath.Base(f.Input), f.Err)
		}
	}
	fmt.Fprintf(w, "Converted %d of %d files (%d skipped, %d failed)\n",
		sum.Succeeded(), len(sum.Files), sum.SkippedCount(), sum.Failed())
	fmt.Fprintf(w, "Run %s elapsed: %s\n", sum.RunID, sum.Elapsed.Round(time.Millisecond))
}

// openStore connects to the database and makes sure the tables exist.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store.Store, error) {
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
