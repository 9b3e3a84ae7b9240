package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/mcasconvert/internal/core"
	"github.com/JonMunkholm/mcasconvert/internal/logging"
)

// Options configures a folder run.
type Options struct {
	InputDir    string
	OutputDir   string // Created if missing
	Suffix      string // Appended to each output stem
	Workers     int    // Files converted in parallel; values < 1 mean 1
	FailFast    bool   // Stop scheduling new files after the first failure
	MaxFileSize int64
	Sink        Sink      // Optional
	Ledger      Ledger    // Optional
	Progress    io.Writer // Receives "Processing: <file>" lines; nil discards
}

// Summary is the outcome of a folder run. Files are in input order.
type Summary struct {
	RunID   string
	Files   []FileResult
	Elapsed time.Duration
}

// Succeeded returns the number of files converted.
func (s *Summary) Succeeded() int {
	n := 0
	for _, f := range s.Files {
		if f.Err == nil && !f.Skipped {
			n++
		}
	}
	return n
}

// Failed returns the number of files that failed.
func (s *Summary) Failed() int {
	n := 0
	for _, f := range s.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// SkippedCount returns the number of files skipped by the ledger.
func (s *Summary) SkippedCount() int {
	n := 0
	for _, f := range s.Files {
		if f.Skipped {
			n++
		}
	}
	return n
}

// Err joins every per-file error, or returns nil if all files succeeded.
func (s *Summary) Err() error {
	var errs []error
	for _, f := range s.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(f.Input), f.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner converts every CSV file in a folder. Each file is independent:
// one file failing does not affect the others unless FailFast is set.
type Runner struct {
	pipeline *core.Pipeline
	opts     Options

	progressMu sync.Mutex
}

// NewRunner creates a runner for p.
func NewRunner(p *core.Pipeline, opts Options) (*Runner, error) {
	if p == nil {
		return nil, errors.New("batch: pipeline is required")
	}
	if opts.InputDir == "" || opts.OutputDir == "" {
		return nil, errors.New("batch: input and output directories are required")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Runner{pipeline: p, opts: opts}, nil
}

// ListInputs returns the .csv files directly inside dir, sorted by name.
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run converts all inputs. The returned error is non-nil only when the run
// itself was cut short, by ctx or by FailFast; per-file failures are in the
// Summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, sum.RunID)
	logger := logging.FromContext(ctx)

	inputs, err := ListInputs(r.opts.InputDir)
	if err != nil {
		return sum, err
	}
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("create output directory: %w", err)
	}

	logger.Info("batch started",
		"input_dir", r.opts.InputDir,
		"output_dir", r.opts.OutputDir,
		"files", len(inputs),
		"workers", r.opts.Workers,
	)

	conv := &Converter{
		Pipeline:    r.pipeline,
		MaxFileSize: r.opts.MaxFileSize,
		Sink:        r.opts.Sink,
		Ledger:      r.opts.Ledger,
		RunID:       sum.RunID,
	}

	// Each goroutine owns one slot, so results need no locking.
	sum.Files = make([]FileResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, in := range inputs {
		i, in := i, in
		out := OutputPath(r.opts.OutputDir, in, r.opts.Suffix)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				sum.Files[i] = FileResult{Input: in, Output: out, Err: fmt.Errorf("operation cancelled: %w", err)}
				return nil
			}

			r.progress("Processing: %s\n", filepath.Base(in))
			res := conv.ConvertFile(gctx, in, out)
			sum.Files[i] = res

			if res.Err != nil {
				logging.WithFields(ctx, "file", filepath.Base(in)).Error("file failed",
					"error", res.Err,
					"code", core.MapError(res.Err).Code,
				)
				if r.opts.FailFast {
					return res.Err
				}
				return nil
			}

			r.progress("Finished: %s (%d rows, %s)\n", filepath.Base(in), res.Stats.Output, res.Elapsed.Round(time.Millisecond))
			return nil
		})
	}

	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}
	sum.Elapsed = time.Since(start)

	logger.Info("batch finished",
		"succeeded", sum.Succeeded(),
		"failed", sum.Failed(),
		"skipped", sum.SkippedCount(),
		"elapsed", sum.Elapsed,
	)
	return sum, runErr
}

func (r *Runner) progress(format string, args ...any) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	fmt.Fprintf(r.opts.Progress, format, args...)
}
