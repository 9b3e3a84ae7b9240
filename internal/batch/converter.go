// Package batch converts MCAS export files on disk: one file at a time with
// Converter, or a whole folder in parallel with Runner.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/mcasconvert/internal/core"
	"github.com/JonMunkholm/mcasconvert/internal/csv"
	"github.com/JonMunkholm/mcasconvert/internal/logging"
)

// Output is one converted file handed to a Sink.
type Output struct {
	RunID    string
	Source   string // Base name of the input file
	Checksum string // Hex SHA-256 of the input bytes
	Columns  []core.Column
	Rows     []core.OrderedRecord
}

// Sink receives converted rows in addition to the output file.
type Sink interface {
	Store(ctx context.Context, out Output) (int64, error)
}

// Ledger reports whether an input with the given checksum was already
// converted, so repeated runs over the same folder skip it.
type Ledger interface {
	Processed(ctx context.Context, checksum string) (bool, error)
}

// FileResult describes the outcome for a single input file.
type FileResult struct {
	Input   string
	Output  string
	Stats   core.RunStats
	Stored  int64 // Rows accepted by the sink
	Skipped bool  // Already converted according to the ledger
	Elapsed time.Duration
	Err     error
}

// Converter runs the pipeline over one input file and writes one output file.
type Converter struct {
	Pipeline    *core.Pipeline
	MaxFileSize int64  // 0 means unlimited
	Sink        Sink   // Optional
	Ledger      Ledger // Optional
	RunID       string
}

// OutputPath returns <dir>/<stem><suffix>.csv for input.
func OutputPath(dir, input, suffix string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+suffix+".csv")
}

/* ----------------------------------------
	Convert a single file
---------------------------------------- */

// ConvertFile reads input, runs the pipeline, and writes output.
// A failure at any step leaves no output file behind: the write is atomic,
// and the written file is removed again if storing its rows fails.
func (c *Converter) ConvertFile(ctx context.Context, input, output string) FileResult {
	start := time.Now()
	res := FileResult{Input: input, Output: output}
	res.Err = c.convert(ctx, &res)
	res.Elapsed = time.Since(start)
	return res
}

func (c *Converter) convert(ctx context.Context, res *FileResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("operation cancelled: %w", err)
	}

	logger := logging.WithFields(ctx, "file", filepath.Base(res.Input))

	// 1. Skip already-converted files
	var checksum string
	if c.Sink != nil || c.Ledger != nil {
		sum, err := fileChecksum(res.Input)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", filepath.Base(res.Input), err)
		}
		checksum = sum
	}
	if c.Ledger != nil {
		done, err := c.Ledger.Processed(ctx, checksum)
		if err != nil {
			return fmt.Errorf("ledger check failed: %w", err)
		}
		if done {
			logger.Info("file already converted, skipping", "checksum", checksum)
			res.Skipped = true
			return nil
		}
	}

	// 2. Read
	cfg := c.Pipeline.Config()
	tbl, err := csv.ReadFile(res.Input, csv.OptionsFor(cfg, c.MaxFileSize))
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(res.Input), err)
	}

	// 3. Transform
	rows, stats, err := c.Pipeline.RunWithStats(tbl.Records)
	res.Stats = stats
	if err != nil {
		return fmt.Errorf("convert %s: %w", filepath.Base(res.Input), err)
	}

	// 4. Write
	if err := csv.WriteFile(res.Output, cfg.Columns(), rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(res.Output), err)
	}

	// 5. Store
	if c.Sink != nil {
		n, err := c.Sink.Store(ctx, Output{
			RunID:    c.RunID,
			Source:   filepath.Base(res.Input),
			Checksum: checksum,
			Columns:  cfg.Columns(),
			Rows:     rows,
		})
		if err != nil {
			if rmErr := os.Remove(res.Output); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Warn("could not remove output after store failure", "output", res.Output, "error", rmErr)
			}
			return fmt.Errorf("store %s: %w", filepath.Base(res.Input), err)
		}
		res.Stored = n
	}

	logger.Debug("file converted",
		"input_rows", stats.InputRows,
		"dropped", stats.Dropped,
		"output_rows", stats.Output,
		"skipped_empty", tbl.Skipped,
	)
	return nil
}

// fileChecksum returns the hex SHA-256 of the file at path.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
