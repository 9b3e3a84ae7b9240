// Package csv reads wide MCAS exports into core.InputRecords and writes
// projected canonical rows back out.
//
// Reading is tolerant of the usual spreadsheet artifacts: a UTF-8 BOM is
// stripped, invalid UTF-8 is replaced with U+FFFD, a few preamble lines may
// precede the header, and columns the pipeline does not need are ignored.
package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/mcasconvert/internal/core"
)

// MaxHeaderSearchRows is the maximum number of rows to scan for the header.
var MaxHeaderSearchRows = 20

// ReadOptions controls how an export is read.
type ReadOptions struct {
	Required []string       // Input columns that must be present
	Subjects []core.Subject // Subjects whose score columns are copied into records
	MaxSize  int64          // Maximum bytes to read; 0 means unlimited
}

// OptionsFor returns ReadOptions matching a pipeline configuration.
func OptionsFor(cfg core.Config, maxSize int64) ReadOptions {
	return ReadOptions{
		Required: cfg.InputColumns(),
		Subjects: cfg.Subjects(),
		MaxSize:  maxSize,
	}
}

// Table is the result of reading one export.
type Table struct {
	Records    []core.InputRecord
	HeaderLine int   // 1-based record number of the header row
	Skipped    int   // Fully empty data rows that were skipped
	BytesRead  int64 // Bytes consumed from the source, before decoding
}

// Read parses an export from r.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	counter := NewCountingReader(r, opts.MaxSize)
	decoded := transform.NewReader(counter, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := stdcsv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if counter.Exceeded() {
		return nil, fmt.Errorf("%w: more than %d bytes", core.ErrFileTooLarge, opts.MaxSize)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, core.ErrEmptyFile
	}

	headerPos, idx, err := findHeader(rows, opts.Required)
	if err != nil {
		return nil, err
	}

	t := &Table{
		HeaderLine: headerPos + 1,
		BytesRead:  counter.BytesRead,
		Records:    make([]core.InputRecord, 0, len(rows)-headerPos-1),
	}
	for _, row := range rows[headerPos+1:] {
		if core.IsEmptyRow(row) {
			t.Skipped++
			continue
		}
		t.Records = append(t.Records, core.BuildInputRecord(row, idx, opts.Subjects))
	}
	return t, nil
}

// ReadFile opens path and parses it with Read. Files larger than
// opts.MaxSize are rejected before any parsing.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if opts.MaxSize > 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		if info.Size() > opts.MaxSize {
			return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, info.Size(), opts.MaxSize)
		}
	}

	return Read(f, opts)
}

// findHeader locates the first row, within MaxHeaderSearchRows, that carries
// every required column. A row that names the identity column but lacks other
// columns is reported as a *core.MissingColumnError, since it is clearly the
// header of an incomplete export.
func findHeader(rows [][]string, required []string) (int, core.HeaderIndex, error) {
	maxRows := min(MaxHeaderSearchRows, len(rows))

	var partial error
	for i := 0; i < maxRows; i++ {
		idx, err := core.ValidateHeaders(rows[i], required)
		if err == nil {
			return i, idx, nil
		}
		var colErr *core.MissingColumnError
		if partial == nil && errors.As(err, &colErr) && namesIdentity(rows[i]) {
			partial = err
		}
	}

	if partial != nil {
		return -1, nil, partial
	}
	return -1, nil, fmt.Errorf("%w in first %d rows", core.ErrHeaderNotFound, maxRows)
}

func namesIdentity(row []string) bool {
	for _, h := range row {
		if strings.EqualFold(core.CleanCell(h), core.IdentityColumn) {
			return true
		}
	}
	return false
}
