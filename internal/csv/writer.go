package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/mcasconvert/internal/core"
)

// Write emits a header row built from columns followed by one row per record.
// Every record must carry exactly the given columns, in order.
func Write(w io.Writer, columns []core.Column, records []core.OrderedRecord) error {
	cw := stdcsv.NewWriter(w)

	if err := cw.Write(core.ColumnNames(columns)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		if len(r.Values) != len(columns) {
			return fmt.Errorf("row %d: has %d values, expected %d", i+1, len(r.Values), len(columns))
		}
		if err := cw.Write(r.Values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path. The file is written to a temporary name
// in the same directory and renamed into place, so a failed run never leaves
// a truncated output behind.
func WriteFile(path string, columns []core.Column, records []core.OrderedRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if err := Write(tmp, columns, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
