package workbook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Save writes tables to path. An .xlsx file gets one sheet per table in the
// given order; a .csv file holds exactly one table. The file is replaced
// atomically.
func Save(path string, tables ...*types.Table) error {
	if len(tables) == 0 {
		return ErrNoTables
	}
	var write func(io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtXLSX:
		write = func(w io.Writer) error { return writeXLSX(w, tables) }
	case ExtCSV:
		if len(tables) > 1 {
			return fmt.Errorf("%w: %d tables for %s", ErrTooManyTables, len(tables), path)
		}
		write = func(w io.Writer) error { return writeCSV(w, tables[0]) }
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return writeAtomic(path, write)
}

// SaveAll writes every table of a map to path in sorted key order. Sheets
// are named by map key, not by Table.Name.
func SaveAll(path string, tables map[string]*types.Table) error {
	ordered := make([]*types.Table, 0, len(tables))
	for _, name := range SortedNames(tables) {
		t := *tables[name]
		t.Name = name
		ordered = append(ordered, &t)
	}
	return Save(path, ordered...)
}

// writeAtomic writes through a temp file in the target directory, syncs it,
// and renames it over path.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".workbook-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		return fail(fmt.Errorf("writing %s: %w", path, err))
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
