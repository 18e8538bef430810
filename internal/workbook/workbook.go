// Package workbook reads spreadsheet files into tables and writes tables
// back out. It supports .xlsx workbooks and .csv files.
//
// A workbook with one non-empty sheet yields a table named after the file
// stem; a workbook with several yields one table per sheet named
// <stem>_<sheet>. A CSV file yields one table named after its stem. The
// first non-empty row of a sheet is its header. Fully empty rows and columns
// are dropped, headers are trimmed and made unique, and cells are typed with
// types.ParseValue.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Limits applied by NewLoader.
const (
	DefaultMaxFileSize  = 50 << 20
	DefaultMaxFileCount = 20
	DefaultMaxRows      = 1_000_000
)

// Supported file extensions.
const (
	ExtXLSX = ".xlsx"
	ExtCSV  = ".csv"
)

// Workbook errors.
var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrDuplicateTable    = errors.New("duplicate table name")
	ErrTooManyTables     = errors.New("format holds a single table")
	ErrNoTables          = errors.New("no tables to write")
)

// Loader reads spreadsheet files within size limits.
type Loader struct {
	MaxFileSize  int64
	MaxFileCount int
	MaxRows      int // rows beyond this are dropped with a warning

	logger *zap.Logger
}

// NewLoader returns a Loader with the default limits. A nil logger discards
// logs.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		MaxFileSize:  DefaultMaxFileSize,
		MaxFileCount: DefaultMaxFileCount,
		MaxRows:      DefaultMaxRows,
		logger:       logger.Named("workbook"),
	}
}

// Load reads one file and returns its tables keyed by name.
func (l *Loader) Load(path string) (map[string]*types.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if l.MaxFileSize > 0 && info.Size() > l.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), l.MaxFileSize)
	}

	stem := Stem(path)
	var sheets []sheet
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtXLSX:
		sheets, err = readXLSX(path)
	case ExtCSV:
		sheets, err = readCSV(path, stem)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var nonEmpty []sheet
	for _, s := range sheets {
		if s.hasHeader() {
			nonEmpty = append(nonEmpty, s)
		}
	}
	out := make(map[string]*types.Table, len(nonEmpty))
	for _, s := range nonEmpty {
		name := stem
		if len(nonEmpty) > 1 {
			name = stem + "_" + s.name
		}
		t, err := l.toTable(name, s.cells)
		if err != nil {
			return nil, fmt.Errorf("reading %s sheet %q: %w", path, s.name, err)
		}
		out[name] = t
		l.logger.Info("table loaded",
			zap.String("path", path),
			zap.String("table", name),
			zap.Int("rows", t.Len()),
			zap.Int("columns", len(t.Columns)))
	}
	if len(out) == 0 {
		l.logger.Warn("file has no data", zap.String("path", path))
	}
	return out, nil
}

// LoadFiles loads every path and merges the tables. Two files producing the
// same table name is an error.
func (l *Loader) LoadFiles(paths []string) (map[string]*types.Table, error) {
	if l.MaxFileCount > 0 && len(paths) > l.MaxFileCount {
		return nil, fmt.Errorf("%w: %d given, limit %d", ErrTooManyFiles, len(paths), l.MaxFileCount)
	}
	out := make(map[string]*types.Table)
	for _, p := range paths {
		tables, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		for name, t := range tables {
			if _, dup := out[name]; dup {
				return nil, fmt.Errorf("%w: %q from %s", ErrDuplicateTable, name, p)
			}
			out[name] = t
		}
	}
	return out, nil
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SortedNames returns the table names in sorted order.
func SortedNames(tables map[string]*types.Table) []string {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// sheet is the raw grid of one sheet before cleaning.
type sheet struct {
	name  string
	cells [][]types.Value
}

func (s sheet) hasHeader() bool {
	for _, row := range s.cells {
		if !emptyRow(row) {
			return true
		}
	}
	return false
}

// toTable drops empty rows and columns, takes the first row as the header,
// and builds the table.
func (l *Loader) toTable(name string, grid [][]types.Value) (*types.Table, error) {
	var rows [][]types.Value
	width := 0
	for _, r := range grid {
		if emptyRow(r) {
			continue
		}
		rows = append(rows, r)
		width = max(width, len(r))
	}
	if len(rows) == 0 {
		return types.NewTable(name)
	}

	var keep []int
	for c := range width {
		for _, r := range rows {
			if c < len(r) && !r[c].IsEmpty() {
				keep = append(keep, c)
				break
			}
		}
	}

	headers := make([]string, len(keep))
	for i, c := range keep {
		headers[i] = cellAt(rows[0], c).String()
	}
	t, err := types.NewTable(name, types.UniqueColumns(headers)...)
	if err != nil {
		return nil, err
	}

	data := rows[1:]
	if l.MaxRows > 0 && len(data) > l.MaxRows {
		l.logger.Warn("row limit reached, rows dropped",
			zap.String("table", name),
			zap.Int("rows", len(data)),
			zap.Int("limit", l.MaxRows))
		data = data[:l.MaxRows]
	}
	for _, r := range data {
		values := make([]types.Value, len(keep))
		for i, c := range keep {
			values[i] = cellAt(r, c)
		}
		if err := t.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func cellAt(r []types.Value, c int) types.Value {
	if c < len(r) {
		return r[c]
	}
	return types.Null()
}

func emptyRow(r []types.Value) bool {
	for _, v := range r {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}
