package types

import (
	"fmt"
	"strings"
)

// Row maps column names to cell values. A column missing from the map reads
// as the empty value.
type Row map[string]Value

// Get returns the value for col, or the empty value.
func (r Row) Get(col string) Value {
	return r[col]
}

// Clone returns a copy of r that shares no storage with it.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of uniquely named columns and an ordered set of
// rows. Row order is the source file order.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates an empty table. Returns ErrDuplicateColumn if a column
// name repeats.
func NewTable(name string, columns ...string) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = true
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the 0-based position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddColumn appends a column if it is not already present. Existing rows
// read the new column as empty.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// AppendRow appends a row given positionally in column order.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowWidth, len(values), len(t.Columns))
	}
	row := make(Row, len(values))
	for i, v := range values {
		row[t.Columns[i]] = v
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AppendMap appends a row given by column name. Every key must be a column.
func (t *Table) AppendMap(r Row) error {
	for k := range r {
		if !t.HasColumn(k) {
			return fmt.Errorf("%w: %q in table %q", ErrFieldNotFound, k, t.Name)
		}
	}
	t.Rows = append(t.Rows, r.Clone())
	return nil
}

// Cell returns the value at row i, column col.
func (t *Table) Cell(i int, col string) Value {
	if i < 0 || i >= len(t.Rows) {
		return Null()
	}
	return t.Rows[i].Get(col)
}

// Values returns the row's cells in column order.
func (t *Table) Values(i int) []Value {
	out := make([]Value, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = t.Cell(i, c)
	}
	return out
}

// Clone returns a deep copy of t. Mutating the copy never affects t.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: make([]string, len(t.Columns)),
		Rows:    make([]Row, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// UniqueColumns trims header names, names blank headers Column_<i>, and
// suffixes repeats as name_1, name_2, and so on.
func UniqueColumns(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	taken := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Column_%d", i)
		}
		base := name
		for taken[name] {
			seen[base]++
			name = fmt.Sprintf("%s_%d", base, seen[base])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
