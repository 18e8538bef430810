package workbook

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

func readXLSX(path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []sheet
	for _, name := range f.GetSheetList() {
		raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		formatted, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		grid := make([][]types.Value, len(raw))
		for i, r := range raw {
			grid[i] = make([]types.Value, len(r))
			for j, cell := range r {
				grid[i][j] = xlsxValue(cell, textAt(formatted, i, j))
			}
		}
		out = append(out, sheet{name: name, cells: grid})
	}
	return out, nil
}

func textAt(rows [][]string, i, j int) string {
	if i < len(rows) && j < len(rows[i]) {
		return rows[i][j]
	}
	return ""
}

// xlsxValue types a cell from its stored value. Booleans are stored as 1 or
// 0 and dates as serial numbers, so the displayed text decides those kinds.
func xlsxValue(raw, display string) types.Value {
	v := types.ParseValue(raw)
	n, ok := v.Number()
	if !ok || display == "" || display == raw {
		return v
	}
	if shown := types.ParseValue(display); shown.Kind() == types.KindBool && (raw == "1" || raw == "0") {
		return shown
	}
	if types.ParseValue(strings.ReplaceAll(display, ",", "")).Kind() == types.KindNumber {
		return v
	}
	if looksLikeDate(display) {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return types.Date(t)
		}
	}
	return v
}

// looksLikeDate reports whether s has digits and a date or time separator.
func looksLikeDate(s string) bool {
	digits, seps := false, false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits = true
		case strings.ContainsRune("/-:.年月日", r):
			seps = true
		}
	}
	return digits && seps
}

// writeXLSX writes one sheet per table in the given order.
func writeXLSX(w io.Writer, tables []*types.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(tables))
	for i, t := range tables {
		name := sheetName(t.Name, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("naming sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", name, err)
		}

		header := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			header[j] = c
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("writing header of %q: %w", name, err)
		}
		for r := range t.Rows {
			values := t.Values(r)
			row := make([]any, len(values))
			for j, v := range values {
				row[j] = v.Any()
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("writing row %d of %q: %w", r+1, name, err)
			}
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// sheetName makes s a valid, unused Excel sheet name.
func sheetName(s string, used map[string]bool) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	if s == "" {
		s = "Sheet"
	}
	name := truncate(s, maxSheetName)
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		name = truncate(s, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
