package workbook

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(path, name string) ([]sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	br := bufio.NewReader(file)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var grid [][]types.Value
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}
		row := make([]types.Value, len(record))
		for i, field := range record {
			row[i] = types.ParseValue(field)
		}
		grid = append(grid, row)
	}
	return []sheet{{name: name, cells: grid}}, nil
}

func writeCSV(w io.Writer, t *types.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for r := range t.Rows {
		for j, v := range t.Values(r) {
			record[j] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
