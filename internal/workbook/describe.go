package workbook

import "github.com/mesh-intelligence/sheetplan/pkg/types"

// Column types reported by Describe.
const (
	TypeString   = "string"
	TypeNumber   = "number"
	TypeDatetime = "datetime"
	TypeBoolean  = "boolean"
)

// sampleSize is how many non-empty cells Describe inspects per column.
const sampleSize = 10

// ColumnInfo summarizes one column.
type ColumnInfo struct {
	Name     string `json:"name"`
	Letter   string `json:"letter"`
	Type     string `json:"type"`
	NonEmpty int    `json:"non_empty"`
	Sample   string `json:"sample,omitempty"`
}

// TableInfo summarizes one table.
type TableInfo struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// Describe infers a type for each column from its first non-empty cells. A
// column is a number or datetime column when more than 80% of the sample
// has that kind, boolean when all of it does, and string otherwise.
func Describe(t *types.Table) TableInfo {
	info := TableInfo{Name: t.Name, Rows: t.Len(), Columns: make([]ColumnInfo, len(t.Columns))}
	for i, col := range t.Columns {
		ci := ColumnInfo{Name: col, Letter: types.IndexToColumnLetter(i), Type: TypeString}
		kinds := make(map[types.Kind]int)
		sampled := 0
		for r := range t.Rows {
			v := t.Cell(r, col)
			if v.IsEmpty() {
				continue
			}
			ci.NonEmpty++
			if ci.Sample == "" {
				ci.Sample = v.String()
			}
			if sampled < sampleSize {
				kinds[v.Kind()]++
				sampled++
			}
		}
		if sampled > 0 {
			switch {
			case kinds[types.KindBool] == sampled:
				ci.Type = TypeBoolean
			case float64(kinds[types.KindDate])/float64(sampled) > 0.8:
				ci.Type = TypeDatetime
			case float64(kinds[types.KindNumber])/float64(sampled) > 0.8:
				ci.Type = TypeNumber
			}
		}
		info.Columns[i] = ci
	}
	return info
}
