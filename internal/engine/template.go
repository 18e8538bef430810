package engine

import (
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// TemplateColumns collects, for every rule with a result, the non-empty
// values to place under one template column. The column is the rule's target
// column, or its name when it has none. Values come from the target column of
// the result, or from its first column.
func TemplateColumns(plan *types.FilterPlan, results types.ResultSet) map[string][]types.Value {
	out := make(map[string][]types.Value)
	for _, rule := range plan.Rules {
		res, ok := results[rule.Name]
		if !ok || len(res.Columns) == 0 {
			continue
		}
		key := rule.TargetColumn
		if key == "" {
			key = rule.Name
		}
		col := res.Columns[0]
		if rule.TargetColumn != "" && res.HasColumn(rule.TargetColumn) {
			col = rule.TargetColumn
		}
		var values []types.Value
		for _, row := range res.Rows {
			if v := row.Get(col); !v.IsEmpty() {
				values = append(values, v)
			}
		}
		out[key] = values
	}
	return out
}

// FillTemplate returns a copy of template with its data rows replaced: each
// template column named in columns is filled top-down with its values, and
// the table grows to the longest such column. Columns not named stay empty.
// template is not modified.
func FillTemplate(template *types.Table, columns map[string][]types.Value) *types.Table {
	out := &types.Table{
		Name:    template.Name,
		Columns: append([]string(nil), template.Columns...),
	}
	n := 0
	for name, values := range columns {
		if out.HasColumn(name) && len(values) > n {
			n = len(values)
		}
	}
	out.Rows = make([]types.Row, n)
	for i := range out.Rows {
		out.Rows[i] = make(types.Row, len(out.Columns))
	}
	for name, values := range columns {
		if !out.HasColumn(name) {
			continue
		}
		for i, v := range values {
			out.Rows[i][name] = v
		}
	}
	return out
}
