package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// newTable builds a table from positional rows of plain Go values.
func newTable(t *testing.T, name string, columns []string, rows ...[]any) *types.Table {
	t.Helper()
	tbl, err := types.NewTable(name, columns...)
	require.NoError(t, err)
	for _, r := range rows {
		values := make([]types.Value, len(r))
		for i, v := range r {
			values[i] = types.ValueOf(v)
		}
		require.NoError(t, tbl.AppendRow(values...))
	}
	return tbl
}

func cond(t *testing.T, expr string) types.FilterCondition {
	t.Helper()
	c, err := types.ParseCondition(expr)
	require.NoError(t, err)
	return c
}

func rule(t *testing.T, name, source, target string, exprs ...string) types.FilterRule {
	t.Helper()
	conds := make([]types.FilterCondition, len(exprs))
	for i, e := range exprs {
		conds[i] = cond(t, e)
	}
	r, err := types.NewRule(name, source, target, conds...)
	require.NoError(t, err)
	return r
}

func mapping(t *testing.T, spec types.MappingSpec) types.DataMapping {
	t.Helper()
	m, err := types.NewMapping(spec)
	require.NoError(t, err)
	return m
}

// column returns the string forms of one column, in row order.
func column(tbl *types.Table, name string) []string {
	out := make([]string, len(tbl.Rows))
	for i, r := range tbl.Rows {
		out[i] = r.Get(name).String()
	}
	return out
}

func people(t *testing.T) *types.Table {
	return newTable(t, "people", []string{"name", "age", "dept"},
		[]any{"张三", 25, "销售"},
		[]any{"李四", 30, "技术"},
		[]any{"王五", 35, "销售"},
	)
}
