package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func TestFillTemplate(t *testing.T) {
	tmpl := newTable(t, "template", []string{"older", "sales", "notes"}, []any{"stale", "stale", "keep?"})
	p, err := types.NewPlan("p", "")
	require.NoError(t, err)
	require.NoError(t, p.AddRule(rule(t, "r-older", "people", "older", "age > 28")))
	require.NoError(t, p.AddRule(rule(t, "sales", "people", "", "dept = 销售")))
	require.NoError(t, p.AddRule(rule(t, "unused", "people", "elsewhere", "age > 1")))

	results, _, err := NewRunner().Run(context.Background(), map[string]*types.Table{"people": people(t)}, p)
	require.NoError(t, err)

	cols := TemplateColumns(p, results)
	assert.Len(t, cols["older"], 2)
	assert.Len(t, cols["elsewhere"], 3)

	out := FillTemplate(tmpl, cols)
	assert.Equal(t, []string{"older", "sales", "notes"}, out.Columns)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"30", "35"}, column(out, "older"))
	assert.Equal(t, []string{"张三", "王五"}, column(out, "sales"))
	assert.Equal(t, []string{"", ""}, column(out, "notes"))
	assert.Equal(t, []string{"stale"}, column(tmpl, "older"), "template is not modified")
}

func TestFillTemplateNoMatchingColumns(t *testing.T) {
	tmpl := newTable(t, "template", []string{"a"}, []any{"x"})
	out := FillTemplate(tmpl, map[string][]types.Value{"b": {types.Num(1)}})
	assert.Equal(t, []string{"a"}, out.Columns)
	assert.Zero(t, out.Len())
}
