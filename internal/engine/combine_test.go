package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func TestCombineEmptyListMatchesEveryRow(t *testing.T) {
	tbl := newTable(t, "t", []string{"x"}, []any{nil}, []any{"a"}, []any{3})
	for _, row := range tbl.Rows {
		ok, err := Combine(tbl, row, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCombineFoldsLeftToRight(t *testing.T) {
	tbl := newTable(t, "t", []string{"a", "b", "c"})
	for _, a := range []bool{false, true} {
		for _, b := range []bool{false, true} {
			for _, c := range []bool{false, true} {
				require.NoError(t, tbl.AppendRow(types.Bool(a), types.Bool(b), types.Bool(c)))
			}
		}
	}
	conds := []types.FilterCondition{
		cond(t, "a = true"),
		cond(t, "or b = true"),
		cond(t, "and c = true"),
	}

	pred, err := Compile(tbl, conds)
	require.NoError(t, err)
	for _, row := range tbl.Rows {
		a, _ := row.Get("a").Boolean()
		b, _ := row.Get("b").Boolean()
		c, _ := row.Get("c").Boolean()

		got, err := pred(row)
		require.NoError(t, err)
		assert.Equal(t, (a || b) && c, got, "a=%v b=%v c=%v", a, b, c)
	}

	// a=true, b=false, c=false separates the fold from a || (b && c).
	row := types.Row{"a": types.Bool(true), "b": types.Bool(false), "c": types.Bool(false)}
	got, err := pred(row)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCombineLogicOfFirstConditionIgnored(t *testing.T) {
	tbl := people(t)
	conds := []types.FilterCondition{cond(t, "or age > 28")}
	var matched []string
	for _, row := range tbl.Rows {
		ok, err := Combine(tbl, row, conds)
		require.NoError(t, err)
		if ok {
			matched = append(matched, row.Get("name").String())
		}
	}
	assert.Equal(t, []string{"李四", "王五"}, matched)
}

func TestCompileChecksEveryField(t *testing.T) {
	tbl := people(t)
	_, err := Compile(tbl, []types.FilterCondition{
		cond(t, "age < 0"),
		cond(t, "and salary > 100"),
	})
	assert.ErrorIs(t, err, types.ErrFieldNotFound)
}

func TestCombineShortCircuitSkipsUnneededConditions(t *testing.T) {
	tbl := newTable(t, "t", []string{"ok", "score"}, []any{false, nil}, []any{true, nil})
	conds := []types.FilterCondition{
		cond(t, "ok = true"),
		cond(t, "and score > 5"),
	}

	got, err := Combine(tbl, tbl.Rows[0], conds)
	require.NoError(t, err, "AND after a false accumulator is not evaluated")
	assert.False(t, got)

	_, err = Combine(tbl, tbl.Rows[1], conds)
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
}
