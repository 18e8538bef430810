package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func TestCompare(t *testing.T) {
	day := types.Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	later := types.Date(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name    string
		cell    types.Value
		op      types.Operator
		operand types.Value
		want    bool
		wantErr error
	}{
		{name: "numbers equal", cell: types.Num(25), op: types.OpEquals, operand: types.Num(25), want: true},
		{name: "numeric text equals number", cell: types.Str("2"), op: types.OpEquals, operand: types.Num(2), want: true},
		{name: "padded numeric text equals number", cell: types.Str("2.0"), op: types.OpEquals, operand: types.Num(2), want: true},
		{name: "strings equal", cell: types.Str("销售"), op: types.OpEquals, operand: types.Str("销售"), want: true},
		{name: "strings differ by case", cell: types.Str("Sales"), op: types.OpEquals, operand: types.Str("sales"), want: false},
		{name: "two empties are equal", cell: types.Null(), op: types.OpEquals, operand: types.Str(""), want: true},
		{name: "empty differs from text", cell: types.Null(), op: types.OpEquals, operand: types.Str("x"), want: false},
		{name: "date equals date text", cell: day, op: types.OpEquals, operand: types.Str("2024-01-15"), want: true},
		{name: "bool falls back to string form", cell: types.Bool(true), op: types.OpEquals, operand: types.Str("true"), want: true},
		{name: "not equals", cell: types.Num(1), op: types.OpNotEquals, operand: types.Num(2), want: true},
		{name: "contains", cell: types.Str("hello world"), op: types.OpContains, operand: types.Str("lo w"), want: true},
		{name: "contains is case sensitive", cell: types.Str("hello"), op: types.OpContains, operand: types.Str("Hell"), want: false},
		{name: "contains on stringified number", cell: types.Num(12345), op: types.OpContains, operand: types.Num(234), want: true},
		{name: "contains never matches empty cell", cell: types.Null(), op: types.OpContains, operand: types.Str(""), want: false},
		{name: "not contains on empty cell", cell: types.Null(), op: types.OpNotContains, operand: types.Str("x"), want: true},
		{name: "not contains", cell: types.Str("abc"), op: types.OpNotContains, operand: types.Str("b"), want: false},
		{name: "starts with", cell: types.Str("INV-001"), op: types.OpStartsWith, operand: types.Str("INV"), want: true},
		{name: "ends with", cell: types.Str("report.xlsx"), op: types.OpEndsWith, operand: types.Str(".csv"), want: false},
		{name: "greater than", cell: types.Num(30), op: types.OpGreaterThan, operand: types.Num(28), want: true},
		{name: "greater than on numeric text", cell: types.Str("30"), op: types.OpGreaterThan, operand: types.Num(28), want: true},
		{name: "less than numeric not lexical", cell: types.Num(9), op: types.OpLessThan, operand: types.Num(10), want: true},
		{name: "lexical strings", cell: types.Str("apple"), op: types.OpLessThan, operand: types.Str("banana"), want: true},
		{name: "dates ordered", cell: later, op: types.OpGreaterOrEqual, operand: day, want: true},
		{name: "date against date text", cell: day, op: types.OpLessOrEqual, operand: types.Str("2024-01-15"), want: true},
		{name: "text against number is lexical", cell: types.Str("abc"), op: types.OpGreaterThan, operand: types.Num(100), want: true},
		{name: "number against text is lexical", cell: types.Num(100), op: types.OpGreaterThan, operand: types.Str("abc"), want: false},
		{name: "date against plain text is lexical", cell: day, op: types.OpLessThan, operand: types.Str("soon"), want: true},
		{name: "bool against text is lexical", cell: types.Bool(true), op: types.OpGreaterThan, operand: types.Str("maybe"), want: true},
		{name: "empty cell ordered", cell: types.Null(), op: types.OpLessThan, operand: types.Num(5), wantErr: types.ErrTypeMismatch},
		{name: "bools ordered by string form", cell: types.Bool(true), op: types.OpGreaterThan, operand: types.Bool(false), want: true},
		{name: "empty operand ordered", cell: types.Num(5), op: types.OpGreaterThan, operand: types.Null(), wantErr: types.ErrTypeMismatch},
		{name: "is empty on blank", cell: types.Str("  "), op: types.OpIsEmpty, want: true},
		{name: "is empty on NaN", cell: types.Num(math.NaN()), op: types.OpIsEmpty, want: true},
		{name: "zero is not empty", cell: types.Num(0), op: types.OpIsNotEmpty, want: true},
		{name: "unknown operator", cell: types.Num(0), op: types.Operator("like"), wantErr: types.ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.cell, tt.op, tt.operand)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateFieldNotFound(t *testing.T) {
	tbl := people(t)
	_, err := Evaluate(tbl, tbl.Rows[0], cond(t, "salary > 10"))
	assert.ErrorIs(t, err, types.ErrFieldNotFound)
}

func TestEvaluateIsDeterministicAndPure(t *testing.T) {
	tbl := people(t)
	before := tbl.Clone()
	c := cond(t, "age > 28")

	for i, row := range tbl.Rows {
		first, err := Evaluate(tbl, row, c)
		require.NoError(t, err)
		for range 5 {
			again, err := Evaluate(tbl, row, c)
			require.NoError(t, err)
			assert.Equal(t, first, again, "row %d", i)
		}
	}
	assert.Equal(t, before, tbl)
}
