package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in      string
		want    Operator
		wantErr bool
	}{
		{in: "equals", want: OpEquals},
		{in: " Greater-Than ", want: OpGreaterThan},
		{in: "=", want: OpEquals},
		{in: "!=", want: OpNotEquals},
		{in: ">=", want: OpGreaterOrEqual},
		{in: "<", want: OpLessThan},
		{in: "大于", want: OpGreaterThan},
		{in: "不包含", want: OpNotContains},
		{in: "开头是", want: OpStartsWith},
		{in: "为空", want: OpIsEmpty},
		{in: "not_contains", want: OpNotContains},
		{in: "like", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOperator(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOperator)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOperatorClasses(t *testing.T) {
	for _, op := range Operators {
		assert.True(t, op.Valid(), op)
	}
	assert.True(t, OpLessOrEqual.IsOrdering())
	assert.False(t, OpEquals.IsOrdering())
	assert.True(t, OpIsNotEmpty.IgnoresValue())
	assert.False(t, OpContains.IgnoresValue())
}

func TestParseLogic(t *testing.T) {
	for in, want := range map[string]Logic{"": LogicAnd, "and": LogicAnd, "OR": LogicOr, "或": LogicOr, "与": LogicAnd} {
		got, err := ParseLogic(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLogic("xor")
	assert.ErrorIs(t, err, ErrInvalidLogic)
}

func TestNewCondition(t *testing.T) {
	c, err := NewCondition("age", OpGreaterThan, 28, "")
	require.NoError(t, err)
	assert.Equal(t, LogicAnd, c.Logic)
	assert.Equal(t, Num(28), c.Value)

	c, err = NewCondition("note", OpIsEmpty, "ignored", LogicOr)
	require.NoError(t, err)
	assert.True(t, c.Value.IsEmpty())
	assert.Equal(t, "note is-empty", c.String())

	_, err = NewCondition(" ", OpEquals, 1, LogicAnd)
	assert.ErrorIs(t, err, ErrInvalidCondition)

	_, err = NewCondition("age", Operator("like"), 1, LogicAnd)
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = NewCondition("age", OpEquals, 1, Logic("XOR"))
	assert.ErrorIs(t, err, ErrInvalidLogic)
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    FilterCondition
		wantErr error
	}{
		{
			name: "numeric comparison",
			expr: "age > 28",
			want: FilterCondition{Field: "age", Operator: OpGreaterThan, Value: Num(28), Logic: LogicAnd},
		},
		{
			name: "leading logic",
			expr: "or dept = 销售",
			want: FilterCondition{Field: "dept", Operator: OpEquals, Value: Str("销售"), Logic: LogicOr},
		},
		{
			name: "quoted value stays a string",
			expr: `code equals "007"`,
			want: FilterCondition{Field: "code", Operator: OpEquals, Value: Str("007"), Logic: LogicAnd},
		},
		{
			name: "multi word value",
			expr: "city contains New York",
			want: FilterCondition{Field: "city", Operator: OpContains, Value: Str("New York"), Logic: LogicAnd},
		},
		{
			name: "emptiness without value",
			expr: "and note is-not-empty",
			want: FilterCondition{Field: "note", Operator: OpIsNotEmpty, Value: Null(), Logic: LogicAnd},
		},
		{
			name: "field named like a logic word",
			expr: "and = 5",
			want: FilterCondition{Field: "and", Operator: OpEquals, Value: Num(5), Logic: LogicAnd},
		},
		{
			name: "field with spaces",
			expr: "Unit Price > 5",
			want: FilterCondition{Field: "Unit Price", Operator: OpGreaterThan, Value: Num(5), Logic: LogicAnd},
		},
		{
			name: "quoted field with spaces",
			expr: `or "Unit Price" >= 5`,
			want: FilterCondition{Field: "Unit Price", Operator: OpGreaterOrEqual, Value: Num(5), Logic: LogicOr},
		},
		{
			name: "quoted field named like an operator",
			expr: `"contains" equals x`,
			want: FilterCondition{Field: "contains", Operator: OpEquals, Value: Str("x"), Logic: LogicAnd},
		},
		{
			name: "field with spaces and emptiness operator",
			expr: "Order Date is-empty",
			want: FilterCondition{Field: "Order Date", Operator: OpIsEmpty, Value: Null(), Logic: LogicAnd},
		},
		{
			name: "value whitespace kept",
			expr: `name equals "John  Smith"`,
			want: FilterCondition{Field: "name", Operator: OpEquals, Value: Str("John  Smith"), Logic: LogicAnd},
		},
		{
			name: "unquoted value whitespace kept",
			expr: "city contains New   York ",
			want: FilterCondition{Field: "city", Operator: OpContains, Value: Str("New   York"), Logic: LogicAnd},
		},
		{name: "empty", expr: "  ", wantErr: ErrInvalidCondition},
		{name: "missing operator", expr: "age", wantErr: ErrInvalidCondition},
		{name: "missing value", expr: "age >", wantErr: ErrInvalidCondition},
		{name: "unknown operator", expr: "age ~ 3", wantErr: ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCondition(tt.expr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionStringRoundTrip(t *testing.T) {
	for _, expr := range []string{"age > 28", `"Unit Price" less-than 5`, "note is-empty"} {
		c, err := ParseCondition(expr)
		require.NoError(t, err)
		again, err := ParseCondition(c.String())
		require.NoError(t, err, c.String())
		assert.Equal(t, c, again)
	}
}
