// Package engine evaluates filter rules and data mappings against in-memory
// tables. Every operation takes its tables as arguments and returns new
// tables; inputs are never mutated.
package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Evaluate tests one condition against a row of t. It returns
// types.ErrFieldNotFound when the condition's field is not a column of t and
// types.ErrTypeMismatch when an ordering operator meets an empty value.
func Evaluate(t *types.Table, row types.Row, c types.FilterCondition) (bool, error) {
	if !t.HasColumn(c.Field) {
		return false, fmt.Errorf("%w: %q in table %q", types.ErrFieldNotFound, c.Field, t.Name)
	}
	return Compare(row.Get(c.Field), c.Operator, c.Value)
}

// Compare applies op to a cell value and an operand.
//
// Equality is numeric when both sides are numbers or numeric text, by instant
// for dates, and by string form otherwise. Two empty values are equal.
// Substring operators work on the string form, case sensitive, and never
// match an empty cell. Ordering compares numbers numerically and dates by
// instant; any other pair of non-empty values is compared lexically by string
// form. Ordering against an empty value is a type mismatch.
func Compare(cell types.Value, op types.Operator, operand types.Value) (bool, error) {
	switch op {
	case types.OpIsEmpty:
		return cell.IsEmpty(), nil
	case types.OpIsNotEmpty:
		return !cell.IsEmpty(), nil
	case types.OpEquals:
		return equal(cell, operand), nil
	case types.OpNotEquals:
		return !equal(cell, operand), nil
	case types.OpContains:
		return !cell.IsEmpty() && strings.Contains(cell.String(), operand.String()), nil
	case types.OpNotContains:
		return cell.IsEmpty() || !strings.Contains(cell.String(), operand.String()), nil
	case types.OpStartsWith:
		return !cell.IsEmpty() && strings.HasPrefix(cell.String(), operand.String()), nil
	case types.OpEndsWith:
		return !cell.IsEmpty() && strings.HasSuffix(cell.String(), operand.String()), nil
	case types.OpGreaterThan, types.OpLessThan, types.OpGreaterOrEqual, types.OpLessOrEqual:
		cmp, err := order(cell, operand)
		if err != nil {
			return false, err
		}
		switch op {
		case types.OpGreaterThan:
			return cmp > 0, nil
		case types.OpLessThan:
			return cmp < 0, nil
		case types.OpGreaterOrEqual:
			return cmp >= 0, nil
		default:
			return cmp <= 0, nil
		}
	}
	return false, fmt.Errorf("%w: %q", types.ErrInvalidOperator, op)
}

func equal(a, b types.Value) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() && b.IsEmpty()
	}
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return x == y
		}
	}
	if x, ok := a.Time(); ok {
		if y, ok := asTime(b); ok {
			return x.Equal(y)
		}
	}
	if y, ok := b.Time(); ok {
		if x, ok := asTime(a); ok {
			return x.Equal(y)
		}
	}
	if x, ok := a.Boolean(); ok {
		if y, ok := b.Boolean(); ok {
			return x == y
		}
	}
	return a.String() == b.String()
}

// order returns -1, 0, or 1 comparing a to b.
func order(a, b types.Value) (int, error) {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return cmpFloat(x, y), nil
		}
	}
	if x, ok := asTime(a); ok {
		if y, ok := asTime(b); ok {
			return x.Compare(y), nil
		}
	}
	if a.IsEmpty() || b.IsEmpty() {
		return 0, fmt.Errorf("%w: cannot order %s %q against %s %q",
			types.ErrTypeMismatch, a.Kind(), a.String(), b.Kind(), b.String())
	}
	return strings.Compare(a.String(), b.String()), nil
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// numeric returns the number held by v or parsed from its text.
func numeric(v types.Value) (float64, bool) {
	switch v.Kind() {
	case types.KindNumber:
		n, _ := v.Number()
		return n, !math.IsNaN(n)
	case types.KindString:
		return types.ParseValue(v.String()).Number()
	}
	return 0, false
}

// asTime returns the instant held by v or parsed from its text.
func asTime(v types.Value) (time.Time, bool) {
	switch v.Kind() {
	case types.KindDate:
		return v.Time()
	case types.KindString:
		return types.ParseValue(v.String()).Time()
	}
	return time.Time{}, false
}
