package engine

import (
	"fmt"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Predicate reports whether a row passes a compiled condition list.
type Predicate func(row types.Row) (bool, error)

// Compile checks that every condition field is a column of t and returns the
// left-to-right fold of conds as a Predicate. The first condition seeds the
// accumulator; each later condition folds in with its own Logic, so
// [c1, c2 OR, c3 AND] is (c1 OR c2) AND c3. An empty list matches every row.
//
// Evaluation short-circuits: a condition whose result cannot change the
// accumulator is not evaluated.
func Compile(t *types.Table, conds []types.FilterCondition) (Predicate, error) {
	for _, c := range conds {
		if !t.HasColumn(c.Field) {
			return nil, fmt.Errorf("%w: %q in table %q", types.ErrFieldNotFound, c.Field, t.Name)
		}
	}
	list := append([]types.FilterCondition(nil), conds...)
	return func(row types.Row) (bool, error) {
		if len(list) == 0 {
			return true, nil
		}
		acc, err := Compare(row.Get(list[0].Field), list[0].Operator, list[0].Value)
		if err != nil {
			return false, err
		}
		for _, c := range list[1:] {
			if c.Logic == types.LogicOr {
				if acc {
					continue
				}
			} else if !acc {
				continue
			}
			ok, err := Compare(row.Get(c.Field), c.Operator, c.Value)
			if err != nil {
				return false, err
			}
			acc = ok
		}
		return acc, nil
	}, nil
}

// Combine evaluates conds against one row of t.
func Combine(t *types.Table, row types.Row, conds []types.FilterCondition) (bool, error) {
	pred, err := Compile(t, conds)
	if err != nil {
		return false, err
	}
	return pred(row)
}
