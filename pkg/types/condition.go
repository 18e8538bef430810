package types

import (
	"fmt"
	"strings"
)

// Operator is a condition comparison operator.
type Operator string

// Supported operators.
const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not-equals"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not-contains"
	OpStartsWith     Operator = "starts-with"
	OpEndsWith       Operator = "ends-with"
	OpGreaterThan    Operator = "greater-than"
	OpLessThan       Operator = "less-than"
	OpGreaterOrEqual Operator = "greater-or-equal"
	OpLessOrEqual    Operator = "less-or-equal"
	OpIsEmpty        Operator = "is-empty"
	OpIsNotEmpty     Operator = "is-not-empty"
)

// Operators lists every operator in display order.
var Operators = []Operator{
	OpEquals, OpNotEquals,
	OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual,
	OpContains, OpNotContains, OpStartsWith, OpEndsWith,
	OpIsEmpty, OpIsNotEmpty,
}

// operatorAliases maps symbolic and legacy UI spellings to operators.
var operatorAliases = map[string]Operator{
	"=":            OpEquals,
	"==":           OpEquals,
	"eq":           OpEquals,
	"等于":           OpEquals,
	"!=":           OpNotEquals,
	"<>":           OpNotEquals,
	"ne":           OpNotEquals,
	"不等于":          OpNotEquals,
	">":            OpGreaterThan,
	"gt":           OpGreaterThan,
	"大于":           OpGreaterThan,
	">=":           OpGreaterOrEqual,
	"ge":           OpGreaterOrEqual,
	"大于等于":         OpGreaterOrEqual,
	"<":            OpLessThan,
	"lt":           OpLessThan,
	"小于":           OpLessThan,
	"<=":           OpLessOrEqual,
	"le":           OpLessOrEqual,
	"小于等于":         OpLessOrEqual,
	"not_contains": OpNotContains,
	"包含":           OpContains,
	"不包含":          OpNotContains,
	"startswith":   OpStartsWith,
	"开头是":          OpStartsWith,
	"endswith":     OpEndsWith,
	"结尾是":          OpEndsWith,
	"is_null":      OpIsEmpty,
	"为空":           OpIsEmpty,
	"is_not_null":  OpIsNotEmpty,
	"不为空":          OpIsNotEmpty,
}

// ParseOperator accepts canonical names, symbols, and legacy labels.
func ParseOperator(s string) (Operator, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	op := Operator(key)
	if op.Valid() {
		return op, nil
	}
	if alias, ok := operatorAliases[key]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	for _, known := range Operators {
		if o == known {
			return true
		}
	}
	return false
}

// IsOrdering reports whether o is one of >, <, >=, <=.
func (o Operator) IsOrdering() bool {
	switch o {
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		return true
	}
	return false
}

// IgnoresValue reports whether o tests emptiness and ignores the operand.
func (o Operator) IgnoresValue() bool {
	return o == OpIsEmpty || o == OpIsNotEmpty
}

// Logic joins a condition to the result of the conditions before it.
type Logic string

// Logic operators.
const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// ParseLogic accepts AND/OR in any case plus the legacy labels. Blank means AND.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND", "&&", "与":
		return LogicAnd, nil
	case "OR", "||", "或":
		return LogicOr, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLogic, s)
}

// FilterCondition tests one field of a row. Logic is ignored on the first
// condition of a rule.
type FilterCondition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
	Logic    Logic    `json:"logic"`
}

// NewCondition builds a validated condition. value is converted with
// ValueOf; it is dropped for the emptiness operators.
func NewCondition(field string, op Operator, value any, logic Logic) (FilterCondition, error) {
	if logic == "" {
		logic = LogicAnd
	}
	c := FilterCondition{
		Field:    strings.TrimSpace(field),
		Operator: op,
		Value:    ValueOf(value),
		Logic:    logic,
	}
	if op.IgnoresValue() {
		c.Value = Null()
	}
	if err := c.Validate(); err != nil {
		return FilterCondition{}, err
	}
	return c, nil
}

// Validate checks field, operator, and logic.
func (c FilterCondition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("%w: condition field must not be empty", ErrInvalidCondition)
	}
	if !c.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperator, c.Operator)
	}
	if c.Logic != LogicAnd && c.Logic != LogicOr {
		return fmt.Errorf("%w: %q", ErrInvalidLogic, c.Logic)
	}
	return nil
}

// String renders c in the form accepted by ParseCondition.
func (c FilterCondition) String() string {
	field := c.Field
	if strings.ContainsAny(field, " \t\"") {
		field = `"` + field + `"`
	}
	s := field + " " + string(c.Operator)
	if !c.Operator.IgnoresValue() {
		s += " " + c.Value.String()
	}
	return s
}

// token is a word of a condition expression and its byte span in the input.
type token struct {
	text       string
	start, end int
	quoted     bool
}

// tokenize splits expr on whitespace. A token opening with a double quote
// runs to the closing quote and may contain spaces.
func tokenize(expr string) []token {
	var out []token
	i := 0
	for i < len(expr) {
		if isSpace(expr[i]) {
			i++
			continue
		}
		start := i
		if expr[i] == '"' {
			if j := strings.IndexByte(expr[i+1:], '"'); j >= 0 {
				end := i + j + 2
				out = append(out, token{text: expr[i+1 : end-1], start: start, end: end, quoted: true})
				i = end
				continue
			}
		}
		for i < len(expr) && !isSpace(expr[i]) {
			i++
		}
		out = append(out, token{text: expr[start:i], start: start, end: i})
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ParseCondition parses "[and|or] <field> <operator> [value]". The field is
// every word before the first operator, or a double-quoted name. The value
// is the rest of the line verbatim, typed with ParseValue; quote it with
// double quotes to keep it a string.
func ParseCondition(expr string) (FilterCondition, error) {
	tokens := tokenize(expr)
	if len(tokens) == 0 {
		return FilterCondition{}, fmt.Errorf("%w: empty expression", ErrInvalidCondition)
	}
	logic := LogicAnd
	if !tokens[0].quoted && len(tokens) > 2 {
		if l, err := ParseLogic(tokens[0].text); err == nil {
			if _, opErr := ParseOperator(tokens[1].text); opErr != nil || tokens[1].quoted {
				logic = l
				tokens = tokens[1:]
			}
		}
	}
	if len(tokens) < 2 {
		return FilterCondition{}, fmt.Errorf("%w: expected <field> <operator> [value] in %q", ErrInvalidCondition, expr)
	}

	field, opAt := tokens[0].text, 1
	if !tokens[0].quoted {
		opAt = -1
		for i := 1; i < len(tokens); i++ {
			if _, err := ParseOperator(tokens[i].text); err == nil && !tokens[i].quoted {
				opAt = i
				break
			}
		}
		if opAt < 0 {
			if _, err := ParseOperator(tokens[1].text); err != nil && !tokens[1].quoted {
				return FilterCondition{}, err
			}
			return FilterCondition{}, fmt.Errorf("%w: no operator in %q", ErrInvalidCondition, expr)
		}
		field = expr[tokens[0].start:tokens[opAt-1].end]
	}
	op, err := ParseOperator(tokens[opAt].text)
	if err != nil {
		return FilterCondition{}, err
	}

	var value Value
	if !op.IgnoresValue() {
		raw := strings.TrimSpace(expr[tokens[opAt].end:])
		if raw == "" {
			return FilterCondition{}, fmt.Errorf("%w: operator %s needs a value in %q", ErrInvalidCondition, op, expr)
		}
		if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
			value = Str(raw[1 : len(raw)-1])
		} else {
			value = ParseValue(raw)
		}
	}
	return NewCondition(field, op, value, logic)
}
