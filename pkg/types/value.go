package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which scalar a Value holds.
type Kind uint8

// Value kinds. KindEmpty is the zero value.
const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

var kindNames = map[Kind]string{
	KindEmpty:  "empty",
	KindString: "string",
	KindNumber: "number",
	KindBool:   "bool",
	KindDate:   "date",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func parseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindEmpty, fmt.Errorf("%w: unknown value kind %q", ErrInvalidData, s)
}

// Date layouts recognized by ParseValue, most specific first.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var dateLayouts = []string{time.RFC3339, dateTimeLayout, "2006-01-02T15:04:05", dateLayout, "2006/01/02"}

// Value is a typed cell scalar: string, number, boolean, date, or empty.
// The zero Value is empty.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
}

// Null returns the empty value.
func Null() Value { return Value{} }

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Num returns a number value.
func Num(n float64) Value { return Value{kind: KindNumber, n: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a date value. The monotonic clock reading is stripped so that
// equal instants compare equal.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t.Round(0)} }

// ValueOf converts a Go scalar into a Value. Unknown types are stored as
// their fmt.Sprint form.
func ValueOf(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case string:
		return Str(v)
	case bool:
		return Bool(v)
	case int:
		return Num(float64(v))
	case int32:
		return Num(float64(v))
	case int64:
		return Num(float64(v))
	case float32:
		return Num(float64(v))
	case float64:
		return Num(v)
	case time.Time:
		return Date(v)
	default:
		return Str(fmt.Sprint(v))
	}
}

// ParseValue infers a Value from cell text. Blank text is empty; numbers,
// true/false, and ISO dates are typed; anything else is a string.
func ParseValue(text string) Value {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Null()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return Num(n)
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Date(t)
		}
	}
	return Str(text)
}

// Kind reports the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric payload when v is a number.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// Boolean returns the boolean payload when v is a bool.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Time returns the date payload when v is a date.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// IsEmpty is true for the empty value, blank strings, and NaN.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindEmpty:
		return true
	case KindString:
		return strings.TrimSpace(v.s) == ""
	case KindNumber:
		return math.IsNaN(v.n)
	default:
		return false
	}
}

// String returns the canonical text form used for string comparisons.
// Integral numbers print without a fractional part.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return formatNumber(v.n)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format(dateLayout)
		}
		return v.t.Format(dateTimeLayout)
	default:
		return ""
	}
}

// Any returns v as a plain Go value (nil, string, float64, bool, time.Time).
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.n
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	default:
		return nil
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// valueJSON is the wire form of a Value.
type valueJSON struct {
	Kind string          `json:"kind"`
	V    json.RawMessage `json:"v,omitempty"`
}

// MarshalJSON encodes v as {"kind": ..., "v": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Kind: v.kind.String()}
	var (
		raw []byte
		err error
	)
	switch v.kind {
	case KindString:
		raw, err = json.Marshal(v.s)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			raw, err = json.Marshal(formatNumber(v.n))
		} else {
			raw, err = json.Marshal(v.n)
		}
	case KindBool:
		raw, err = json.Marshal(v.b)
	case KindDate:
		raw, err = json.Marshal(v.t.Format(time.RFC3339Nano))
	}
	if err != nil {
		return nil, err
	}
	out.V = raw
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON. A bare JSON scalar
// is also accepted and converted with ValueOf.
func (v *Value) UnmarshalJSON(data []byte) error {
	var wire valueJSON
	if err := json.Unmarshal(data, &wire); err != nil || wire.Kind == "" {
		var bare any
		if err := json.Unmarshal(data, &bare); err != nil {
			return fmt.Errorf("decoding value: %w", err)
		}
		*v = ValueOf(bare)
		return nil
	}
	kind, err := parseKind(wire.Kind)
	if err != nil {
		return err
	}
	switch kind {
	case KindEmpty:
		*v = Null()
	case KindString:
		var s string
		if err := json.Unmarshal(wire.V, &s); err != nil {
			return fmt.Errorf("decoding string value: %w", err)
		}
		*v = Str(s)
	case KindNumber:
		var n float64
		if err := json.Unmarshal(wire.V, &n); err != nil {
			var s string
			if json.Unmarshal(wire.V, &s) != nil {
				return fmt.Errorf("decoding number value: %w", err)
			}
			if n, err = strconv.ParseFloat(s, 64); err != nil {
				return fmt.Errorf("decoding number value: %w", err)
			}
		}
		*v = Num(n)
	case KindBool:
		var b bool
		if err := json.Unmarshal(wire.V, &b); err != nil {
			return fmt.Errorf("decoding bool value: %w", err)
		}
		*v = Bool(b)
	case KindDate:
		var s string
		if err := json.Unmarshal(wire.V, &s); err != nil {
			return fmt.Errorf("decoding date value: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("decoding date value: %w", err)
		}
		*v = Date(t)
	}
	return nil
}
