package types

import (
	"fmt"
	"strconv"
	"strings"
)

// maxLetters bounds column letter references (XFD is the last Excel column).
const maxLetters = 3

// Coordinate addresses a column by header name or by Excel column letters,
// optionally qualified by a sheet and a 1-based data row.
//
// Accepted forms: "name", "C", "C:C", "D7", "Sheet1!C", "Sheet1!D7".
// Letter and cell forms must be uppercase; "out" is always a header name.
type Coordinate struct {
	Sheet  string // optional table reference
	Ref    string // reference as written, without the sheet prefix
	Letter string // column letters when Ref parses as a letter or cell reference
	Row    int    // 1-based data row from a cell reference, 0 for any row
}

// ParseCoordinate parses a coordinate string. Header names are kept verbatim
// so that a column literally named "Q1" still resolves by name.
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Coordinate{}, fmt.Errorf("%w: empty", ErrInvalidCoordinate)
	}
	var c Coordinate
	if i := strings.LastIndex(s, "!"); i >= 0 {
		c.Sheet = strings.TrimSpace(s[:i])
		s = strings.TrimSpace(s[i+1:])
		if s == "" {
			return Coordinate{}, fmt.Errorf("%w: missing reference after sheet %q", ErrInvalidCoordinate, c.Sheet)
		}
	}
	c.Ref = s

	if left, right, ok := strings.Cut(s, ":"); ok {
		left, right = strings.ToUpper(strings.TrimSpace(left)), strings.ToUpper(strings.TrimSpace(right))
		if left != right || !isLetters(left) {
			return Coordinate{}, fmt.Errorf("%w: only whole-column ranges like C:C are supported, got %q", ErrInvalidCoordinate, s)
		}
		c.Letter = left
		return c, nil
	}

	if isLetters(s) {
		c.Letter = s
		return c, nil
	}
	if letters, row, ok := splitCell(s); ok {
		if row < 1 {
			return Coordinate{}, fmt.Errorf("%w: row must be positive in %q", ErrInvalidCoordinate, s)
		}
		c.Letter = letters
		c.Row = row
	}
	return c, nil
}

// MustCoordinate is ParseCoordinate for literals known to be valid.
func MustCoordinate(s string) Coordinate {
	c, err := ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ColumnCoordinate addresses a column by name with no letter interpretation.
func ColumnCoordinate(name string) Coordinate {
	return Coordinate{Ref: name}
}

// String returns the coordinate in its parseable form.
func (c Coordinate) String() string {
	if c.Sheet != "" {
		return c.Sheet + "!" + c.Ref
	}
	return c.Ref
}

// IsZero reports whether c was never set.
func (c Coordinate) IsZero() bool { return c.Ref == "" }

// MarshalText encodes c as its string form.
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the string form. An empty string yields the zero
// Coordinate.
func (c *Coordinate) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = Coordinate{}
		return nil
	}
	parsed, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Resolve returns the name of the column c addresses in t. A header name
// match wins over a letter interpretation. Returns ErrFieldNotFound when
// neither resolves.
func (c Coordinate) Resolve(t *Table) (string, error) {
	if t.HasColumn(c.Ref) {
		return c.Ref, nil
	}
	if c.Letter != "" {
		if t.HasColumn(c.Letter) {
			return c.Letter, nil
		}
		if idx := ColumnLetterToIndex(c.Letter); idx >= 0 && idx < len(t.Columns) {
			return t.Columns[idx], nil
		}
	}
	return "", fmt.Errorf("%w: %q in table %q", ErrFieldNotFound, c.String(), t.Name)
}

// ResolveForInsert is Resolve for write targets: an unknown column is named
// rather than rejected. A bare reference past the last column is taken as a
// header name ("SUM" creates SUM); cell and range forms such as E4 or E:E
// become Column_<LETTERS>.
func (c Coordinate) ResolveForInsert(t *Table) string {
	if name, err := c.Resolve(t); err == nil {
		return name
	}
	if c.Letter != "" && c.Ref != c.Letter {
		return "Column_" + c.Letter
	}
	return c.Ref
}

// ColumnLetterToIndex converts Excel column letters to a 0-based index.
// Returns -1 for anything that is not 1-3 ASCII letters.
func ColumnLetterToIndex(letters string) int {
	letters = strings.ToUpper(letters)
	if !isLetters(letters) {
		return -1
	}
	n := 0
	for _, r := range letters {
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}

// IndexToColumnLetter converts a 0-based index to Excel column letters.
func IndexToColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func isLetters(s string) bool {
	if s == "" || len(s) > maxLetters {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// splitCell splits "AB12" into ("AB", 12).
func splitCell(s string) (string, int, bool) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i > maxLetters || i == len(s) {
		return "", 0, false
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil {
		return "", 0, false
	}
	return s[:i], row, true
}

// RowRange restricts matching to 1-based data rows Start..End inclusive.
// Zero bounds are open.
type RowRange struct {
	Start int `json:"start,omitempty"`
	End   int `json:"end,omitempty"`
}

// ParseRowRange parses "2:10", "2:", ":10", or "" (unbounded).
func ParseRowRange(s string) (RowRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RowRange{}, nil
	}
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		right = left
	}
	var r RowRange
	var err error
	if left = strings.TrimSpace(left); left != "" {
		if r.Start, err = strconv.Atoi(left); err != nil {
			return RowRange{}, fmt.Errorf("%w: %q", ErrInvalidRowRange, s)
		}
	}
	if right = strings.TrimSpace(right); right != "" {
		if r.End, err = strconv.Atoi(right); err != nil {
			return RowRange{}, fmt.Errorf("%w: %q", ErrInvalidRowRange, s)
		}
	}
	return r, r.Validate()
}

// Validate checks that bounds are non-negative and ordered.
func (r RowRange) Validate() error {
	if r.Start < 0 || r.End < 0 || (r.End > 0 && r.Start > r.End) {
		return fmt.Errorf("%w: %d:%d", ErrInvalidRowRange, r.Start, r.End)
	}
	return nil
}

// Contains reports whether the 1-based row lies in r.
func (r RowRange) Contains(row int) bool {
	if r.Start > 0 && row < r.Start {
		return false
	}
	if r.End > 0 && row > r.End {
		return false
	}
	return true
}

// String returns "start:end" with open bounds left blank.
func (r RowRange) String() string {
	if r.Start == 0 && r.End == 0 {
		return ""
	}
	var b strings.Builder
	if r.Start > 0 {
		b.WriteString(strconv.Itoa(r.Start))
	}
	b.WriteByte(':')
	if r.End > 0 {
		b.WriteString(strconv.Itoa(r.End))
	}
	return b.String()
}
