package types

import (
	"fmt"
	"strings"
)

// TieBreak chooses the source row when several rows match a mapping.
type TieBreak string

// Tie-break policies. First is the default.
const (
	TieBreakFirst TieBreak = "first"
	TieBreakLast  TieBreak = "last"
)

// ParseTieBreak accepts "first", "last", or blank (first).
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case "", TieBreakFirst:
		return TieBreakFirst, nil
	case TieBreakLast:
		return TieBreakLast, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTieBreak, s)
}

// DataMapping copies one value from a matched source row into the insert
// column of every matched target row.
type DataMapping struct {
	ID          int64  `json:"id,omitempty"`
	PlanID      int64  `json:"plan_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	SourceTable         string     `json:"source_table"`
	SourceMatch         Coordinate `json:"source_match_coordinate"`
	SourceMatchValue    Value      `json:"source_match_value"`
	SourceMatchOperator Operator   `json:"source_match_operator"`
	SourceValue         Coordinate `json:"source_value_coordinate"`
	SourceRowRange      RowRange   `json:"source_row_range"`

	TargetTable         string     `json:"target_table"`
	TargetMatch         Coordinate `json:"target_match_coordinate"`
	TargetMatchValue    Value      `json:"target_match_value"`
	TargetMatchOperator Operator   `json:"target_match_operator"`
	TargetInsert        Coordinate `json:"target_insert_coordinate"`
	TargetRowRange      RowRange   `json:"target_row_range"`

	OverwriteExisting bool `json:"overwrite_existing"`
	OrderIndex        int  `json:"order_index"`
}

// MappingSpec is the loosely typed input to NewMapping. Coordinates are
// parsed with ParseCoordinate; blank operators default to equals.
type MappingSpec struct {
	Name        string
	Description string

	SourceTable         string
	SourceMatch         string
	SourceMatchValue    any
	SourceMatchOperator string
	SourceValue         string
	SourceRowRange      RowRange

	TargetTable         string
	TargetMatch         string
	TargetMatchValue    any
	TargetMatchOperator string
	TargetInsert        string
	TargetRowRange      RowRange

	OverwriteExisting bool
}

// NewMapping parses and validates spec.
func NewMapping(spec MappingSpec) (DataMapping, error) {
	m := DataMapping{
		Name:              strings.TrimSpace(spec.Name),
		Description:       spec.Description,
		SourceTable:       strings.TrimSpace(spec.SourceTable),
		SourceMatchValue:  ValueOf(spec.SourceMatchValue),
		SourceRowRange:    spec.SourceRowRange,
		TargetTable:       strings.TrimSpace(spec.TargetTable),
		TargetMatchValue:  ValueOf(spec.TargetMatchValue),
		TargetRowRange:    spec.TargetRowRange,
		OverwriteExisting: spec.OverwriteExisting,
	}

	var err error
	if m.SourceMatchOperator, err = parseMatchOperator(spec.SourceMatchOperator); err != nil {
		return DataMapping{}, fmt.Errorf("source: %w", err)
	}
	if m.TargetMatchOperator, err = parseMatchOperator(spec.TargetMatchOperator); err != nil {
		return DataMapping{}, fmt.Errorf("target: %w", err)
	}
	coords := []struct {
		label string
		in    string
		out   *Coordinate
	}{
		{"source match", spec.SourceMatch, &m.SourceMatch},
		{"source value", spec.SourceValue, &m.SourceValue},
		{"target match", spec.TargetMatch, &m.TargetMatch},
		{"target insert", spec.TargetInsert, &m.TargetInsert},
	}
	for _, c := range coords {
		if *c.out, err = ParseCoordinate(c.in); err != nil {
			return DataMapping{}, fmt.Errorf("%s coordinate: %w", c.label, err)
		}
	}
	if err := m.Validate(); err != nil {
		return DataMapping{}, err
	}
	return m, nil
}

func parseMatchOperator(s string) (Operator, error) {
	if strings.TrimSpace(s) == "" {
		return OpEquals, nil
	}
	return ParseOperator(s)
}

// Validate checks names, table references, operators, coordinates, and
// row ranges.
func (m DataMapping) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: mapping name must not be empty", ErrInvalidName)
	}
	if m.SourceTable == "" || m.TargetTable == "" {
		return fmt.Errorf("%w: mapping %q needs source and target tables", ErrInvalidName, m.Name)
	}
	if !m.SourceMatchOperator.Valid() || !m.TargetMatchOperator.Valid() {
		return fmt.Errorf("%w: mapping %q", ErrInvalidOperator, m.Name)
	}
	for _, c := range []Coordinate{m.SourceMatch, m.SourceValue, m.TargetMatch, m.TargetInsert} {
		if c.IsZero() {
			return fmt.Errorf("%w: mapping %q has an empty coordinate", ErrInvalidCoordinate, m.Name)
		}
	}
	if err := m.SourceRowRange.Validate(); err != nil {
		return fmt.Errorf("mapping %q source rows: %w", m.Name, err)
	}
	if err := m.TargetRowRange.Validate(); err != nil {
		return fmt.Errorf("mapping %q target rows: %w", m.Name, err)
	}
	return nil
}

// Tables returns the source and target table names.
func (m DataMapping) Tables() []string {
	if m.SourceTable == m.TargetTable {
		return []string{m.SourceTable}
	}
	return []string{m.SourceTable, m.TargetTable}
}
