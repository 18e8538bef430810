package types

import (
	"fmt"
	"strings"
)

// SourceTableColumn is added to rule results that scan every loaded table.
const SourceTableColumn = "_source_table"

// FilterRule selects rows of a table by an ordered list of conditions.
// Rules are independent: no rule reads another rule's output.
type FilterRule struct {
	ID           int64             `json:"id,omitempty"`
	PlanID       int64             `json:"plan_id,omitempty"`
	Name         string            `json:"name"`
	SourceTable  string            `json:"source_table"` // empty scans every loaded table
	Conditions   []FilterCondition `json:"conditions"`
	TargetColumn string            `json:"target_column"`
	OrderIndex   int               `json:"order_index"`
	Enabled      bool              `json:"enabled"`
}

// NewRule builds an enabled, validated rule.
func NewRule(name, sourceTable, targetColumn string, conds ...FilterCondition) (FilterRule, error) {
	r := FilterRule{
		Name:         strings.TrimSpace(name),
		SourceTable:  strings.TrimSpace(sourceTable),
		TargetColumn: strings.TrimSpace(targetColumn),
		Conditions:   append([]FilterCondition(nil), conds...),
		Enabled:      true,
	}
	if err := r.Validate(); err != nil {
		return FilterRule{}, err
	}
	return r, nil
}

// Validate checks the name and every condition.
func (r FilterRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule name must not be empty", ErrInvalidName)
	}
	for i, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("rule %q condition %d: %w", r.Name, i, err)
		}
	}
	return nil
}

// Fields returns the distinct condition fields in first-use order.
func (r FilterRule) Fields() []string {
	seen := make(map[string]bool, len(r.Conditions))
	var out []string
	for _, c := range r.Conditions {
		if !seen[c.Field] {
			seen[c.Field] = true
			out = append(out, c.Field)
		}
	}
	return out
}
