package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FilterPlan is a named collection of rules and mappings. ID is zero until
// the plan is first saved.
type FilterPlan struct {
	ID          int64         `json:"id,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Rules       []FilterRule  `json:"rules"`
	Mappings    []DataMapping `json:"mappings"`
	Tags        []string      `json:"tags,omitempty"`
	CreatedAt   time.Time     `json:"created_time"`
	UpdatedAt   time.Time     `json:"updated_time"`
	IsActive    bool          `json:"is_active"`
}

// NewPlan returns an active, empty plan.
func NewPlan(name, description string) (*FilterPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: plan name must not be empty", ErrInvalidName)
	}
	now := time.Now()
	return &FilterPlan{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsActive:    true,
	}, nil
}

// nameTaken reports whether a rule or mapping already uses name.
func (p *FilterPlan) nameTaken(name string) bool {
	for _, r := range p.Rules {
		if r.Name == name {
			return true
		}
	}
	for _, m := range p.Mappings {
		if m.Name == name {
			return true
		}
	}
	return false
}

func (p *FilterPlan) touch() { p.UpdatedAt = time.Now() }

// reindex keeps OrderIndex dense and equal to slice position.
func (p *FilterPlan) reindex() {
	for i := range p.Rules {
		p.Rules[i].OrderIndex = i
	}
	for i := range p.Mappings {
		p.Mappings[i].OrderIndex = i
	}
}

// AddRule appends r. Rule and mapping names share one namespace because
// results are keyed by name.
func (p *FilterPlan) AddRule(r FilterRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if p.nameTaken(r.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
	}
	r.PlanID = p.ID
	p.Rules = append(p.Rules, r)
	p.reindex()
	p.touch()
	return nil
}

// RemoveRule deletes the rule at index and closes the ordering gap.
func (p *FilterPlan) RemoveRule(index int) error {
	if index < 0 || index >= len(p.Rules) {
		return fmt.Errorf("%w: rule %d of %d", ErrIndexOutOfRange, index, len(p.Rules))
	}
	p.Rules = append(p.Rules[:index], p.Rules[index+1:]...)
	p.reindex()
	p.touch()
	return nil
}

// RemoveRuleByName deletes the named rule.
func (p *FilterPlan) RemoveRuleByName(name string) error {
	for i, r := range p.Rules {
		if r.Name == name {
			return p.RemoveRule(i)
		}
	}
	return fmt.Errorf("%w: rule %q", ErrNotFound, name)
}

// MoveRule moves the rule at from to position to, shifting the rules between.
func (p *FilterPlan) MoveRule(from, to int) error {
	n := len(p.Rules)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d of %d", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	r := p.Rules[from]
	p.Rules = append(p.Rules[:from], p.Rules[from+1:]...)
	p.Rules = append(p.Rules[:to], append([]FilterRule{r}, p.Rules[to:]...)...)
	p.reindex()
	p.touch()
	return nil
}

// SetRuleEnabled enables or disables the named rule.
func (p *FilterPlan) SetRuleEnabled(name string, enabled bool) error {
	for i := range p.Rules {
		if p.Rules[i].Name == name {
			p.Rules[i].Enabled = enabled
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: rule %q", ErrNotFound, name)
}

// Rule returns the named rule.
func (p *FilterPlan) Rule(name string) (FilterRule, bool) {
	for _, r := range p.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return FilterRule{}, false
}

// AddMapping appends m.
func (p *FilterPlan) AddMapping(m DataMapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if p.nameTaken(m.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, m.Name)
	}
	m.PlanID = p.ID
	p.Mappings = append(p.Mappings, m)
	p.reindex()
	p.touch()
	return nil
}

// RemoveMapping deletes the named mapping.
func (p *FilterPlan) RemoveMapping(name string) error {
	for i, m := range p.Mappings {
		if m.Name == name {
			p.Mappings = append(p.Mappings[:i], p.Mappings[i+1:]...)
			p.reindex()
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: mapping %q", ErrNotFound, name)
}

// Mapping returns the named mapping.
func (p *FilterPlan) Mapping(name string) (DataMapping, bool) {
	for _, m := range p.Mappings {
		if m.Name == name {
			return m, true
		}
	}
	return DataMapping{}, false
}

// RequiredTables returns the sorted table names referenced by enabled rules
// and by mappings. Rules that scan every table contribute nothing.
func (p *FilterPlan) RequiredTables() []string {
	set := make(map[string]bool)
	for _, r := range p.Rules {
		if r.Enabled && r.SourceTable != "" {
			set[r.SourceTable] = true
		}
	}
	for _, m := range p.Mappings {
		for _, t := range m.Tables() {
			set[t] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Validate checks the name, every unit, and name uniqueness.
func (p *FilterPlan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: plan name must not be empty", ErrInvalidName)
	}
	seen := make(map[string]bool, len(p.Rules)+len(p.Mappings))
	for _, r := range p.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
		}
		seen[r.Name] = true
	}
	for _, m := range p.Mappings {
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}
