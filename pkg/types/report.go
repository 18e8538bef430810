package types

import (
	"sort"
	"time"
)

// Outcome codes recorded per rule and mapping.
const (
	OutcomeOK            = "ok"
	OutcomeFailed        = "failed"
	OutcomeNoSourceMatch = "no_source_match"
	OutcomeNoTargetMatch = "no_target_match"
	OutcomeCancelled     = "cancelled"
	OutcomeDisabled      = "disabled"
)

// RuleReport summarizes one rule execution.
type RuleReport struct {
	Name        string        `json:"name"`
	SourceTable string        `json:"source_table"`
	RowsIn      int           `json:"rows_in"`
	RowsMatched int           `json:"rows_matched"`
	RowErrors   int           `json:"row_errors"` // rows skipped on TypeMismatch
	Outcome     string        `json:"outcome"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// MappingReport summarizes one mapping execution.
type MappingReport struct {
	Name            string        `json:"name"`
	SourceTable     string        `json:"source_table"`
	TargetTable     string        `json:"target_table"`
	SourceMatched   bool          `json:"source_matched"`
	SourceMatches   int           `json:"source_matches"`
	AmbiguousSource bool          `json:"ambiguous_source"`
	SourceRow       int           `json:"source_row,omitempty"` // 1-based data row used
	Value           Value         `json:"value"`
	TargetMatches   int           `json:"target_matches"`
	RowsWritten     int           `json:"rows_written"`
	RowsSkipped     int           `json:"rows_skipped"` // non-empty cells kept
	Outcome         string        `json:"outcome"`
	Error           string        `json:"error,omitempty"`
	Duration        time.Duration `json:"duration_ns"`
}

// ExecutionReport is the structured summary of one plan run. Rules and
// Mappings follow plan order.
type ExecutionReport struct {
	RunID      string          `json:"run_id"`
	PlanID     int64           `json:"plan_id,omitempty"`
	PlanName   string          `json:"plan_name"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Rules      []RuleReport    `json:"rules"`
	Mappings   []MappingReport `json:"mappings"`
}

// Duration returns the wall time of the run.
func (r *ExecutionReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed returns the names of units whose outcome is failed.
func (r *ExecutionReport) Failed() []string {
	var out []string
	for _, rr := range r.Rules {
		if rr.Outcome == OutcomeFailed {
			out = append(out, rr.Name)
		}
	}
	for _, mr := range r.Mappings {
		if mr.Outcome == OutcomeFailed {
			out = append(out, mr.Name)
		}
	}
	return out
}

// Counts tallies outcomes across all units.
func (r *ExecutionReport) Counts() map[string]int {
	out := make(map[string]int)
	for _, rr := range r.Rules {
		out[rr.Outcome]++
	}
	for _, mr := range r.Mappings {
		out[mr.Outcome]++
	}
	return out
}

// ResultSet maps rule and mapping names to the tables they produced.
type ResultSet map[string]*Table

// Names returns the result names in sorted order.
func (rs ResultSet) Names() []string {
	out := make([]string, 0, len(rs))
	for name := range rs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
