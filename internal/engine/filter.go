package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// FilterEngine applies filter rules to loaded tables.
type FilterEngine struct {
	logger     *zap.Logger
	checkEvery int
}

// NewFilterEngine returns a FilterEngine configured by opts.
func NewFilterEngine(opts ...Option) *FilterEngine {
	o := newOptions(opts)
	return &FilterEngine{
		logger:     o.logger.Named("filter"),
		checkEvery: o.checkEvery,
	}
}

// Execute runs every rule in order and returns the result tables keyed by
// rule name together with one report per rule. A failing rule is reported
// and skipped; disabled rules produce no result. The returned error is
// non-nil only when ctx is cancelled.
func (e *FilterEngine) Execute(ctx context.Context, tables map[string]*types.Table, rules []types.FilterRule) (types.ResultSet, []types.RuleReport, error) {
	results := make(types.ResultSet, len(rules))
	reports := make([]types.RuleReport, 0, len(rules))
	for _, rule := range rules {
		out, report, err := e.ExecuteRule(ctx, tables, rule)
		reports = append(reports, report)
		if out != nil {
			results[rule.Name] = out
		}
		if err != nil && ctx.Err() != nil {
			return results, reports, ctx.Err()
		}
	}
	return results, reports, nil
}

// ExecuteRule runs one rule. Rows are copied into a new table named after the
// rule, in source order, with the rule's target column appended and set to
// the row's value of the first condition field. Rows whose evaluation hits
// types.ErrTypeMismatch are skipped and counted. A missing table or field
// fails the rule with a *types.UnitError.
func (e *FilterEngine) ExecuteRule(ctx context.Context, tables map[string]*types.Table, rule types.FilterRule) (*types.Table, types.RuleReport, error) {
	start := time.Now()
	report := types.RuleReport{Name: rule.Name, SourceTable: rule.SourceTable}
	log := e.logger.With(zap.String("rule", rule.Name))

	if !rule.Enabled {
		report.Outcome = types.OutcomeDisabled
		log.Debug("rule disabled, skipping")
		return nil, report, nil
	}

	out, err := e.scan(ctx, tables, rule, &report)
	report.Duration = time.Since(start)
	switch {
	case err == nil:
		report.Outcome = types.OutcomeOK
		report.RowsMatched = out.Len()
		log.Debug("rule finished",
			zap.Int("rows_in", report.RowsIn),
			zap.Int("rows_matched", report.RowsMatched),
			zap.Int("row_errors", report.RowErrors),
			zap.Duration("duration", report.Duration))
		return out, report, nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		report.Outcome = types.OutcomeCancelled
		log.Info("rule cancelled")
		return nil, report, err
	default:
		report.Outcome = types.OutcomeFailed
		report.Error = err.Error()
		log.Warn("rule failed", zap.Error(err))
		return nil, report, &types.UnitError{Unit: types.UnitRule, Name: rule.Name, Err: err}
	}
}

// source is one table scanned by a rule.
type source struct {
	name  string
	table *types.Table
}

func (e *FilterEngine) scan(ctx context.Context, tables map[string]*types.Table, rule types.FilterRule, report *types.RuleReport) (*types.Table, error) {
	sources, err := e.sources(tables, rule)
	if err != nil {
		return nil, err
	}
	multi := rule.SourceTable == ""

	out := &types.Table{Name: rule.Name}
	for _, s := range sources {
		for _, c := range s.table.Columns {
			out.AddColumn(c)
		}
	}
	if multi {
		out.AddColumn(types.SourceTableColumn)
	}
	target := rule.TargetColumn
	if target != "" && out.HasColumn(target) {
		target = ""
	}
	if target != "" {
		out.AddColumn(target)
	}
	var seedField string
	if len(rule.Conditions) > 0 {
		seedField = rule.Conditions[0].Field
	}

	for _, s := range sources {
		pred, err := Compile(s.table, rule.Conditions)
		if err != nil {
			return nil, err
		}
		report.RowsIn += s.table.Len()
		for i, row := range s.table.Rows {
			if i%e.checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			ok, err := pred(row)
			if err != nil {
				if errors.Is(err, types.ErrTypeMismatch) {
					report.RowErrors++
					e.logger.Debug("row skipped",
						zap.String("rule", rule.Name),
						zap.String("table", s.name),
						zap.Int("row", i+1),
						zap.Error(err))
					continue
				}
				return nil, err
			}
			if !ok {
				continue
			}
			copied := row.Clone()
			if multi {
				copied[types.SourceTableColumn] = types.Str(s.name)
			}
			if target != "" {
				copied[target] = row.Get(seedField)
			}
			out.Rows = append(out.Rows, copied)
		}
	}
	return out, nil
}

// sources returns the tables a rule scans. A rule without a source table
// scans every table, in name order, that has all of its condition fields.
func (e *FilterEngine) sources(tables map[string]*types.Table, rule types.FilterRule) ([]source, error) {
	if rule.SourceTable != "" {
		t, ok := tables[rule.SourceTable]
		if !ok {
			return nil, fmt.Errorf("%w: %q", types.ErrTableNotFound, rule.SourceTable)
		}
		return []source{{name: rule.SourceTable, table: t}}, nil
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables loaded", types.ErrTableNotFound)
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := rule.Fields()
	var out []source
	for _, name := range names {
		t := tables[name]
		missing := ""
		for _, f := range fields {
			if !t.HasColumn(f) {
				missing = f
				break
			}
		}
		if missing != "" {
			e.logger.Debug("table skipped",
				zap.String("rule", rule.Name),
				zap.String("table", name),
				zap.String("missing_field", missing))
			continue
		}
		out = append(out, source{name: name, table: t})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no loaded table has fields %v", types.ErrFieldNotFound, fields)
	}
	return out, nil
}
