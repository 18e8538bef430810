package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Runner executes a whole plan. Each rule and each mapping is one task on a
// bounded pool; tasks share no mutable state and write only their own result
// slot, so results need no locking.
type Runner struct {
	filter  *FilterEngine
	mapping *MappingEngine
	workers int
	logger  *zap.Logger
}

// NewRunner returns a Runner configured by opts.
func NewRunner(opts ...Option) *Runner {
	o := newOptions(opts)
	return &Runner{
		filter:  NewFilterEngine(opts...),
		mapping: NewMappingEngine(opts...),
		workers: o.workers,
		logger:  o.logger.Named("runner"),
	}
}

// Run executes every rule and mapping of plan against tables. Mappings read
// the original tables, so they are independent of each other and of the
// rules. A failing unit is recorded in the report and does not stop the
// others. The error is non-nil only when ctx is cancelled; results and report
// then hold what completed.
func (r *Runner) Run(ctx context.Context, tables map[string]*types.Table, plan *types.FilterPlan) (types.ResultSet, *types.ExecutionReport, error) {
	report := r.newReport(plan)
	ruleOut := make([]*types.Table, len(plan.Rules))
	mapOut := make([]*types.Table, len(plan.Mappings))
	report.Rules = make([]types.RuleReport, len(plan.Rules))
	report.Mappings = make([]types.MappingReport, len(plan.Mappings))

	g := r.group()
	r.submitRules(ctx, g, tables, plan, ruleOut, report)
	for i, m := range plan.Mappings {
		if ctx.Err() != nil {
			report.Mappings[i] = cancelledMapping(m)
			continue
		}
		g.Go(func() error {
			out, rep, _ := r.mapping.Execute(ctx, m, tables[m.SourceTable], tables[m.TargetTable])
			mapOut[i] = out
			report.Mappings[i] = rep
			return nil
		})
	}
	_ = g.Wait()

	return r.finish(ctx, plan, ruleOut, mapOut, report)
}

// RunChained is Run with mappings that share a target table applied one
// after another, in plan order, to the accumulating target. A failed mapping
// leaves the accumulated target as it was. Each mapping's result entry is the
// target as it stood after that mapping. Sources are always the original
// tables.
func (r *Runner) RunChained(ctx context.Context, tables map[string]*types.Table, plan *types.FilterPlan) (types.ResultSet, *types.ExecutionReport, error) {
	report := r.newReport(plan)
	ruleOut := make([]*types.Table, len(plan.Rules))
	mapOut := make([]*types.Table, len(plan.Mappings))
	report.Rules = make([]types.RuleReport, len(plan.Rules))
	report.Mappings = make([]types.MappingReport, len(plan.Mappings))

	var order []string
	chains := make(map[string][]int)
	for i, m := range plan.Mappings {
		if _, ok := chains[m.TargetTable]; !ok {
			order = append(order, m.TargetTable)
		}
		chains[m.TargetTable] = append(chains[m.TargetTable], i)
	}

	g := r.group()
	r.submitRules(ctx, g, tables, plan, ruleOut, report)
	for _, name := range order {
		idx := chains[name]
		if ctx.Err() != nil {
			for _, i := range idx {
				report.Mappings[i] = cancelledMapping(plan.Mappings[i])
			}
			continue
		}
		g.Go(func() error {
			current := tables[name]
			for _, i := range idx {
				m := plan.Mappings[i]
				out, rep, _ := r.mapping.Execute(ctx, m, tables[m.SourceTable], current)
				report.Mappings[i] = rep
				if out == nil {
					continue
				}
				mapOut[i] = out
				current = out
			}
			return nil
		})
	}
	_ = g.Wait()

	return r.finish(ctx, plan, ruleOut, mapOut, report)
}

func (r *Runner) group() *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	return g
}

func (r *Runner) newReport(plan *types.FilterPlan) *types.ExecutionReport {
	runID := uuid.Must(uuid.NewV7()).String()
	r.logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("plan", plan.Name),
		zap.Int("rules", len(plan.Rules)),
		zap.Int("mappings", len(plan.Mappings)),
		zap.Int("workers", r.workers))
	return &types.ExecutionReport{
		RunID:     runID,
		PlanID:    plan.ID,
		PlanName:  plan.Name,
		StartedAt: time.Now(),
	}
}

func (r *Runner) submitRules(ctx context.Context, g *errgroup.Group, tables map[string]*types.Table, plan *types.FilterPlan, out []*types.Table, report *types.ExecutionReport) {
	for i, rule := range plan.Rules {
		if !rule.Enabled {
			report.Rules[i] = types.RuleReport{Name: rule.Name, SourceTable: rule.SourceTable, Outcome: types.OutcomeDisabled}
			continue
		}
		if ctx.Err() != nil {
			report.Rules[i] = types.RuleReport{Name: rule.Name, SourceTable: rule.SourceTable, Outcome: types.OutcomeCancelled}
			continue
		}
		g.Go(func() error {
			table, rep, _ := r.filter.ExecuteRule(ctx, tables, rule)
			out[i] = table
			report.Rules[i] = rep
			return nil
		})
	}
}

func (r *Runner) finish(ctx context.Context, plan *types.FilterPlan, ruleOut, mapOut []*types.Table, report *types.ExecutionReport) (types.ResultSet, *types.ExecutionReport, error) {
	results := make(types.ResultSet, len(ruleOut)+len(mapOut))
	for i, t := range ruleOut {
		if t != nil {
			results[plan.Rules[i].Name] = t
		}
	}
	for i, t := range mapOut {
		if t != nil {
			results[plan.Mappings[i].Name] = t
		}
	}
	report.FinishedAt = time.Now()

	counts := report.Counts()
	fields := []zap.Field{
		zap.String("run_id", report.RunID),
		zap.Int("results", len(results)),
		zap.Int("failed", counts[types.OutcomeFailed]),
		zap.Duration("duration", report.Duration()),
	}
	if err := ctx.Err(); err != nil {
		r.logger.Warn("run cancelled", append(fields, zap.Error(err))...)
		return results, report, err
	}
	r.logger.Info("run finished", fields...)
	return results, report, nil
}

func cancelledMapping(m types.DataMapping) types.MappingReport {
	return types.MappingReport{
		Name:        m.Name,
		SourceTable: m.SourceTable,
		TargetTable: m.TargetTable,
		Outcome:     types.OutcomeCancelled,
	}
}
