package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// MappingEngine copies values between tables according to data mappings.
// It holds no state between calls.
type MappingEngine struct {
	logger     *zap.Logger
	checkEvery int
	tieBreak   types.TieBreak
}

// NewMappingEngine returns a MappingEngine configured by opts.
func NewMappingEngine(opts ...Option) *MappingEngine {
	o := newOptions(opts)
	return &MappingEngine{
		logger:     o.logger.Named("mapping"),
		checkEvery: o.checkEvery,
		tieBreak:   o.tieBreak,
	}
}

// Execute applies m to copies of its tables and returns the updated copy of
// target. source and target are never modified.
//
// The source row is the first (or, with TieBreakLast, the last) row whose
// match column satisfies the source match condition; its value column is
// copied into the insert column of every target row that satisfies the
// target match condition. With OverwriteExisting false, non-empty target
// cells are left alone and counted as skipped.
//
// No source or target match is reported, not returned as an error; the
// returned table is then an unchanged copy of target. Unresolvable
// coordinates fail the mapping with a *types.UnitError. On cancellation the
// partial copy is discarded and ctx.Err() is returned.
func (e *MappingEngine) Execute(ctx context.Context, m types.DataMapping, source, target *types.Table) (*types.Table, types.MappingReport, error) {
	start := time.Now()
	report := types.MappingReport{Name: m.Name, SourceTable: m.SourceTable, TargetTable: m.TargetTable}
	log := e.logger.With(zap.String("mapping", m.Name))

	out, err := e.apply(ctx, m, source, target, &report, log)
	report.Duration = time.Since(start)
	switch {
	case err == nil:
		log.Debug("mapping finished",
			zap.String("outcome", report.Outcome),
			zap.Int("rows_written", report.RowsWritten),
			zap.Int("rows_skipped", report.RowsSkipped),
			zap.Duration("duration", report.Duration))
		return out, report, nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		report.Outcome = types.OutcomeCancelled
		log.Info("mapping cancelled, partial target discarded")
		return nil, report, err
	default:
		report.Outcome = types.OutcomeFailed
		report.Error = err.Error()
		log.Warn("mapping failed", zap.Error(err))
		return nil, report, &types.UnitError{Unit: types.UnitMapping, Name: m.Name, Err: err}
	}
}

func (e *MappingEngine) apply(ctx context.Context, m types.DataMapping, source, target *types.Table, report *types.MappingReport, log *zap.Logger) (*types.Table, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: %q", types.ErrTableNotFound, m.SourceTable)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %q", types.ErrTableNotFound, m.TargetTable)
	}
	matchCol, err := resolveIn(m.SourceMatch, source)
	if err != nil {
		return nil, fmt.Errorf("source match: %w", err)
	}
	valueCol, err := resolveIn(m.SourceValue, source)
	if err != nil {
		return nil, fmt.Errorf("source value: %w", err)
	}
	targetCol, err := resolveIn(m.TargetMatch, target)
	if err != nil {
		return nil, fmt.Errorf("target match: %w", err)
	}
	if err := checkSheet(m.TargetInsert, target); err != nil {
		return nil, fmt.Errorf("target insert: %w", err)
	}
	insertCol := m.TargetInsert.ResolveForInsert(target)

	srcRows, err := e.matchRows(ctx, source, matchCol, m.SourceMatch.Row, m.SourceRowRange, m.SourceMatchOperator, m.SourceMatchValue, 0, log)
	if err != nil {
		return nil, err
	}
	report.SourceMatches = len(srcRows)
	if len(srcRows) == 0 {
		report.Outcome = types.OutcomeNoSourceMatch
		return target.Clone(), nil
	}
	pick := srcRows[0]
	if e.tieBreak == types.TieBreakLast {
		pick = srcRows[len(srcRows)-1]
	}
	if len(srcRows) > 1 {
		report.AmbiguousSource = true
		log.Info("ambiguous source match",
			zap.Int("matches", len(srcRows)),
			zap.String("tie_break", string(e.tieBreak)),
			zap.Int("row", pick+1))
	}
	report.SourceMatched = true
	report.SourceRow = pick + 1
	value := source.Rows[pick].Get(valueCol)
	report.Value = value

	tgtRows, err := e.matchRows(ctx, target, targetCol, m.TargetMatch.Row, m.TargetRowRange, m.TargetMatchOperator, m.TargetMatchValue, m.TargetInsert.Row, log)
	if err != nil {
		return nil, err
	}
	report.TargetMatches = len(tgtRows)
	if len(tgtRows) == 0 {
		report.Outcome = types.OutcomeNoTargetMatch
		return target.Clone(), nil
	}

	out := target.Clone()
	out.AddColumn(insertCol)
	for n, i := range tgtRows {
		if n%e.checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := out.Rows[i]
		if !m.OverwriteExisting && !row.Get(insertCol).IsEmpty() {
			report.RowsSkipped++
			continue
		}
		row[insertCol] = value
		report.RowsWritten++
	}
	report.Outcome = types.OutcomeOK
	return out, nil
}

// matchRows returns the 0-based indexes of rows of t whose col satisfies op
// against want. cellRow and insertRow, when non-zero, pin the match to one
// 1-based data row. Rows whose comparison is a type mismatch do not match.
func (e *MappingEngine) matchRows(ctx context.Context, t *types.Table, col string, cellRow int, rows types.RowRange, op types.Operator, want types.Value, insertRow int, log *zap.Logger) ([]int, error) {
	var out []int
	for i, row := range t.Rows {
		if i%e.checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		n := i + 1
		if !rows.Contains(n) || (cellRow > 0 && n != cellRow) || (insertRow > 0 && n != insertRow) {
			continue
		}
		ok, err := Compare(row.Get(col), op, want)
		if err != nil {
			if errors.Is(err, types.ErrTypeMismatch) {
				log.Debug("row skipped", zap.String("table", t.Name), zap.Int("row", n), zap.Error(err))
				continue
			}
			return nil, err
		}
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

// resolveIn resolves c against t after checking its sheet qualifier.
func resolveIn(c types.Coordinate, t *types.Table) (string, error) {
	if err := checkSheet(c, t); err != nil {
		return "", err
	}
	return c.Resolve(t)
}

// checkSheet accepts a coordinate with no sheet, or one naming t directly or
// as the sheet part of a "<file>_<sheet>" table name.
func checkSheet(c types.Coordinate, t *types.Table) error {
	if c.Sheet == "" || c.Sheet == t.Name || strings.HasSuffix(t.Name, "_"+c.Sheet) {
		return nil
	}
	return fmt.Errorf("%w: coordinate %q refers to %q, not %q", types.ErrTableNotFound, c.String(), c.Sheet, t.Name)
}

// ValidateMapping reports every table reference and coordinate of m that does
// not resolve against tables, without executing it. Insert coordinates only
// need a valid sheet qualifier since missing columns are created on write.
func ValidateMapping(m types.DataMapping, tables map[string]*types.Table) []error {
	var errs []error
	if err := m.Validate(); err != nil {
		errs = append(errs, err)
	}
	check := func(label string, c types.Coordinate, t *types.Table) {
		if _, err := resolveIn(c, t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}
	if src, ok := tables[m.SourceTable]; ok {
		check("source match", m.SourceMatch, src)
		check("source value", m.SourceValue, src)
	} else {
		errs = append(errs, fmt.Errorf("source: %w: %q", types.ErrTableNotFound, m.SourceTable))
	}
	if tgt, ok := tables[m.TargetTable]; ok {
		check("target match", m.TargetMatch, tgt)
		if err := checkSheet(m.TargetInsert, tgt); err != nil {
			errs = append(errs, fmt.Errorf("target insert: %w", err))
		}
	} else {
		errs = append(errs, fmt.Errorf("target: %w: %q", types.ErrTableNotFound, m.TargetTable))
	}
	return errs
}
