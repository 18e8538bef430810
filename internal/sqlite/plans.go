// This file implements plan persistence: save, load, list, and delete.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Save inserts plan when plan.ID is zero and replaces it otherwise. Rules and
// mappings are rewritten in the same transaction. On success the plan,
// rule, and mapping IDs are set and UpdatedAt is refreshed.
func (b *Backend) Save(ctx context.Context, plan *types.FilterPlan) (int64, error) {
	if plan == nil {
		return 0, types.ErrInvalidData
	}
	if err := plan.Validate(); err != nil {
		return 0, err
	}
	tags, err := json.Marshal(nonNil(plan.Tags))
	if err != nil {
		return 0, fmt.Errorf("encoding tags: %w", err)
	}

	now := time.Now().UTC()
	created := plan.CreatedAt
	if created.IsZero() {
		created = now
	}
	id := plan.ID
	var ruleIDs, mappingIDs []int64

	err = b.withTx(ctx, func(tx *sql.Tx) error {
		if id == 0 {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO filter_plans (name, description, tags, created_time, updated_time, is_active)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				plan.Name, plan.Description, string(tags), formatTime(created), formatTime(now), plan.IsActive)
			if err != nil {
				return fmt.Errorf("inserting plan: %w", err)
			}
			if id, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("reading plan id: %w", err)
			}
		} else {
			res, err := tx.ExecContext(ctx,
				`UPDATE filter_plans SET name = ?, description = ?, tags = ?, updated_time = ?, is_active = ?
				 WHERE id = ?`,
				plan.Name, plan.Description, string(tags), formatTime(now), plan.IsActive, id)
			if err != nil {
				return fmt.Errorf("updating plan: %w", err)
			}
			if n, err := res.RowsAffected(); err != nil {
				return fmt.Errorf("updating plan: %w", err)
			} else if n == 0 {
				return fmt.Errorf("%w: id %d", types.ErrNotFound, id)
			}
			if err := deleteChildren(ctx, tx, id); err != nil {
				return err
			}
		}

		ruleIDs = make([]int64, len(plan.Rules))
		for i, r := range plan.Rules {
			if ruleIDs[i], err = insertRule(ctx, tx, id, i, r); err != nil {
				return fmt.Errorf("saving rule %q: %w", r.Name, err)
			}
		}
		mappingIDs = make([]int64, len(plan.Mappings))
		for i, m := range plan.Mappings {
			if mappingIDs[i], err = insertMapping(ctx, tx, id, i, m); err != nil {
				return fmt.Errorf("saving mapping %q: %w", m.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	plan.ID = id
	plan.CreatedAt = created
	plan.UpdatedAt = now
	for i := range plan.Rules {
		plan.Rules[i].ID, plan.Rules[i].PlanID, plan.Rules[i].OrderIndex = ruleIDs[i], id, i
	}
	for i := range plan.Mappings {
		plan.Mappings[i].ID, plan.Mappings[i].PlanID, plan.Mappings[i].OrderIndex = mappingIDs[i], id, i
	}
	b.logger.Debug("plan saved", zap.Int64("plan_id", id), zap.String("name", plan.Name))
	return id, nil
}

func insertRule(ctx context.Context, tx *sql.Tx, planID int64, order int, r types.FilterRule) (int64, error) {
	conds, err := json.Marshal(nonNil(r.Conditions))
	if err != nil {
		return 0, fmt.Errorf("encoding conditions: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO filter_rules (plan_id, name, source_table, conditions, target_column, order_index, is_enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		planID, r.Name, r.SourceTable, string(conds), r.TargetColumn, order, r.Enabled)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertMapping(ctx context.Context, tx *sql.Tx, planID int64, order int, m types.DataMapping) (int64, error) {
	srcValue, err := json.Marshal(m.SourceMatchValue)
	if err != nil {
		return 0, fmt.Errorf("encoding source match value: %w", err)
	}
	tgtValue, err := json.Marshal(m.TargetMatchValue)
	if err != nil {
		return 0, fmt.Errorf("encoding target match value: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO data_mappings (plan_id, name, description,
		     source_table, source_match_coordinate, source_match_value, source_match_operator,
		     source_value_coordinate, source_row_range,
		     target_table, target_match_coordinate, target_match_value, target_match_operator,
		     target_insert_coordinate, target_row_range, overwrite_existing, order_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		planID, m.Name, m.Description,
		m.SourceTable, m.SourceMatch.String(), string(srcValue), string(m.SourceMatchOperator),
		m.SourceValue.String(), m.SourceRowRange.String(),
		m.TargetTable, m.TargetMatch.String(), string(tgtValue), string(m.TargetMatchOperator),
		m.TargetInsert.String(), m.TargetRowRange.String(), m.OverwriteExisting, order)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func deleteChildren(ctx context.Context, tx *sql.Tx, planID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM filter_rules WHERE plan_id = ?", planID); err != nil {
		return fmt.Errorf("deleting rules: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM data_mappings WHERE plan_id = ?", planID); err != nil {
		return fmt.Errorf("deleting mappings: %w", err)
	}
	return nil
}

// Load returns the active plan with the given ID, or ErrNotFound.
func (b *Backend) Load(ctx context.Context, id int64) (*types.FilterPlan, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	var plan *types.FilterPlan
	err := b.withDB(func(db *sql.DB) error {
		var err error
		plan, err = loadPlan(ctx, db, id, false)
		return err
	})
	return plan, err
}

// List returns plans ordered by most recently updated.
func (b *Backend) List(ctx context.Context, includeInactive bool) ([]*types.FilterPlan, error) {
	var plans []*types.FilterPlan
	err := b.withDB(func(db *sql.DB) error {
		query := "SELECT id FROM filter_plans WHERE is_active = 1 ORDER BY updated_time DESC, id DESC"
		if includeInactive {
			query = "SELECT id FROM filter_plans ORDER BY updated_time DESC, id DESC"
		}
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("listing plans: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scanning plan id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("listing plans: %w", err)
		}
		rows.Close()

		for _, id := range ids {
			p, err := loadPlan(ctx, db, id, true)
			if err != nil {
				return err
			}
			plans = append(plans, p)
		}
		return nil
	})
	return plans, err
}

// SoftDelete marks the plan inactive. Load no longer returns it; List does
// only with includeInactive.
func (b *Backend) SoftDelete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return b.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			"UPDATE filter_plans SET is_active = 0, updated_time = ? WHERE id = ? AND is_active = 1",
			formatTime(time.Now()), id)
		if err != nil {
			return fmt.Errorf("deactivating plan: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: id %d", types.ErrNotFound, id)
		}
		b.logger.Debug("plan deactivated", zap.Int64("plan_id", id))
		return nil
	})
}

// Delete removes the plan with its rules and mappings, active or not.
func (b *Backend) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteChildren(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM filter_plans WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting plan: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: id %d", types.ErrNotFound, id)
		}
		b.logger.Debug("plan deleted", zap.Int64("plan_id", id))
		return nil
	})
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadPlan(ctx context.Context, q queryer, id int64, includeInactive bool) (*types.FilterPlan, error) {
	var (
		plan             types.FilterPlan
		tags             string
		created, updated string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, name, description, tags, created_time, updated_time, is_active
		 FROM filter_plans WHERE id = ?`, id,
	).Scan(&plan.ID, &plan.Name, &plan.Description, &tags, &created, &updated, &plan.IsActive)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !plan.IsActive && !includeInactive) {
		return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(tags), &plan.Tags); err != nil {
		return nil, fmt.Errorf("%w: plan %d tags: %v", types.ErrInvalidData, id, err)
	}
	if plan.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if plan.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if plan.Rules, err = loadRules(ctx, q, id); err != nil {
		return nil, err
	}
	if plan.Mappings, err = loadMappings(ctx, q, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

func loadRules(ctx context.Context, q queryer, planID int64) ([]types.FilterRule, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, plan_id, name, source_table, conditions, target_column, order_index, is_enabled
		 FROM filter_rules WHERE plan_id = ? ORDER BY order_index, id`, planID)
	if err != nil {
		return nil, fmt.Errorf("loading rules of plan %d: %w", planID, err)
	}
	defer rows.Close()

	var out []types.FilterRule
	for rows.Next() {
		var (
			r     types.FilterRule
			conds string
		)
		if err := rows.Scan(&r.ID, &r.PlanID, &r.Name, &r.SourceTable, &conds, &r.TargetColumn, &r.OrderIndex, &r.Enabled); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		if err := json.Unmarshal([]byte(conds), &r.Conditions); err != nil {
			return nil, fmt.Errorf("%w: rule %q conditions: %v", types.ErrInvalidData, r.Name, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func loadMappings(ctx context.Context, q queryer, planID int64) ([]types.DataMapping, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, plan_id, name, description,
		     source_table, source_match_coordinate, source_match_value, source_match_operator,
		     source_value_coordinate, source_row_range,
		     target_table, target_match_coordinate, target_match_value, target_match_operator,
		     target_insert_coordinate, target_row_range, overwrite_existing, order_index
		 FROM data_mappings WHERE plan_id = ? ORDER BY order_index, id`, planID)
	if err != nil {
		return nil, fmt.Errorf("loading mappings of plan %d: %w", planID, err)
	}
	defer rows.Close()

	var out []types.DataMapping
	for rows.Next() {
		var (
			m                                 types.DataMapping
			srcMatch, srcValueCoord, srcRange string
			tgtMatch, tgtInsert, tgtRange     string
			srcValue, tgtValue, srcOp, tgtOp  string
		)
		if err := rows.Scan(&m.ID, &m.PlanID, &m.Name, &m.Description,
			&m.SourceTable, &srcMatch, &srcValue, &srcOp, &srcValueCoord, &srcRange,
			&m.TargetTable, &tgtMatch, &tgtValue, &tgtOp, &tgtInsert, &tgtRange,
			&m.OverwriteExisting, &m.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}
		if err := decodeMapping(&m, srcMatch, srcValue, srcOp, srcValueCoord, srcRange, tgtMatch, tgtValue, tgtOp, tgtInsert, tgtRange); err != nil {
			return nil, fmt.Errorf("%w: mapping %q: %v", types.ErrInvalidData, m.Name, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func decodeMapping(m *types.DataMapping, srcMatch, srcValue, srcOp, srcValueCoord, srcRange, tgtMatch, tgtValue, tgtOp, tgtInsert, tgtRange string) error {
	var err error
	coords := []struct {
		in  string
		out *types.Coordinate
	}{
		{srcMatch, &m.SourceMatch},
		{srcValueCoord, &m.SourceValue},
		{tgtMatch, &m.TargetMatch},
		{tgtInsert, &m.TargetInsert},
	}
	for _, c := range coords {
		if *c.out, err = types.ParseCoordinate(c.in); err != nil {
			return err
		}
	}
	if m.SourceRowRange, err = types.ParseRowRange(srcRange); err != nil {
		return err
	}
	if m.TargetRowRange, err = types.ParseRowRange(tgtRange); err != nil {
		return err
	}
	if m.SourceMatchOperator, err = types.ParseOperator(srcOp); err != nil {
		return err
	}
	if m.TargetMatchOperator, err = types.ParseOperator(tgtOp); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(srcValue), &m.SourceMatchValue); err != nil {
		return err
	}
	return json.Unmarshal([]byte(tgtValue), &m.TargetMatchValue)
}

// nonNil returns an empty slice for nil so that JSON columns hold [] not null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
