// This file implements plan export to and import from JSONL files.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Export writes the given plans to path, one record per line. With no IDs
// every active plan is exported. The file is replaced atomically.
func (b *Backend) Export(ctx context.Context, path string, ids ...int64) (int, error) {
	var plans []*types.FilterPlan
	if len(ids) == 0 {
		var err error
		if plans, err = b.List(ctx, false); err != nil {
			return 0, err
		}
	} else {
		for _, id := range ids {
			p, err := b.Load(ctx, id)
			if err != nil {
				return 0, err
			}
			plans = append(plans, p)
		}
	}

	now := time.Now()
	records := make([]json.RawMessage, 0, len(plans))
	for _, p := range plans {
		data, err := json.Marshal(newPlanRecord(p, now))
		if err != nil {
			return 0, fmt.Errorf("encoding plan %q: %w", p.Name, err)
		}
		records = append(records, data)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	b.logger.Info("plans exported", zap.String("path", path), zap.Int("count", len(records)))
	return len(records), nil
}

// Import reads a file written by Export and saves every plan as a new plan.
// Stored IDs are discarded. Records of another format are rejected; the
// plans saved before the failure remain saved.
func (b *Backend) Import(ctx context.Context, path string) ([]int64, error) {
	records, skipped, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		b.logger.Warn("malformed lines skipped", zap.String("path", path), zap.Int("count", skipped))
	}

	var ids []int64
	for i, raw := range records {
		var rec planRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return ids, fmt.Errorf("%w: record %d: %v", types.ErrInvalidData, i+1, err)
		}
		if rec.Format != exportFormat || rec.Plan == nil {
			return ids, fmt.Errorf("%w: record %d has format %q", types.ErrInvalidData, i+1, rec.Format)
		}
		p := rec.Plan
		p.ID, p.CreatedAt = 0, time.Time{}
		for j := range p.Rules {
			p.Rules[j].ID, p.Rules[j].PlanID = 0, 0
		}
		for j := range p.Mappings {
			p.Mappings[j].ID, p.Mappings[j].PlanID = 0, 0
		}
		id, err := b.Save(ctx, p)
		if err != nil {
			return ids, fmt.Errorf("importing plan %q: %w", p.Name, err)
		}
		ids = append(ids, id)
	}
	b.logger.Info("plans imported", zap.String("path", path), zap.Int("count", len(ids)))
	return ids, nil
}
