// JSON record structures for plan export files.
package sqlite

import (
	"time"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// exportFormat identifies the layout of one export line.
const exportFormat = "sheetplan.plan/v1"

// planRecord is one line of a plan export file.
type planRecord struct {
	Format     string            `json:"format"`
	ExportedAt string            `json:"exported_at"`
	Plan       *types.FilterPlan `json:"plan"`
}

func newPlanRecord(p *types.FilterPlan, now time.Time) planRecord {
	return planRecord{
		Format:     exportFormat,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Plan:       p,
	}
}
