// Package sqlite exposes the SQLite plan store while keeping its
// implementation internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/internal/sqlite"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// NewStore creates a detached SQLite plan store. A nil logger discards logs.
//
// Example:
//
//	store := sqlite.NewStore(logger)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".sheetplan-db",
//	})
//	defer store.Detach()
func NewStore(logger *zap.Logger) types.Store {
	return sqlite.NewBackend(logger)
}
