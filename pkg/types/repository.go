package types

import "context"

// PlanRepository persists plans. Load and Save either succeed or fail
// cleanly; errors are propagated to the caller unchanged.
type PlanRepository interface {
	// Load returns the active plan with the given ID, or ErrNotFound.
	Load(ctx context.Context, id int64) (*FilterPlan, error)

	// Save inserts the plan when its ID is zero and replaces it otherwise.
	// Returns the plan ID; an insert also sets plan.ID.
	Save(ctx context.Context, plan *FilterPlan) (int64, error)

	// List returns plans ordered by most recently updated.
	List(ctx context.Context, includeInactive bool) ([]*FilterPlan, error)

	// SoftDelete marks the plan inactive. Delete removes it with its rules
	// and mappings.
	SoftDelete(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Store is a PlanRepository with a backend lifecycle.
type Store interface {
	PlanRepository

	// Attach connects to the backend described by config. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach, operations
	// return ErrStoreDetached.
	Detach() error
}
