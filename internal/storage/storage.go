package storage

import (
	"context"

	"github.com/crewforge/crewd/internal/model"
)

// StateRepository is the interface for workflow state persistence.
//
// The workflow state is read-modify-written as a whole document. The
// repository gives no concurrent-writer arbitration: the last save wins over
// the full document, and callers are responsible for sequencing their
// read-modify-write cycles (the pipeline's dependency graph naturally
// serializes per-stage updates).
type StateRepository interface {
	// Load returns the current workflow state. A missing or corrupt backing
	// store is never an error, it loads as an empty default state.
	Load(ctx context.Context) (*model.WorkflowState, error)
	// Save overwrites the whole persisted document and stamps LastUpdated.
	Save(ctx context.Context, state *model.WorkflowState) error
}

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name StateRepository
