package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.StateRepository, used
// for tests and ephemeral embedding.
type Repository struct {
	state  *model.WorkflowState
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		state:  model.NewWorkflowState(),
		logger: cfg.Logger,
	}, nil
}

// Load returns a copy of the current workflow state.
func (r *Repository) Load(ctx context.Context) (*model.WorkflowState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return copyState(r.state), nil
}

// Save overwrites the stored workflow state with a copy of the given one.
func (r *Repository) Save(ctx context.Context, state *model.WorkflowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state.LastUpdated = time.Now().UTC()
	r.state = copyState(state)
	r.logger.Debugf("Saved workflow state in memory")

	return nil
}

func copyState(s *model.WorkflowState) *model.WorkflowState {
	c := model.NewWorkflowState()
	c.Todo = append(c.Todo, s.Todo...)
	c.Done = append(c.Done, s.Done...)
	c.Notes = append(c.Notes, s.Notes...)
	c.LastUpdated = s.LastUpdated
	for id, stage := range s.Stages {
		c.Stages[id] = stage
	}
	for name, a := range s.Artifacts {
		c.Artifacts[name] = a
	}
	return c
}
