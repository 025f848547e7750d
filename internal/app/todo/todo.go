package todo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/storage"
)

// ServiceConfig is the configuration for the todo service.
type ServiceConfig struct {
	Repository storage.StateRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Todo"})
	return nil
}

// Service manages the shared to-do ledger the pipeline agents coordinate on.
type Service struct {
	repo   storage.StateRepository
	logger log.Logger
}

// NewService creates a new todo service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// AddRequest contains the parameters for adding a work item.
type AddRequest struct {
	Description string
	// Priority defaults to medium when empty.
	Priority model.WorkItemPriority
}

// Add appends a new pending work item to the ledger. IDs are monotonic over
// the whole ledger (pending plus done).
func (s *Service) Add(ctx context.Context, req AddRequest) (*model.WorkItem, error) {
	if req.Priority == "" {
		req.Priority = model.WorkItemPriorityMedium
	}

	item := model.WorkItem{
		Description: req.Description,
		Priority:    req.Priority,
		Status:      model.WorkItemStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("invalid work item: %w", err)
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	item.ID = state.NextWorkItemID()
	state.Todo = append(state.Todo, item)

	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("could not save workflow state: %w", err)
	}

	s.logger.Infof("Added work item #%d: %s [%s]", item.ID, item.Description, item.Priority)

	return &item, nil
}

// Complete marks a pending work item as done, matching case-insensitively on
// the given text. An exact description match wins over a substring match and
// a substring match resolves to the first pending item in ledger order, so
// completion is deterministic when several items match.
func (s *Service) Complete(ctx context.Context, match string) (*model.WorkItem, error) {
	if match == "" {
		return nil, fmt.Errorf("match text is required: %w", model.ErrNotValid)
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	idx := matchWorkItem(state.Todo, match)
	if idx < 0 {
		return nil, fmt.Errorf("no pending work item matching %q: %w", match, model.ErrNotFound)
	}

	item := state.Todo[idx]
	now := time.Now().UTC()
	item.Status = model.WorkItemStatusDone
	item.CompletedAt = &now

	state.Todo = append(state.Todo[:idx], state.Todo[idx+1:]...)
	state.Done = append(state.Done, item)

	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("could not save workflow state: %w", err)
	}

	s.logger.Infof("Completed work item #%d: %s", item.ID, item.Description)

	return &item, nil
}

// List is the current content of the ledger.
type List struct {
	Pending   []model.WorkItem
	Completed []model.WorkItem
}

// List returns all pending and completed work items in ledger order.
func (s *Service) List(ctx context.Context) (*List, error) {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	return &List{
		Pending:   state.Todo,
		Completed: state.Done,
	}, nil
}

// Clear removes every pending and completed work item from the ledger.
func (s *Service) Clear(ctx context.Context) error {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("could not load workflow state: %w", err)
	}

	state.Todo = []model.WorkItem{}
	state.Done = []model.WorkItem{}

	if err := s.repo.Save(ctx, state); err != nil {
		return fmt.Errorf("could not save workflow state: %w", err)
	}

	s.logger.Infof("Cleared work item ledger")

	return nil
}

// matchWorkItem returns the index of the pending item to complete: first an
// exact case-insensitive description match, then the first case-insensitive
// substring match, -1 if none.
func matchWorkItem(items []model.WorkItem, match string) int {
	lowered := strings.ToLower(match)

	for i, item := range items {
		if strings.ToLower(item.Description) == lowered {
			return i
		}
	}
	for i, item := range items {
		if strings.Contains(strings.ToLower(item.Description), lowered) {
			return i
		}
	}

	return -1
}
