package lib

import (
	"context"
	"fmt"

	"github.com/crewforge/crewd/internal/app/todo"
	"github.com/crewforge/crewd/internal/model"
)

func (c *Client) newTodoService() (*todo.Service, error) {
	svc, err := todo.NewService(todo.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

// AddWorkItem appends a work item to the shared pending list and returns it
// with its assigned sequential ID. An empty priority defaults to
// [WorkItemPriorityMedium].
//
// Returns [ErrNotValid] if the description is empty or the priority is
// unknown.
func (c *Client) AddWorkItem(ctx context.Context, description string, priority WorkItemPriority) (*WorkItem, error) {
	svc, err := c.newTodoService()
	if err != nil {
		return nil, err
	}

	item, err := svc.Add(ctx, todo.AddRequest{
		Description: description,
		Priority:    model.WorkItemPriority(priority),
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalWorkItem(*item)
	return &result, nil
}

// CompleteWorkItem marks a pending work item as done and returns it. The
// match text is compared case-insensitively: an item whose description equals
// the text wins over the first item whose description merely contains it.
//
// Returns [ErrNotFound] if no pending item matches, or [ErrNotValid] if the
// match text is empty.
func (c *Client) CompleteWorkItem(ctx context.Context, match string) (*WorkItem, error) {
	svc, err := c.newTodoService()
	if err != nil {
		return nil, err
	}

	item, err := svc.Complete(ctx, match)
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalWorkItem(*item)
	return &result, nil
}

// ListWorkItems returns the pending and completed work items in ledger order.
func (c *Client) ListWorkItems(ctx context.Context) (pending, completed []WorkItem, err error) {
	svc, err := c.newTodoService()
	if err != nil {
		return nil, nil, err
	}

	list, err := svc.List(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}

	return fromInternalWorkItemList(list.Pending), fromInternalWorkItemList(list.Completed), nil
}

// ClearWorkItems removes every pending and completed work item from the
// ledger.
func (c *Client) ClearWorkItems(ctx context.Context) error {
	svc, err := c.newTodoService()
	if err != nil {
		return err
	}

	return mapError(svc.Clear(ctx))
}
