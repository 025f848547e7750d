package model

import (
	"fmt"
	"time"
)

// WorkItemPriority represents the priority of a work item.
type WorkItemPriority string

const (
	WorkItemPriorityHigh   WorkItemPriority = "high"
	WorkItemPriorityMedium WorkItemPriority = "medium"
	WorkItemPriorityLow    WorkItemPriority = "low"
)

// WorkItemStatus represents the status of a work item.
type WorkItemStatus string

const (
	WorkItemStatusPending WorkItemStatus = "pending"
	WorkItemStatusDone    WorkItemStatus = "done"
)

// WorkItem is a single entry of the shared to-do ledger. IDs are monotonic,
// derived from the ledger length at creation time.
type WorkItem struct {
	ID          int
	Description string
	Priority    WorkItemPriority
	Status      WorkItemStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Validate validates a work item.
func (w WorkItem) Validate() error {
	if w.Description == "" {
		return fmt.Errorf("description is required: %w", ErrNotValid)
	}

	switch w.Priority {
	case WorkItemPriorityHigh, WorkItemPriorityMedium, WorkItemPriorityLow:
	default:
		return fmt.Errorf("unknown priority %q: %w", w.Priority, ErrNotValid)
	}

	return nil
}
