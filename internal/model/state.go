package model

import "time"

// WorkflowState is the aggregate of everything the pipeline persists: the
// to-do ledger, per-stage progress, the produced-artifact registry and
// free-form notes. It is the sole unit of durability, repositories load and
// save it as a whole document.
type WorkflowState struct {
	Todo        []WorkItem
	Done        []WorkItem
	Stages      map[string]Stage
	Artifacts   map[string]ArtifactRecord
	Notes       []string
	LastUpdated time.Time
}

// NewWorkflowState returns an empty workflow state ready to be used.
func NewWorkflowState() *WorkflowState {
	return &WorkflowState{
		Todo:      []WorkItem{},
		Done:      []WorkItem{},
		Stages:    map[string]Stage{},
		Artifacts: map[string]ArtifactRecord{},
		Notes:     []string{},
	}
}

// NextWorkItemID returns the ID for the next work item added to the ledger.
func (s *WorkflowState) NextWorkItemID() int {
	return len(s.Todo) + len(s.Done) + 1
}
