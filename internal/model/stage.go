package model

import (
	"fmt"
	"time"
)

// StageStatus represents the runtime status of a pipeline stage.
type StageStatus string

const (
	// StageStatusPending indicates the stage has not started yet.
	StageStatusPending StageStatus = "pending"
	// StageStatusRunning indicates the stage is currently executing.
	StageStatusRunning StageStatus = "running"
	// StageStatusComplete indicates the stage finished successfully.
	StageStatusComplete StageStatus = "complete"
	// StageStatusFailed indicates the stage finished with an error.
	StageStatusFailed StageStatus = "failed"
	// StageStatusBlocked indicates the stage can't run because of unmet
	// predecessors. Blocked stages are not auto-recovered, an external actor
	// must re-drive the status.
	StageStatusBlocked StageStatus = "blocked"
)

// ValidStageStatus returns true if the status is one of the known stage statuses.
func ValidStageStatus(s StageStatus) bool {
	switch s {
	case StageStatusPending, StageStatusRunning, StageStatusComplete, StageStatusFailed, StageStatusBlocked:
		return true
	}
	return false
}

// Stage is the recorded runtime state of a single pipeline stage. Stages are
// created implicitly on the first status update and only ever overwritten,
// never deleted.
type Stage struct {
	ID         string
	Status     StageStatus
	Percent    int
	OutputFile string
	Notes      string
	UpdatedAt  time.Time
}

// StageDecl is the static declaration of a pipeline stage: its predecessors
// and the artifact it is expected to produce (empty means none).
type StageDecl struct {
	ID         string
	DependsOn  []string
	OutputFile string
}

// Pipeline is the static stage-dependency graph. The declaration order is the
// pipeline presentation order used for summaries and readiness reports.
type Pipeline struct {
	Stages []StageDecl
}

// Decl returns the declaration of a stage by ID.
func (p Pipeline) Decl(stageID string) (*StageDecl, error) {
	for _, s := range p.Stages {
		if s.ID == stageID {
			decl := s
			return &decl, nil
		}
	}
	return nil, fmt.Errorf("stage %q: %w", stageID, ErrNotFound)
}

// ProducerOf returns the declaration of the stage that declares fileName as
// its expected output.
func (p Pipeline) ProducerOf(fileName string) (*StageDecl, error) {
	for _, s := range p.Stages {
		if s.OutputFile != "" && s.OutputFile == fileName {
			decl := s
			return &decl, nil
		}
	}
	return nil, fmt.Errorf("no stage produces %q: %w", fileName, ErrNotFound)
}

// Validate checks the pipeline graph is well formed: no duplicate stages, no
// dangling predecessor references and no cycles. Cycle detection is a
// topological sort over the declared edges, so a broken graph is caught at
// startup instead of midway through a run.
func (p Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline needs at least one stage: %w", ErrNotValid)
	}

	ids := map[string]bool{}
	for _, s := range p.Stages {
		if s.ID == "" {
			return fmt.Errorf("stage id is required: %w", ErrNotValid)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicated stage %q: %w", s.ID, ErrNotValid)
		}
		ids[s.ID] = true
	}

	indegree := map[string]int{}
	for _, s := range p.Stages {
		for _, dep := range s.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("stage %q depends on unknown stage %q: %w", s.ID, dep, ErrNotValid)
			}
			if dep == s.ID {
				return fmt.Errorf("stage %q depends on itself: %w", s.ID, ErrNotValid)
			}
			indegree[s.ID]++
		}
	}

	// Kahn's algorithm, if we can't visit every stage there is a cycle.
	var queue []string
	for _, s := range p.Stages {
		if indegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		visited++

		for _, s := range p.Stages {
			for _, dep := range s.DependsOn {
				if dep != current {
					continue
				}
				indegree[s.ID]--
				if indegree[s.ID] == 0 {
					queue = append(queue, s.ID)
				}
			}
		}
	}

	if visited != len(p.Stages) {
		return fmt.Errorf("pipeline has a dependency cycle: %w", ErrNotValid)
	}

	return nil
}
