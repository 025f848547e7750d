package readiness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/storage"
)

// ArtifactChecker verifies that a produced artifact is actually present in
// the shared workspace. The artifact registry is only a claim: a stage can
// crash between registering its output and the file landing on disk, so
// readiness never trusts the ledger alone.
type ArtifactChecker interface {
	Exists(ctx context.Context, fileName string) (bool, error)
}

// NewDirArtifactChecker returns an ArtifactChecker backed by a workspace
// directory on the local filesystem.
func NewDirArtifactChecker(dir string) ArtifactChecker {
	return dirArtifactChecker{dir: dir}
}

type dirArtifactChecker struct {
	dir string
}

func (c dirArtifactChecker) Exists(ctx context.Context, fileName string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	_, err := os.Stat(filepath.Join(c.dir, fileName))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("could not stat %s: %w", fileName, err)
	}
}

// ServiceConfig is the configuration for the readiness service.
type ServiceConfig struct {
	Pipeline   model.Pipeline
	Repository storage.StateRepository
	Artifacts  ArtifactChecker
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline: %w", err)
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Artifacts == nil {
		return fmt.Errorf("artifact checker is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Readiness"})
	return nil
}

// Service answers whether a pipeline stage may run, based on the recorded
// state of its predecessors and the artifacts they produced.
type Service struct {
	pipeline model.Pipeline
	repo     storage.StateRepository
	checker  ArtifactChecker
	logger   log.Logger
}

// NewService creates a new readiness service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		pipeline: cfg.Pipeline,
		repo:     cfg.Repository,
		checker:  cfg.Artifacts,
		logger:   cfg.Logger,
	}, nil
}

// Result is the answer to a readiness query. BlockingStages and
// CompleteStages mirror the static predecessor declaration order, so results
// are deterministic.
type Result struct {
	StageID        string
	Ready          bool
	BlockingStages []string
	CompleteStages []string
}

// IsReady reports whether a stage may run. A stage with no predecessors is
// trivially ready. A predecessor counts as satisfied only if its recorded
// status is complete and, when it declares an output artifact, that artifact
// exists in the workspace.
func (s *Service) IsReady(ctx context.Context, stageID string) (*Result, error) {
	decl, err := s.pipeline.Decl(stageID)
	if err != nil {
		return nil, fmt.Errorf("could not resolve stage: %w", err)
	}

	result := &Result{StageID: stageID, Ready: true}
	if len(decl.DependsOn) == 0 {
		s.logger.Debugf("Stage %s has no predecessors, ready", stageID)
		return result, nil
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	for _, depID := range decl.DependsOn {
		satisfied, err := s.predecessorSatisfied(ctx, state, depID)
		if err != nil {
			return nil, err
		}
		if satisfied {
			result.CompleteStages = append(result.CompleteStages, depID)
		} else {
			result.BlockingStages = append(result.BlockingStages, depID)
		}
	}

	result.Ready = len(result.BlockingStages) == 0

	s.logger.Debugf("Stage %s readiness: ready=%t blocking=%v", stageID, result.Ready, result.BlockingStages)

	return result, nil
}

func (s *Service) predecessorSatisfied(ctx context.Context, state *model.WorkflowState, depID string) (bool, error) {
	if state.Stages[depID].Status != model.StageStatusComplete {
		return false, nil
	}

	depDecl, err := s.pipeline.Decl(depID)
	if err != nil {
		return false, fmt.Errorf("could not resolve predecessor: %w", err)
	}
	if depDecl.OutputFile == "" {
		return true, nil
	}

	exists, err := s.checker.Exists(ctx, depDecl.OutputFile)
	if err != nil {
		return false, fmt.Errorf("could not check artifact %s: %w", depDecl.OutputFile, err)
	}

	return exists, nil
}

// FileStatus is the diagnostic answer for an artifact lookup: whether the
// file is on disk and, when a stage declares it as output, who produces it
// and how far along that stage is. This lets a blocked agent be told "wait
// for design_task" instead of a bare not-found.
type FileStatus struct {
	FileName             string
	Exists               bool
	ProducingStage       string
	ProducingStageStatus model.StageStatus
}

// FileStatus reports the presence of a workspace file and its producing
// stage's recorded status.
func (s *Service) FileStatus(ctx context.Context, fileName string) (*FileStatus, error) {
	if fileName == "" {
		return nil, fmt.Errorf("file name is required: %w", model.ErrNotValid)
	}

	exists, err := s.checker.Exists(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("could not check file %s: %w", fileName, err)
	}

	status := &FileStatus{FileName: fileName, Exists: exists}

	producer, err := s.pipeline.ProducerOf(fileName)
	if err != nil {
		// Not an expected pipeline output, presence is all we can say.
		return status, nil
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	status.ProducingStage = producer.ID
	status.ProducingStageStatus = model.StageStatusPending
	if stage, ok := state.Stages[producer.ID]; ok && stage.Status != "" {
		status.ProducingStageStatus = stage.Status
	}

	return status, nil
}
