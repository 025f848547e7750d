package progress

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/storage"
)

// ServiceConfig is the configuration for the progress service.
type ServiceConfig struct {
	Pipeline   model.Pipeline
	Repository storage.StateRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline: %w", err)
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Progress"})
	return nil
}

// Service records and reports per-stage pipeline progress over the shared
// workflow state.
type Service struct {
	pipeline model.Pipeline
	repo     storage.StateRepository
	logger   log.Logger
}

// NewService creates a new progress service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		pipeline: cfg.Pipeline,
		repo:     cfg.Repository,
		logger:   cfg.Logger,
	}, nil
}

// UpdateRequest contains the fields to merge into a stage record. Nil fields
// are left untouched, so callers can report progress piecemeal without
// clobbering what another update already set.
type UpdateRequest struct {
	StageID    string
	Status     *model.StageStatus
	Percent    *int
	OutputFile *string
	Notes      *string
}

// Update merges the given fields into the stage's record, creating it
// implicitly on first update. When an output file is reported it is also
// upserted into the artifact registry with the stage as producer.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*model.Stage, error) {
	if req.StageID == "" {
		return nil, fmt.Errorf("stage id is required: %w", model.ErrNotValid)
	}
	if req.Status != nil && !model.ValidStageStatus(*req.Status) {
		return nil, fmt.Errorf("unknown status %q: %w", *req.Status, model.ErrNotValid)
	}
	if req.Percent != nil && (*req.Percent < 0 || *req.Percent > 100) {
		return nil, fmt.Errorf("percent must be between 0 and 100: %w", model.ErrNotValid)
	}

	if _, err := s.pipeline.Decl(req.StageID); err != nil {
		s.logger.Warningf("Recording progress for stage %s which is not part of the pipeline", req.StageID)
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	stage := state.Stages[req.StageID]
	stage.ID = req.StageID

	if req.Status != nil {
		stage.Status = *req.Status
	}
	if req.Percent != nil {
		stage.Percent = *req.Percent
	}
	if req.Notes != nil {
		stage.Notes = *req.Notes
	}

	now := time.Now().UTC()
	if req.OutputFile != nil && *req.OutputFile != "" {
		stage.OutputFile = *req.OutputFile
		state.Artifacts[*req.OutputFile] = model.ArtifactRecord{
			FileName:  *req.OutputFile,
			CreatedBy: req.StageID,
			Status:    model.ArtifactStatusCreated,
			CreatedAt: now,
		}
	}

	stage.UpdatedAt = now
	state.Stages[req.StageID] = stage

	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("could not save workflow state: %w", err)
	}

	s.logger.Infof("Updated stage %s: status=%s percent=%d", req.StageID, stage.Status, stage.Percent)

	return &stage, nil
}

// Get returns the recorded progress of a stage. Stages without any recorded
// update return ErrNotFound.
func (s *Service) Get(ctx context.Context, stageID string) (*model.Stage, error) {
	if stageID == "" {
		return nil, fmt.Errorf("stage id is required: %w", model.ErrNotValid)
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	stage, ok := state.Stages[stageID]
	if !ok {
		return nil, fmt.Errorf("no progress recorded for stage %s: %w", stageID, model.ErrNotFound)
	}

	return &stage, nil
}

// Summary is the overview of a pipeline run: every declared stage in static
// pipeline order plus the produced-artifact registry.
type Summary struct {
	Stages    []model.Stage
	Artifacts []model.ArtifactRecord
}

// Summary returns the status of every pipeline stage in declaration order.
// Stages without any recorded update are reported as pending. Ordering never
// depends on update recency, so repeated summaries are comparable.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load workflow state: %w", err)
	}

	summary := &Summary{}
	for _, decl := range s.pipeline.Stages {
		stage, ok := state.Stages[decl.ID]
		if !ok || stage.Status == "" {
			stage.Status = model.StageStatusPending
		}
		stage.ID = decl.ID
		summary.Stages = append(summary.Stages, stage)
	}

	for _, a := range state.Artifacts {
		summary.Artifacts = append(summary.Artifacts, a)
	}
	sort.Slice(summary.Artifacts, func(i, j int) bool {
		return summary.Artifacts[i].FileName < summary.Artifacts[j].FileName
	})

	return summary, nil
}
