package lib

import (
	"context"
	"fmt"

	"github.com/crewforge/crewd/internal/app/readiness"
)

func (c *Client) newReadinessService() (*readiness.Service, error) {
	svc, err := readiness.NewService(readiness.ServiceConfig{
		Pipeline:   c.pipeline,
		Repository: c.repo,
		Artifacts:  readiness.NewDirArtifactChecker(c.workspaceDir),
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

// IsReady reports whether a stage may run: every predecessor in the static
// dependency graph must have a recorded complete status and, when it declares
// an output file, that file must exist in the workspace.
//
// Blocking and complete predecessors are listed in declaration order, so
// repeated calls with the same state return identical results.
//
// Returns [ErrNotFound] if the stage is not part of the pipeline.
func (c *Client) IsReady(ctx context.Context, stageID string) (*ReadinessResult, error) {
	svc, err := c.newReadinessService()
	if err != nil {
		return nil, err
	}

	result, err := svc.IsReady(ctx, stageID)
	if err != nil {
		return nil, mapError(err)
	}

	return &ReadinessResult{
		StageID:        result.StageID,
		Ready:          result.Ready,
		BlockingStages: result.BlockingStages,
		CompleteStages: result.CompleteStages,
	}, nil
}

// FileStatus reports whether a workspace file exists and, when a pipeline
// stage declares it as output, the producing stage and its recorded status.
//
// Returns [ErrNotValid] if the file name is empty.
func (c *Client) FileStatus(ctx context.Context, fileName string) (*FileStatus, error) {
	svc, err := c.newReadinessService()
	if err != nil {
		return nil, err
	}

	status, err := svc.FileStatus(ctx, fileName)
	if err != nil {
		return nil, mapError(err)
	}

	return &FileStatus{
		FileName:             status.FileName,
		Exists:               status.Exists,
		ProducingStage:       status.ProducingStage,
		ProducingStageStatus: StageStatus(status.ProducingStageStatus),
	}, nil
}
