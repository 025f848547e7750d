package lib

import (
	"context"
	"fmt"

	"github.com/crewforge/crewd/internal/app/progress"
	"github.com/crewforge/crewd/internal/model"
)

// UpdateStageOpts configures a partial stage update. Only non-nil fields are
// merged into the stage record, so concurrent agents can report different
// aspects of the same stage without clobbering each other.
type UpdateStageOpts struct {
	// Status sets the stage status. Nil leaves it untouched.
	Status *StageStatus
	// Percent sets the completion percentage (0-100). Nil leaves it untouched.
	Percent *int
	// OutputFile records the file the stage produced and registers it as an
	// artifact. Nil leaves it untouched.
	OutputFile *string
	// Notes replaces the stage notes. Nil leaves them untouched.
	Notes *string
}

func (c *Client) newProgressService() (*progress.Service, error) {
	svc, err := progress.NewService(progress.ServiceConfig{
		Pipeline:   c.pipeline,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

// UpdateStage merges the given fields into a stage's progress record and
// returns the updated stage. The update timestamp is refreshed on every call.
//
// Returns [ErrNotValid] if the stage ID is empty, the status is unknown, or
// the percentage is out of range.
func (c *Client) UpdateStage(ctx context.Context, stageID string, opts UpdateStageOpts) (*Stage, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	req := progress.UpdateRequest{StageID: stageID}
	if opts.Status != nil {
		status := model.StageStatus(*opts.Status)
		req.Status = &status
	}
	req.Percent = opts.Percent
	req.OutputFile = opts.OutputFile
	req.Notes = opts.Notes

	stage, err := svc.Update(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalStage(*stage)
	return &result, nil
}

// GetStage returns the recorded progress of a stage.
//
// Returns [ErrNotFound] if the stage has no recorded update.
func (c *Client) GetStage(ctx context.Context, stageID string) (*Stage, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	stage, err := svc.Get(ctx, stageID)
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalStage(*stage)
	return &result, nil
}

// Summary returns every pipeline stage in pipeline order together with the
// recorded artifacts sorted by file name. Stages without a recorded update
// appear as pending.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return &Summary{
		Stages:    fromInternalStageList(summary.Stages),
		Artifacts: fromInternalArtifactList(summary.Artifacts),
	}, nil
}
