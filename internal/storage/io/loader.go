package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/crewforge/crewd/internal/model"
)

// PipelineYAMLRepository loads pipeline definitions from YAML files.
type PipelineYAMLRepository struct {
	fs fs.FS
}

// NewPipelineYAMLRepository creates a new YAML pipeline repository.
func NewPipelineYAMLRepository(filesystem fs.FS) *PipelineYAMLRepository {
	return &PipelineYAMLRepository{fs: filesystem}
}

// GetPipeline loads a pipeline definition from a YAML file and returns a
// validated domain model.
func (r *PipelineYAMLRepository) GetPipeline(ctx context.Context, path string) (model.Pipeline, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Pipeline{}, fmt.Errorf("reading pipeline file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Pipeline{}, ctx.Err()
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return model.Pipeline{}, fmt.Errorf("parsing YAML: %w", err)
	}

	pipeline := p.toModel()
	if err := pipeline.Validate(); err != nil {
		return model.Pipeline{}, fmt.Errorf("invalid pipeline: %w", err)
	}

	return pipeline, nil
}

// Pipeline represents the YAML structure of a pipeline definition.
type Pipeline struct {
	Stages []StageConfig `yaml:"stages"`
}

// StageConfig represents the YAML structure of a stage declaration.
type StageConfig struct {
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"depends_on"`
	Output    string   `yaml:"output"`
}

func (p Pipeline) toModel() model.Pipeline {
	pipeline := model.Pipeline{}
	for _, s := range p.Stages {
		pipeline.Stages = append(pipeline.Stages, model.StageDecl{
			ID:         s.Name,
			DependsOn:  s.DependsOn,
			OutputFile: s.Output,
		})
	}
	return pipeline
}
