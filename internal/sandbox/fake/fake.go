package fake

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
)

// EngineConfig is the configuration for the fake engine.
type EngineConfig struct {
	Sandbox model.SandboxConfig
	// ExecResults maps commands to scripted results. Commands without an
	// entry succeed with empty output.
	ExecResults map[string]model.ExecResult
	Logger      log.Logger
}

func (c *EngineConfig) defaults() error {
	if c.Sandbox.Name == "" {
		c.Sandbox = model.SandboxConfig{
			Name:         "fake-sandbox",
			Image:        "fake-image:latest",
			WorkspaceDir: "/tmp/fake-workspace",
			MountPath:    "/app",
		}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "engine.Fake"})
	return nil
}

// Engine is a fake implementation of the sandbox.Engine interface.
// It simulates the sandbox lifecycle without a container runtime, so tests
// and demos can drive every starting state deterministically.
type Engine struct {
	sandbox     *model.Sandbox
	cfg         model.SandboxConfig
	execResults map[string]model.ExecResult
	execLog     []string
	mu          sync.Mutex
	logger      log.Logger
}

// NewEngine creates a new fake engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		cfg:         cfg.Sandbox,
		execResults: cfg.ExecResults,
		logger:      cfg.Logger,
	}, nil
}

// Check always reports a reachable runtime.
func (e *Engine) Check(ctx context.Context) []model.CheckResult {
	return []model.CheckResult{
		{ID: "fake_runtime", Status: model.CheckStatusOK, Message: "Fake runtime is always reachable"},
	}
}

// Acquire provisions the fake sandbox on first call and attaches to it on
// subsequent ones.
func (e *Engine) Acquire(ctx context.Context) (*model.Sandbox, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sandbox != nil {
		if e.sandbox.Status != model.SandboxStatusRunning {
			now := time.Now().UTC()
			e.sandbox.Status = model.SandboxStatusRunning
			e.sandbox.StartedAt = &now
			e.logger.Debugf("Started fake sandbox %s", e.sandbox.Name)
		}
		s := *e.sandbox
		return &s, nil
	}

	now := time.Now().UTC()
	e.sandbox = &model.Sandbox{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Name:      e.cfg.Name,
		Status:    model.SandboxStatusRunning,
		Config:    e.cfg,
		CreatedAt: now,
		StartedAt: &now,
	}
	e.logger.Debugf("Provisioned fake sandbox %s", e.sandbox.Name)

	s := *e.sandbox
	return &s, nil
}

// Exec returns the scripted result for the command, or an empty success.
func (e *Engine) Exec(ctx context.Context, command string, opts model.ExecOpts) (*model.ExecResult, error) {
	if command == "" {
		return nil, fmt.Errorf("command cannot be empty: %w", model.ErrNotValid)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sandbox == nil || e.sandbox.Status != model.SandboxStatusRunning {
		return nil, fmt.Errorf("sandbox %s is not running: %w", e.cfg.Name, model.ErrNotValid)
	}

	e.execLog = append(e.execLog, command)

	if result, ok := e.execResults[command]; ok {
		r := result
		return &r, nil
	}

	return &model.ExecResult{}, nil
}

// Stop marks the fake sandbox as stopped, so tests can exercise restarts.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sandbox != nil {
		e.sandbox.Status = model.SandboxStatusStopped
	}
}

// ExecLog returns the commands executed so far.
func (e *Engine) ExecLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string{}, e.execLog...)
}

// Sandbox returns the current fake sandbox state, nil if not provisioned.
func (e *Engine) Sandbox() *model.Sandbox {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sandbox == nil {
		return nil
	}
	s := *e.sandbox
	return &s
}
