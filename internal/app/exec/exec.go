package exec

import (
	"context"
	"fmt"
	"sync"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/sandbox"
)

// ServiceConfig is the configuration for the exec service.
type ServiceConfig struct {
	Engine sandbox.Engine
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Exec"})
	return nil
}

// Service handles command execution in the shared sandbox.
//
// Every run acquires the sandbox first, so the first command of a pipeline
// provisions the environment and later commands attach to it. Access to the
// sandbox is serialized with a mutex: the sandbox is a singleton and two
// agents executing at once would interleave inside the same environment.
type Service struct {
	engine sandbox.Engine
	mu     sync.Mutex
	logger log.Logger
}

// NewService creates a new exec service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		engine: cfg.Engine,
		logger: cfg.Logger,
	}, nil
}

// Request contains the parameters for executing a command.
type Request struct {
	// Command is the shell command to run (pipes and && chains allowed).
	Command string
	// WorkingDir overrides the working directory inside the sandbox.
	WorkingDir string
	// Env contains additional environment variables for this command.
	Env map[string]string
}

// Run acquires the sandbox and executes the command in it. A non-zero exit
// code is part of the result, not an error: pass/fail policy belongs to the
// caller, and the sandbox stays up for retries either way.
func (s *Service) Run(ctx context.Context, req Request) (*model.ExecResult, error) {
	if req.Command == "" {
		return nil, fmt.Errorf("command cannot be empty: %w", model.ErrNotValid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sb, err := s.engine.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not acquire sandbox: %w", err)
	}

	result, err := s.engine.Exec(ctx, req.Command, model.ExecOpts{
		WorkingDir: req.WorkingDir,
		Env:        req.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("could not execute command: %w", err)
	}

	s.logger.Debugf("Executed command in sandbox %s (%s): exit code %d", sb.Name, sb.ID, result.ExitCode)

	return result, nil
}
