package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crewforge/crewd/internal/conventions"
	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/sandbox"
	"github.com/crewforge/crewd/internal/sandbox/docker"
	"github.com/crewforge/crewd/internal/sandbox/fake"
	"github.com/crewforge/crewd/internal/storage"
	storagefile "github.com/crewforge/crewd/internal/storage/file"
	storagesqlite "github.com/crewforge/crewd/internal/storage/sqlite"
)

// StateBackend selects how the workflow state is persisted.
type StateBackend string

const (
	// StateBackendFile persists the state as a single JSON document in the
	// workspace. This is the default and is shareable with other tools that
	// read the same document.
	StateBackendFile StateBackend = "file"
	// StateBackendSQLite persists the state in a SQLite database in the
	// workspace.
	StateBackendSQLite StateBackend = "sqlite"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use ~/.crewd/workspace as the shared workspace, the built-in
// pipeline, and the Docker engine.
type Config struct {
	// WorkspaceDir is the shared workspace directory mounted into the sandbox
	// and scanned for stage output files.
	// Default: ~/.crewd/workspace.
	WorkspaceDir string

	// Pipeline is the static stage dependency graph. When empty, the built-in
	// software team pipeline is used.
	Pipeline []StageDecl

	// Image is the sandbox container image.
	// Default: nikolaik/python-nodejs:latest.
	Image string

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// Engine forces all sandbox operations to use this engine type.
	// Default: [EngineDocker].
	//
	// Set this to [EngineFake] for testing without a container runtime.
	Engine EngineType

	// StateBackend selects the workflow state persistence backend.
	// Default: [StateBackendFile].
	StateBackend StateBackend
}

func (c *Config) defaults() error {
	if c.WorkspaceDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.WorkspaceDir = filepath.Join(home, conventions.DefaultDataDir, conventions.DefaultWorkspaceDir)
	}

	if c.Image == "" {
		c.Image = conventions.SandboxImage
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	if c.Engine == "" {
		c.Engine = EngineDocker
	}

	if c.StateBackend == "" {
		c.StateBackend = StateBackendFile
	}

	return nil
}

// Client is the main SDK entry point for coordinating a build pipeline
// programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	repo         storage.StateRepository
	pipeline     model.Pipeline
	engine       sandbox.Engine
	logger       log.Logger
	workspaceDir string
	closeFn      func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to release resources.
// Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	pipeline := conventions.DefaultPipeline()
	if len(cfg.Pipeline) > 0 {
		pipeline = model.Pipeline{Stages: toInternalStageDecls(cfg.Pipeline)}
		if err := pipeline.Validate(); err != nil {
			return nil, mapError(fmt.Errorf("invalid pipeline: %w", err))
		}
	}

	repo, closeFn, err := newStateRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create state repository: %w", err)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		closeFn()
		return nil, mapError(fmt.Errorf("could not create engine: %w", err))
	}

	return &Client{
		repo:         repo,
		pipeline:     pipeline,
		engine:       eng,
		logger:       cfg.Logger,
		workspaceDir: cfg.WorkspaceDir,
		closeFn:      closeFn,
	}, nil
}

// Close releases resources held by the client. After Close returns, the
// client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// Doctor runs preflight health checks for the configured engine.
//
// For [EngineDocker], this checks Docker daemon reachability, the workspace
// directory, image presence and the sandbox container state. For
// [EngineFake], all checks pass.
//
// Returns a slice of [CheckResult] describing each check's outcome.
func (c *Client) Doctor(ctx context.Context) ([]CheckResult, error) {
	return fromInternalCheckResults(c.engine.Check(ctx)), nil
}

func newStateRepository(ctx context.Context, cfg Config) (storage.StateRepository, func() error, error) {
	noopClose := func() error { return nil }

	switch cfg.StateBackend {
	case StateBackendSQLite:
		repo, err := storagesqlite.NewRepository(ctx, storagesqlite.RepositoryConfig{
			DBPath: conventions.StateDBPath(cfg.WorkspaceDir),
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case StateBackendFile:
		repo, err := storagefile.NewRepository(storagefile.RepositoryConfig{
			Path:   conventions.StateFilePath(cfg.WorkspaceDir),
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return repo, noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported state backend: %s: %w", cfg.StateBackend, ErrNotValid)
	}
}

func newEngine(cfg Config) (sandbox.Engine, error) {
	sandboxCfg := model.SandboxConfig{
		Name:         conventions.SandboxName,
		Image:        cfg.Image,
		WorkspaceDir: cfg.WorkspaceDir,
		MountPath:    conventions.SandboxMountPath,
	}

	switch cfg.Engine {
	case EngineDocker:
		return docker.NewEngine(docker.EngineConfig{
			Sandbox: sandboxCfg,
			Logger:  cfg.Logger,
		})
	case EngineFake:
		return fake.NewEngine(fake.EngineConfig{
			Sandbox: sandboxCfg,
			Logger:  cfg.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported engine type: %s: %w", cfg.Engine, ErrNotValid)
	}
}
