package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/crewforge/crewd/internal/conventions"
	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/printer"
	"github.com/crewforge/crewd/internal/storage"
	storagefile "github.com/crewforge/crewd/internal/storage/file"
	storageio "github.com/crewforge/crewd/internal/storage/io"
	storagesqlite "github.com/crewforge/crewd/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// OutputFormatTable prints structured output as tables.
	OutputFormatTable = "table"
	// OutputFormatJSON prints structured output as JSON.
	OutputFormatJSON = "json"

	// StateBackendFile persists the workflow state as the shared JSON document.
	StateBackendFile = "file"
	// StateBackendSQLite persists the workflow state in a SQLite database.
	StateBackendSQLite = "sqlite"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	WorkspaceDir string
	PipelinePath string
	StateBackend string
	Image        string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultWorkspace := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir, conventions.DefaultWorkspaceDir)
	app.Flag("workspace", "Shared workspace directory mounted into the sandbox.").Envar("CREWD_WORKSPACE").Default(defaultWorkspace).StringVar(&c.WorkspaceDir)
	app.Flag("pipeline", "Path to a YAML pipeline definition (empty uses the built-in pipeline).").Envar("CREWD_PIPELINE").StringVar(&c.PipelinePath)
	app.Flag("state-backend", "Workflow state backend.").Default(StateBackendFile).EnumVar(&c.StateBackend, StateBackendFile, StateBackendSQLite)
	app.Flag("image", "Sandbox container image.").Default(conventions.SandboxImage).StringVar(&c.Image)

	return c
}

// SandboxConfig returns the sandbox configuration derived from the global
// flags.
func (c *RootCommand) SandboxConfig() model.SandboxConfig {
	return model.SandboxConfig{
		Name:         conventions.SandboxName,
		Image:        c.Image,
		WorkspaceDir: c.WorkspaceDir,
		MountPath:    conventions.SandboxMountPath,
	}
}

// Pipeline loads the pipeline definition from the configured YAML file, or
// returns the built-in pipeline when none is set.
func (c *RootCommand) Pipeline(ctx context.Context) (model.Pipeline, error) {
	if c.PipelinePath == "" {
		return conventions.DefaultPipeline(), nil
	}

	repo := storageio.NewPipelineYAMLRepository(os.DirFS(filepath.Dir(c.PipelinePath)))
	pipeline, err := repo.GetPipeline(ctx, filepath.Base(c.PipelinePath))
	if err != nil {
		return model.Pipeline{}, fmt.Errorf("could not load pipeline %s: %w", c.PipelinePath, err)
	}

	return pipeline, nil
}

// StateRepository creates the workflow state repository for the configured
// backend. The returned close function must be called when done.
func (c *RootCommand) StateRepository(ctx context.Context) (storage.StateRepository, func() error, error) {
	noopClose := func() error { return nil }

	switch c.StateBackend {
	case StateBackendSQLite:
		repo, err := storagesqlite.NewRepository(ctx, storagesqlite.RepositoryConfig{
			DBPath: conventions.StateDBPath(c.WorkspaceDir),
			Logger: c.Logger,
		})
		if err != nil {
			return nil, noopClose, fmt.Errorf("could not create sqlite state repository: %w", err)
		}
		return repo, repo.Close, nil
	default:
		repo, err := storagefile.NewRepository(storagefile.RepositoryConfig{
			Path:   conventions.StateFilePath(c.WorkspaceDir),
			Logger: c.Logger,
		})
		if err != nil {
			return nil, noopClose, fmt.Errorf("could not create file state repository: %w", err)
		}
		return repo, noopClose, nil
	}
}

// Printer returns the printer for the selected output format.
func (c *RootCommand) Printer(format string) printer.Printer {
	if format == OutputFormatJSON {
		return printer.NewJSONPrinter(c.Stdout)
	}
	return printer.NewTablePrinter(c.Stdout)
}
