package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/crewforge/crewd/internal/app/readiness"
)

type ReadyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stageID string
	output  string
}

// NewReadyCommand returns the ready command.
func NewReadyCommand(rootCmd *RootCommand, app *kingpin.Application) *ReadyCommand {
	c := &ReadyCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("ready", "Check whether a pipeline stage may run.")
	c.Cmd.Arg("stage", "Stage ID to check.").Required().StringVar(&c.stageID)
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputFormatTable).EnumVar(&c.output, OutputFormatTable, OutputFormatJSON)

	return c
}

func (c ReadyCommand) Name() string { return c.Cmd.FullCommand() }

func (c ReadyCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newReadinessService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	result, err := svc.IsReady(ctx, c.stageID)
	if err != nil {
		return fmt.Errorf("could not check readiness: %w", err)
	}

	return c.rootCmd.Printer(c.output).PrintReadiness(*result)
}

// newReadinessService wires the readiness service from the root command
// configuration, shared by the ready and file-status commands.
func newReadinessService(ctx context.Context, rootCmd *RootCommand) (*readiness.Service, func() error, error) {
	pipeline, err := rootCmd.Pipeline(ctx)
	if err != nil {
		return nil, nil, err
	}

	repo, closeRepo, err := rootCmd.StateRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	svc, err := readiness.NewService(readiness.ServiceConfig{
		Pipeline:   pipeline,
		Repository: repo,
		Artifacts:  readiness.NewDirArtifactChecker(rootCmd.WorkspaceDir),
		Logger:     rootCmd.Logger,
	})
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("could not create readiness service: %w", err)
	}

	return svc, closeRepo, nil
}
