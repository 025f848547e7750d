package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/crewforge/crewd/internal/app/progress"
	"github.com/crewforge/crewd/internal/model"
)

// newProgressService wires the progress service from the root command
// configuration.
func newProgressService(ctx context.Context, rootCmd *RootCommand) (*progress.Service, func() error, error) {
	pipeline, err := rootCmd.Pipeline(ctx)
	if err != nil {
		return nil, nil, err
	}

	repo, closeRepo, err := rootCmd.StateRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	svc, err := progress.NewService(progress.ServiceConfig{
		Pipeline:   pipeline,
		Repository: repo,
		Logger:     rootCmd.Logger,
	})
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("could not create progress service: %w", err)
	}

	return svc, closeRepo, nil
}

type ProgressUpdateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stageID    string
	status     string
	percent    int
	outputFile string
	notes      string
}

// NewProgressUpdateCommand returns the progress update command.
func NewProgressUpdateCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ProgressUpdateCommand {
	c := &ProgressUpdateCommand{rootCmd: rootCmd, percent: -1}

	c.Cmd = parent.Command("update", "Merge status, progress, output file or notes into a stage record.")
	c.Cmd.Arg("stage", "Stage ID to update.").Required().StringVar(&c.stageID)
	c.Cmd.Flag("status", "Stage status.").EnumVar(&c.status,
		string(model.StageStatusPending), string(model.StageStatusRunning),
		string(model.StageStatusComplete), string(model.StageStatusFailed),
		string(model.StageStatusBlocked))
	c.Cmd.Flag("percent", "Progress percentage (0-100).").Default("-1").IntVar(&c.percent)
	c.Cmd.Flag("output-file", "Output file produced by this stage.").StringVar(&c.outputFile)
	c.Cmd.Flag("notes", "Free-text notes about the stage progress.").StringVar(&c.notes)

	return c
}

func (c ProgressUpdateCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProgressUpdateCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newProgressService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	req := progress.UpdateRequest{StageID: c.stageID}
	if c.status != "" {
		status := model.StageStatus(c.status)
		req.Status = &status
	}
	if c.percent >= 0 {
		req.Percent = &c.percent
	}
	if c.outputFile != "" {
		req.OutputFile = &c.outputFile
	}
	if c.notes != "" {
		req.Notes = &c.notes
	}

	stage, err := svc.Update(ctx, req)
	if err != nil {
		return fmt.Errorf("could not update stage: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Updated %s: %s\n", stage.ID, stage.Status)

	return nil
}

type ProgressGetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stageID string
	output  string
}

// NewProgressGetCommand returns the progress get command.
func NewProgressGetCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ProgressGetCommand {
	c := &ProgressGetCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("get", "Get the recorded progress of a stage.")
	c.Cmd.Arg("stage", "Stage ID to get.").Required().StringVar(&c.stageID)
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputFormatTable).EnumVar(&c.output, OutputFormatTable, OutputFormatJSON)

	return c
}

func (c ProgressGetCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProgressGetCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newProgressService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	stage, err := svc.Get(ctx, c.stageID)
	if err != nil {
		return fmt.Errorf("could not get stage: %w", err)
	}

	return c.rootCmd.Printer(c.output).PrintStage(*stage)
}

type ProgressSummaryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	output string
}

// NewProgressSummaryCommand returns the progress summary command.
func NewProgressSummaryCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ProgressSummaryCommand {
	c := &ProgressSummaryCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("summary", "Show all pipeline stages in pipeline order with their artifacts.")
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputFormatTable).EnumVar(&c.output, OutputFormatTable, OutputFormatJSON)

	return c
}

func (c ProgressSummaryCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProgressSummaryCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newProgressService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	summary, err := svc.Summary(ctx)
	if err != nil {
		return fmt.Errorf("could not get summary: %w", err)
	}

	return c.rootCmd.Printer(c.output).PrintSummary(summary.Stages, summary.Artifacts)
}
