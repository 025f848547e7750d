package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type FileStatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	fileName string
	output   string
}

// NewFileStatusCommand returns the file-status command.
func NewFileStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *FileStatusCommand {
	c := &FileStatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("file-status", "Check whether a workspace artifact exists and which stage produces it.")
	c.Cmd.Arg("file", "File name relative to the workspace.").Required().StringVar(&c.fileName)
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputFormatTable).EnumVar(&c.output, OutputFormatTable, OutputFormatJSON)

	return c
}

func (c FileStatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c FileStatusCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newReadinessService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	status, err := svc.FileStatus(ctx, c.fileName)
	if err != nil {
		return fmt.Errorf("could not check file status: %w", err)
	}

	return c.rootCmd.Printer(c.output).PrintFileStatus(*status)
}
