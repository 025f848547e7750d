package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/sandbox/docker"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	output string
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Check that the environment can run the sandbox.")
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputFormatTable).EnumVar(&c.output, OutputFormatTable, OutputFormatJSON)

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	engine, err := docker.NewEngine(docker.EngineConfig{
		Sandbox: c.rootCmd.SandboxConfig(),
		Logger:  c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	results := engine.Check(ctx)

	if err := c.rootCmd.Printer(c.output).PrintChecks(results); err != nil {
		return err
	}

	if model.HasErrors(results) {
		return fmt.Errorf("environment checks failed")
	}

	return nil
}
