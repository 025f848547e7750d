package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	appexec "github.com/crewforge/crewd/internal/app/exec"
	"github.com/crewforge/crewd/internal/sandbox/docker"
)

type ExecCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	command    []string
	workingDir string
	envSpecs   []string
}

// NewExecCommand returns the exec command.
func NewExecCommand(rootCmd *RootCommand, app *kingpin.Application) *ExecCommand {
	c := &ExecCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("exec", "Execute a shell command in the shared sandbox, provisioning it if needed.")
	c.Cmd.Arg("command", "Shell command to execute (use -- before command).").Required().StringsVar(&c.command)
	c.Cmd.Flag("workdir", "Working directory for command execution inside the sandbox.").Short('w').StringVar(&c.workingDir)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)

	return c
}

func (c ExecCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExecCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cmdEnv, err := parseEnvSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}

	engine, err := docker.NewEngine(docker.EngineConfig{
		Sandbox: c.rootCmd.SandboxConfig(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	svc, err := appexec.NewService(appexec.ServiceConfig{
		Engine: engine,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create exec service: %w", err)
	}

	result, err := svc.Run(ctx, appexec.Request{
		Command:    strings.Join(c.command, " "),
		WorkingDir: c.workingDir,
		Env:        cmdEnv,
	})
	if err != nil {
		return fmt.Errorf("could not execute command: %w", err)
	}

	if result.Output != "" {
		fmt.Fprintln(c.rootCmd.Stdout, result.Output)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d", result.ExitCode)
	}

	return nil
}
