package lib

import (
	"context"
	"fmt"

	appexec "github.com/crewforge/crewd/internal/app/exec"
)

// Exec executes a shell command inside the shared sandbox and returns its
// combined output and exit code.
//
// The sandbox is acquired lazily: an absent sandbox is provisioned, a stopped
// one is restarted, a running one is reused. The command must be non-empty
// and runs through a shell, so pipes and redirections work.
//
// A non-zero exit code is reported in the result, not as an error. Errors are
// reserved for infrastructure failures.
//
// Returns [ErrNotValid] if the command is empty, or [ErrRuntimeUnavailable]
// if the container runtime cannot be reached.
func (c *Client) Exec(ctx context.Context, command string, opts *ExecOpts) (*ExecResult, error) {
	svc, err := appexec.NewService(appexec.ServiceConfig{
		Engine: c.engine,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := appexec.Request{Command: command}
	if opts != nil {
		req.WorkingDir = opts.WorkingDir
		req.Env = opts.Env
	}

	result, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return &ExecResult{Output: result.Output, ExitCode: result.ExitCode}, nil
}

// AcquireSandbox ensures the shared sandbox is running and returns its
// state. An absent sandbox is provisioned and a stopped one is restarted.
//
// Returns [ErrRuntimeUnavailable] if the container runtime cannot be reached.
func (c *Client) AcquireSandbox(ctx context.Context) (*Sandbox, error) {
	sb, err := c.engine.Acquire(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalSandbox(*sb)
	return &result, nil
}
