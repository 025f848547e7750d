package sandbox

import (
	"context"

	"github.com/crewforge/crewd/internal/model"
)

// Engine is the interface for the execution sandbox lifecycle.
type Engine interface {
	// Check performs preflight checks and returns the results.
	// Checks verify that the engine can reach its runtime and dependencies.
	Check(ctx context.Context) []model.CheckResult

	// Acquire resolves the singleton sandbox, provisioning it if absent and
	// starting it if stopped. It is idempotent: calling it when the sandbox
	// is already running is a no-op attach.
	Acquire(ctx context.Context) (*model.Sandbox, error)

	// Exec executes a shell command inside the running sandbox. The command
	// runs through an interpreter so pipes and chaining are honored. A
	// non-zero exit code is returned in the result, not as an error.
	Exec(ctx context.Context, command string, opts model.ExecOpts) (*model.ExecResult, error)
}

//go:generate mockery --case underscore --output sandboxmock --outpkg sandboxmock --name Engine
