package docker

import "context"

// SetCommandRunner replaces the docker CLI runner so tests can script exec
// results without a real docker binary.
func (e *Engine) SetCommandRunner(run func(ctx context.Context, args ...string) (string, int, error)) {
	e.run = run
}
