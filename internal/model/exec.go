package model

// ExecOpts contains options for executing a command in the sandbox.
type ExecOpts struct {
	// WorkingDir is the directory to run the command in. Empty means the
	// sandbox mount path.
	WorkingDir string
	// Env contains additional environment variables for this exec.
	Env map[string]string
}

// ExecResult contains the result of an exec operation. A non-zero exit code
// is data, not an error: the caller decides whether it fails the pipeline.
type ExecResult struct {
	// Output is the combined stdout/stderr of the executed command.
	Output string
	// ExitCode is the exit code of the executed command.
	ExitCode int
}
