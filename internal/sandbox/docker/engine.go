package docker

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
)

// sandboxIDLabel is the container label the provisioning ID is stored under.
const sandboxIDLabel = "crewd.sandbox-id"

// DockerClient is the interface for Docker operations that we use.
// This allows us to mock the Docker client for testing.
//
//go:generate mockery --case underscore --output dockermock --outpkg dockermock --name DockerClient
type DockerClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// EngineConfig is the configuration for the Docker engine.
type EngineConfig struct {
	Client  DockerClient
	Sandbox model.SandboxConfig
	Logger  log.Logger
}

func (c *EngineConfig) defaults() error {
	if err := c.Sandbox.Validate(); err != nil {
		return fmt.Errorf("invalid sandbox config: %w", err)
	}
	if c.Client == nil {
		// Create a default Docker client
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "engine.Docker"})
	return nil
}

// Engine is the Docker implementation of the sandbox.Engine interface.
//
// It manages one long-lived container identified by a fixed name, with the
// host workspace bind-mounted read-write at the configured mount path. The
// container is never auto-removed: once provisioned it stays, so failed
// commands can simply be retried against the same environment.
type Engine struct {
	client  DockerClient
	sandbox model.SandboxConfig
	run     commandRunner
	logger  log.Logger
}

// NewEngine creates a new Docker engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		client:  cfg.Client,
		sandbox: cfg.Sandbox,
		run:     runDockerCommand,
		logger:  cfg.Logger,
	}, nil
}

// Check performs preflight checks against the Docker runtime.
func (e *Engine) Check(ctx context.Context) []model.CheckResult {
	var results []model.CheckResult

	if _, err := e.client.Ping(ctx); err != nil {
		results = append(results, model.CheckResult{
			ID:      "docker_reachable",
			Status:  model.CheckStatusError,
			Message: fmt.Sprintf("Docker daemon is not reachable: %v", err),
		})
		return results
	}
	results = append(results, model.CheckResult{
		ID:      "docker_reachable",
		Status:  model.CheckStatusOK,
		Message: "Docker daemon is reachable",
	})

	if err := os.MkdirAll(e.sandbox.WorkspaceDir, 0755); err != nil {
		results = append(results, model.CheckResult{
			ID:      "workspace_dir",
			Status:  model.CheckStatusError,
			Message: fmt.Sprintf("Workspace directory %s can't be created: %v", e.sandbox.WorkspaceDir, err),
		})
	} else {
		results = append(results, model.CheckResult{
			ID:      "workspace_dir",
			Status:  model.CheckStatusOK,
			Message: fmt.Sprintf("Workspace directory %s is available", e.sandbox.WorkspaceDir),
		})
	}

	present, err := e.imagePresent(ctx)
	switch {
	case err != nil:
		results = append(results, model.CheckResult{
			ID:      "image_present",
			Status:  model.CheckStatusWarning,
			Message: fmt.Sprintf("Could not check image %s: %v", e.sandbox.Image, err),
		})
	case present:
		results = append(results, model.CheckResult{
			ID:      "image_present",
			Status:  model.CheckStatusOK,
			Message: fmt.Sprintf("Image %s is present locally", e.sandbox.Image),
		})
	default:
		results = append(results, model.CheckResult{
			ID:      "image_present",
			Status:  model.CheckStatusWarning,
			Message: fmt.Sprintf("Image %s is missing, it will be pulled on first run", e.sandbox.Image),
		})
	}

	sandbox, err := e.Status(ctx)
	switch {
	case err != nil:
		results = append(results, model.CheckResult{
			ID:      "sandbox_state",
			Status:  model.CheckStatusWarning,
			Message: fmt.Sprintf("Could not inspect sandbox %s: %v", e.sandbox.Name, err),
		})
	case sandbox.Status == model.SandboxStatusAbsent:
		results = append(results, model.CheckResult{
			ID:      "sandbox_state",
			Status:  model.CheckStatusOK,
			Message: fmt.Sprintf("Sandbox %s is not provisioned, it will be created on first run", e.sandbox.Name),
		})
	default:
		results = append(results, model.CheckResult{
			ID:      "sandbox_state",
			Status:  model.CheckStatusOK,
			Message: fmt.Sprintf("Sandbox %s is %s", e.sandbox.Name, sandbox.Status),
		})
	}

	return results
}

// Acquire resolves the sandbox container by its fixed name, starting it if
// stopped and provisioning it if absent. Provisioning happens at most once
// unless the container is removed externally.
func (e *Engine) Acquire(ctx context.Context) (*model.Sandbox, error) {
	// Fail fast if the runtime is unreachable, never block the pipeline on a
	// dead daemon.
	if _, err := e.client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("could not ping Docker daemon: %v: %w", err, model.ErrRuntimeUnavailable)
	}

	// The workspace is the data-exchange surface, make sure it exists on the
	// host before mounting it.
	if err := os.MkdirAll(e.sandbox.WorkspaceDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create workspace directory %s: %w", e.sandbox.WorkspaceDir, err)
	}

	info, err := e.client.ContainerInspect(ctx, e.sandbox.Name)
	if err == nil {
		sandbox := e.sandboxFromInspect(info)
		if sandbox.Status == model.SandboxStatusRunning {
			e.logger.Debugf("Sandbox %s is already running", e.sandbox.Name)
			return sandbox, nil
		}

		e.logger.Infof("Starting stopped sandbox: %s", e.sandbox.Name)
		if err := e.client.ContainerStart(ctx, e.sandbox.Name, container.StartOptions{}); err != nil {
			return nil, fmt.Errorf("could not start sandbox %s: %v: %w", e.sandbox.Name, err, model.ErrProvisioning)
		}

		now := time.Now().UTC()
		sandbox.Status = model.SandboxStatusRunning
		sandbox.StartedAt = &now
		return sandbox, nil
	}

	if !isNotFound(err) {
		return nil, fmt.Errorf("could not inspect sandbox %s: %w", e.sandbox.Name, err)
	}

	return e.provision(ctx)
}

// provision pulls the image if missing and creates and starts the sandbox
// container.
func (e *Engine) provision(ctx context.Context) (*model.Sandbox, error) {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()

	e.logger.Infof("Provisioning sandbox %s (image: %s)", e.sandbox.Name, e.sandbox.Image)

	present, err := e.imagePresent(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not check image %s: %v: %w", e.sandbox.Image, err, model.ErrProvisioning)
	}
	if !present {
		e.logger.Infof("Pulling image %s (this may take a minute)", e.sandbox.Image)
		pullResp, err := e.client.ImagePull(ctx, e.sandbox.Image, image.PullOptions{})
		if err != nil {
			return nil, fmt.Errorf("could not pull image %s: %v: %w", e.sandbox.Image, err, model.ErrProvisioning)
		}
		// Consume the pull response to ensure it completes.
		_, _ = io.Copy(io.Discard, pullResp)
		pullResp.Close()
	}

	containerConfig := &container.Config{
		Image:      e.sandbox.Image,
		Cmd:        []string{"tail", "-f", "/dev/null"}, // Keep container running.
		WorkingDir: e.sandbox.MountPath,
		Labels:     map[string]string{sandboxIDLabel: id},
	}

	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: e.sandbox.WorkspaceDir,
			Target: e.sandbox.MountPath,
		}},
	}

	resp, err := e.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, e.sandbox.Name)
	if err != nil {
		return nil, fmt.Errorf("could not create sandbox container: %v: %w", err, model.ErrProvisioning)
	}

	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("could not start sandbox container: %v: %w", err, model.ErrProvisioning)
	}

	now := time.Now().UTC()
	sandbox := &model.Sandbox{
		ID:          id,
		Name:        e.sandbox.Name,
		Status:      model.SandboxStatusRunning,
		ContainerID: resp.ID,
		Config:      e.sandbox,
		CreatedAt:   now,
		StartedAt:   &now,
	}

	e.logger.Infof("Provisioned sandbox %s (container: %s, mount: %s -> %s)", e.sandbox.Name, resp.ID, e.sandbox.WorkspaceDir, e.sandbox.MountPath)

	return sandbox, nil
}

// commandRunner runs the docker CLI with the given arguments, returning the
// combined output and the command's exit code. Execution failures that are
// not a non-zero exit (binary missing, context cancelled) come back as err.
type commandRunner func(ctx context.Context, args ...string) (output string, exitCode int, err error)

func runDockerCommand(ctx context.Context, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output, exitErr.ExitCode(), nil
		}
		return output, 0, err
	}
	return output, 0, nil
}

// Exec executes a shell command inside the sandbox container. The command is
// wrapped in `bash -c` so pipes and `&&` chains work as agents expect.
func (e *Engine) Exec(ctx context.Context, command string, opts model.ExecOpts) (*model.ExecResult, error) {
	if command == "" {
		return nil, fmt.Errorf("command cannot be empty: %w", model.ErrNotValid)
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir = e.sandbox.MountPath
	}

	args := []string{"exec", "-w", workingDir}
	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, e.sandbox.Name, "bash", "-c", command)

	e.logger.Debugf("Executing command in sandbox %s: %s", e.sandbox.Name, command)

	output, exitCode, err := e.run(ctx, args...)
	if err != nil {
		if strings.Contains(err.Error(), "No such container") {
			return nil, fmt.Errorf("sandbox %s: %w", e.sandbox.Name, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not execute command: %w", err)
	}
	if exitCode != 0 {
		e.logger.Debugf("Command exited with code %d", exitCode)
	}

	// `docker exec` against a stopped container exits non-zero with the error
	// on the output stream, but a user command can print the same words on a
	// legitimate failure. Only reclassify after confirming the container
	// really is not running; otherwise the exit code is data for the caller.
	if exitCode != 0 && strings.Contains(output, "is not running") {
		info, inspectErr := e.client.ContainerInspect(ctx, e.sandbox.Name)
		switch {
		case inspectErr != nil && isNotFound(inspectErr):
			return nil, fmt.Errorf("sandbox %s: %w", e.sandbox.Name, model.ErrNotFound)
		case inspectErr == nil && (info.State == nil || info.State.Status != "running"):
			return nil, fmt.Errorf("sandbox %s is not running: %w", e.sandbox.Name, model.ErrNotValid)
		}
	}

	return &model.ExecResult{
		Output:   output,
		ExitCode: exitCode,
	}, nil
}

// Status returns the current lifecycle state of the sandbox container.
func (e *Engine) Status(ctx context.Context) (*model.Sandbox, error) {
	info, err := e.client.ContainerInspect(ctx, e.sandbox.Name)
	if err != nil {
		if isNotFound(err) {
			return &model.Sandbox{
				Name:   e.sandbox.Name,
				Status: model.SandboxStatusAbsent,
				Config: e.sandbox,
			}, nil
		}
		return nil, fmt.Errorf("could not inspect sandbox %s: %w", e.sandbox.Name, err)
	}

	return e.sandboxFromInspect(info), nil
}

func (e *Engine) sandboxFromInspect(info container.InspectResponse) *model.Sandbox {
	status := model.SandboxStatusStopped
	state := ""
	if info.State != nil {
		state = info.State.Status
	}
	switch state {
	case "running":
		status = model.SandboxStatusRunning
	case "created":
		status = model.SandboxStatusProvisioning
	}

	var id string
	if info.Config != nil {
		id = info.Config.Labels[sandboxIDLabel]
	}

	sandbox := &model.Sandbox{
		ID:          id,
		Name:        e.sandbox.Name,
		Status:      status,
		ContainerID: info.ID,
		Config:      e.sandbox,
	}

	if t, err := time.Parse(time.RFC3339Nano, info.Created); err == nil {
		sandbox.CreatedAt = t
	}
	if info.State != nil && info.State.StartedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, info.State.StartedAt); err == nil {
			sandbox.StartedAt = &t
		}
	}

	return sandbox
}

func (e *Engine) imagePresent(ctx context.Context) (bool, error) {
	images, err := e.client.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", e.sandbox.Image)),
	})
	if err != nil {
		return false, err
	}
	return len(images) > 0, nil
}

func isNotFound(err error) bool {
	return client.IsErrNotFound(err) || strings.Contains(err.Error(), "No such container")
}
