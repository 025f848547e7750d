package model

import (
	"fmt"
	"time"
)

// SandboxStatus represents the lifecycle state of the execution sandbox.
// The lifecycle is absent -> provisioning -> running <-> stopped. The sandbox
// is never auto-removed.
type SandboxStatus string

const (
	// SandboxStatusAbsent indicates no sandbox container exists yet.
	SandboxStatusAbsent SandboxStatus = "absent"
	// SandboxStatusProvisioning indicates the sandbox is being created.
	SandboxStatusProvisioning SandboxStatus = "provisioning"
	// SandboxStatusRunning indicates the sandbox is running.
	SandboxStatusRunning SandboxStatus = "running"
	// SandboxStatusStopped indicates the sandbox exists but is stopped.
	SandboxStatusStopped SandboxStatus = "stopped"
)

// Sandbox represents the single persistent execution environment shared by
// all pipeline stages.
type Sandbox struct {
	ID          string
	Name        string
	Status      SandboxStatus
	ContainerID string
	Config      SandboxConfig
	CreatedAt   time.Time
	StartedAt   *time.Time
}

// SandboxConfig is the static configuration for the execution sandbox.
// These settings are immutable after the sandbox has been provisioned.
type SandboxConfig struct {
	// Name is the fixed container name the sandbox is looked up by.
	Name string
	// Image is the container image the sandbox runs.
	Image string
	// WorkspaceDir is the host directory bind-mounted into the sandbox. It is
	// the sole data-exchange surface between the pipeline and the sandbox.
	WorkspaceDir string
	// MountPath is the path WorkspaceDir is mounted at inside the sandbox,
	// also used as the working directory for every command.
	MountPath string
}

// Validate validates the sandbox configuration.
func (c *SandboxConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}
	if c.Image == "" {
		return fmt.Errorf("image is required: %w", ErrNotValid)
	}
	if c.WorkspaceDir == "" {
		return fmt.Errorf("workspace dir is required: %w", ErrNotValid)
	}
	if c.MountPath == "" {
		return fmt.Errorf("mount path is required: %w", ErrNotValid)
	}
	return nil
}
