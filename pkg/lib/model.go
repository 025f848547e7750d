package lib

import (
	"errors"
	"time"

	"github.com/crewforge/crewd/internal/model"
)

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrNotValid is returned when an input or operation is invalid.
	ErrNotValid = errors.New("not valid")
	// ErrRuntimeUnavailable is returned when the container runtime cannot be
	// reached.
	ErrRuntimeUnavailable = errors.New("runtime unavailable")
)

// EngineType identifies the sandbox engine implementation.
type EngineType string

const (
	// EngineDocker uses a persistent Docker container as the shared sandbox.
	EngineDocker EngineType = "docker"

	// EngineFake uses an in-memory simulation (no container runtime).
	// Use this for unit testing without infrastructure dependencies.
	EngineFake EngineType = "fake"
)

// SandboxStatus represents the lifecycle state of the shared sandbox.
//
// The typical lifecycle is:
//
//	absent -> provisioning -> running -> stopped -> running
type SandboxStatus string

const (
	// SandboxStatusAbsent indicates no sandbox container exists yet.
	SandboxStatusAbsent SandboxStatus = "absent"
	// SandboxStatusProvisioning indicates the sandbox is being created.
	SandboxStatusProvisioning SandboxStatus = "provisioning"
	// SandboxStatusRunning indicates the sandbox is running and accepting commands.
	SandboxStatusRunning SandboxStatus = "running"
	// SandboxStatusStopped indicates the sandbox exists but is stopped.
	SandboxStatusStopped SandboxStatus = "stopped"
)

// Sandbox is a read-only snapshot of the shared sandbox state at the time
// of the API call.
type Sandbox struct {
	// ID is the identifier assigned when the sandbox was provisioned.
	ID string
	// Name is the container name.
	Name string
	// Status is the current lifecycle state.
	Status SandboxStatus
	// Image is the container image the sandbox runs.
	Image string
	// CreatedAt is when the sandbox container was created.
	CreatedAt time.Time
}

// StageDecl declares a pipeline stage: its identifier, the stages that must
// complete before it may run, and the workspace file it is expected to
// produce (empty when the stage produces no file).
type StageDecl struct {
	ID         string
	DependsOn  []string
	OutputFile string
}

// StageStatus represents the recorded progress state of a pipeline stage.
type StageStatus string

const (
	// StageStatusPending indicates the stage has not started.
	StageStatusPending StageStatus = "pending"
	// StageStatusRunning indicates the stage is in progress.
	StageStatusRunning StageStatus = "running"
	// StageStatusComplete indicates the stage finished successfully.
	StageStatusComplete StageStatus = "complete"
	// StageStatusFailed indicates the stage finished with an error.
	StageStatusFailed StageStatus = "failed"
	// StageStatusBlocked indicates the stage is waiting on its predecessors.
	StageStatusBlocked StageStatus = "blocked"
)

// Stage is the recorded progress of a pipeline stage.
type Stage struct {
	// ID is the stage identifier.
	ID string
	// Status is the recorded progress state.
	Status StageStatus
	// Percent is the completion percentage (0-100).
	Percent int
	// OutputFile is the workspace file this stage reported producing.
	OutputFile string
	// Notes are free-text notes about the stage progress.
	Notes string
	// UpdatedAt is when the stage record was last updated.
	UpdatedAt time.Time
}

// WorkItemPriority represents the priority of a work item.
type WorkItemPriority string

const (
	// WorkItemPriorityHigh is the high priority.
	WorkItemPriorityHigh WorkItemPriority = "high"
	// WorkItemPriorityMedium is the medium priority (default).
	WorkItemPriorityMedium WorkItemPriority = "medium"
	// WorkItemPriorityLow is the low priority.
	WorkItemPriorityLow WorkItemPriority = "low"
)

// WorkItem is an entry in the shared work item ledger.
type WorkItem struct {
	// ID is the sequential identifier assigned when the item was added.
	ID int
	// Description is the work item text.
	Description string
	// Priority is the work item priority.
	Priority WorkItemPriority
	// Done indicates whether the item has been completed.
	Done bool
	// AddedAt is when the item was added.
	AddedAt time.Time
	// CompletedAt is when the item was completed. Nil while pending.
	CompletedAt *time.Time
}

// ArtifactRecord tracks a file a stage reported producing.
type ArtifactRecord struct {
	// FileName is the workspace file name.
	FileName string
	// CreatedBy is the stage that reported producing the file.
	CreatedBy string
	// CreatedAt is when the artifact was first recorded.
	CreatedAt time.Time
}

// ReadinessResult is the answer to a readiness query.
type ReadinessResult struct {
	// StageID is the queried stage.
	StageID string
	// Ready reports whether all predecessors are satisfied.
	Ready bool
	// BlockingStages lists unsatisfied predecessors in declaration order.
	BlockingStages []string
	// CompleteStages lists satisfied predecessors in declaration order.
	CompleteStages []string
}

// FileStatus is the diagnostic answer for a workspace file lookup.
type FileStatus struct {
	// FileName is the queried file name.
	FileName string
	// Exists reports whether the file is present in the workspace.
	Exists bool
	// ProducingStage is the stage that declares this file as output.
	// Empty when no stage produces it.
	ProducingStage string
	// ProducingStageStatus is the recorded status of the producing stage.
	ProducingStageStatus StageStatus
}

// ExecOpts configures command execution inside the sandbox.
//
// Pass nil to [Client.Exec] to use defaults (sandbox mount path as working
// directory, no extra environment).
type ExecOpts struct {
	// WorkingDir sets the working directory for the command inside the sandbox.
	WorkingDir string
	// Env contains additional environment variables for this execution only.
	Env map[string]string
}

// ExecResult contains the result of a command execution.
type ExecResult struct {
	// Output is the combined standard output and standard error of the command.
	Output string
	// ExitCode is the exit status of the executed command.
	// 0 indicates success, non-zero indicates failure. A non-zero exit code
	// is data, not an error.
	ExitCode int
}

// Summary is the ordered view of the whole pipeline.
type Summary struct {
	// Stages lists every pipeline stage in pipeline order. Stages without a
	// recorded update appear as pending.
	Stages []Stage
	// Artifacts lists recorded artifacts sorted by file name.
	Artifacts []ArtifactRecord
}

// CheckStatus represents the status of a preflight check.
type CheckStatus string

const (
	// CheckStatusOK indicates the check passed.
	CheckStatusOK CheckStatus = "ok"
	// CheckStatusWarning indicates the check passed with a warning.
	CheckStatusWarning CheckStatus = "warning"
	// CheckStatusError indicates the check failed.
	CheckStatusError CheckStatus = "error"
)

// CheckResult represents the result of a single preflight check.
type CheckResult struct {
	// ID is a unique identifier for the check (e.g. "docker_reachable").
	ID string
	// Message is a human-readable description of the result.
	Message string
	// Status is the check status.
	Status CheckStatus
}

// --- Internal conversion helpers ---

func toInternalStageDecls(decls []StageDecl) []model.StageDecl {
	result := make([]model.StageDecl, len(decls))
	for i, d := range decls {
		result[i] = model.StageDecl{
			ID:         d.ID,
			DependsOn:  append([]string(nil), d.DependsOn...),
			OutputFile: d.OutputFile,
		}
	}
	return result
}

func fromInternalStage(s model.Stage) Stage {
	return Stage{
		ID:         s.ID,
		Status:     StageStatus(s.Status),
		Percent:    s.Percent,
		OutputFile: s.OutputFile,
		Notes:      s.Notes,
		UpdatedAt:  s.UpdatedAt,
	}
}

func fromInternalStageList(ss []model.Stage) []Stage {
	result := make([]Stage, len(ss))
	for i, s := range ss {
		result[i] = fromInternalStage(s)
	}
	return result
}

func fromInternalWorkItem(w model.WorkItem) WorkItem {
	return WorkItem{
		ID:          w.ID,
		Description: w.Description,
		Priority:    WorkItemPriority(w.Priority),
		Done:        w.Status == model.WorkItemStatusDone,
		AddedAt:     w.CreatedAt,
		CompletedAt: w.CompletedAt,
	}
}

func fromInternalWorkItemList(ws []model.WorkItem) []WorkItem {
	result := make([]WorkItem, len(ws))
	for i, w := range ws {
		result[i] = fromInternalWorkItem(w)
	}
	return result
}

func fromInternalArtifact(a model.ArtifactRecord) ArtifactRecord {
	return ArtifactRecord{
		FileName:  a.FileName,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
	}
}

func fromInternalArtifactList(as []model.ArtifactRecord) []ArtifactRecord {
	result := make([]ArtifactRecord, len(as))
	for i, a := range as {
		result[i] = fromInternalArtifact(a)
	}
	return result
}

func fromInternalSandbox(s model.Sandbox) Sandbox {
	return Sandbox{
		ID:        s.ID,
		Name:      s.Name,
		Status:    SandboxStatus(s.Status),
		Image:     s.Config.Image,
		CreatedAt: s.CreatedAt,
	}
}

func fromInternalCheckResults(results []model.CheckResult) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{
			ID:      r.ID,
			Message: r.Message,
			Status:  CheckStatus(r.Status),
		}
	}
	return out
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrRuntimeUnavailable):
		return joinErrors(err, ErrRuntimeUnavailable)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
