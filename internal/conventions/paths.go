package conventions

import (
	"path/filepath"

	"github.com/crewforge/crewd/internal/model"
)

const (
	// DefaultDataDir is the default crewd data directory name (relative to home).
	DefaultDataDir = ".crewd"
	// DefaultWorkspaceDir is the default shared workspace directory name
	// (relative to the data dir).
	DefaultWorkspaceDir = "workspace"

	// SandboxName is the fixed name of the singleton execution sandbox
	// container. At most one instance exists per host.
	SandboxName = "crewd-dev-env"
	// SandboxImage is the default sandbox image. It ships Python, Node.js and
	// npm, which is what the pipeline's build stages need.
	SandboxImage = "nikolaik/python-nodejs:latest"
	// SandboxMountPath is the path the workspace is mounted at inside the
	// sandbox, also the working directory of every command.
	SandboxMountPath = "/app"

	// StateFile is the filename of the persisted workflow state document,
	// relative to the workspace directory.
	StateFile = ".workflow_state.json"
	// StateDBFile is the filename of the SQLite workflow state database,
	// relative to the workspace directory.
	StateDBFile = ".workflow_state.db"
)

// StateFilePath returns the path of the JSON workflow state document for a
// workspace.
func StateFilePath(workspaceDir string) string {
	return filepath.Join(workspaceDir, StateFile)
}

// StateDBPath returns the path of the SQLite workflow state database for a
// workspace.
func StateDBPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, StateDBFile)
}

// DefaultPipeline returns the built-in software-crew pipeline: product
// requirements feed the tech stack choice, which feeds environment setup,
// design feeds the backend and frontend builds, and review/test close the
// run. Used when no pipeline definition file is supplied.
func DefaultPipeline() model.Pipeline {
	return model.Pipeline{Stages: []model.StageDecl{
		{ID: "pm_task", OutputFile: "requirements.md"},
		{ID: "cto_task", DependsOn: []string{"pm_task"}, OutputFile: "tech_stack.md"},
		{ID: "devops_task", DependsOn: []string{"cto_task"}, OutputFile: "lockfile.txt"},
		{ID: "design_task", DependsOn: []string{"pm_task", "devops_task"}, OutputFile: "architecture.md"},
		{ID: "backend_task", DependsOn: []string{"design_task"}, OutputFile: "backend_app.py"},
		{ID: "frontend_task", DependsOn: []string{"design_task", "backend_task"}, OutputFile: "frontend_app.py"},
		{ID: "review_task", DependsOn: []string{"backend_task", "frontend_task"}, OutputFile: "review_report.md"},
		{ID: "test_task", DependsOn: []string{"backend_task", "frontend_task"}, OutputFile: "test_report.md"},
	}}
}
