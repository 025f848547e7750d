package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/crewforge/crewd/internal/app/readiness"
	"github.com/crewforge/crewd/internal/model"
)

// JSONPrinter prints pipeline information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// stageOutput represents a stage record in JSON output.
type stageOutput struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Percent    int        `json:"progress_percent"`
	OutputFile string     `json:"output_file,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// artifactOutput represents an artifact registry entry in JSON output.
type artifactOutput struct {
	FileName  string    `json:"file_name"`
	CreatedBy string    `json:"created_by"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// workItemOutput represents a work item in JSON output.
type workItemOutput struct {
	ID          int        `json:"id"`
	Task        string     `json:"task"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// readinessOutput represents a readiness query answer in JSON output.
type readinessOutput struct {
	Stage          string   `json:"stage"`
	Ready          bool     `json:"ready"`
	BlockingStages []string `json:"blocking_stages"`
	CompleteStages []string `json:"complete_stages"`
}

// fileStatusOutput represents an artifact diagnostic in JSON output.
type fileStatusOutput struct {
	FileName             string `json:"file_name"`
	Exists               bool   `json:"exists"`
	ProducingStage       string `json:"producing_stage,omitempty"`
	ProducingStageStatus string `json:"producing_stage_status,omitempty"`
}

// checkOutput represents a preflight check result in JSON output.
type checkOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PrintSummary prints the pipeline summary as JSON.
func (j *JSONPrinter) PrintSummary(stages []model.Stage, artifacts []model.ArtifactRecord) error {
	out := struct {
		Stages    []stageOutput    `json:"stages"`
		Artifacts []artifactOutput `json:"artifacts"`
	}{
		Stages:    []stageOutput{},
		Artifacts: []artifactOutput{},
	}

	for _, s := range stages {
		out.Stages = append(out.Stages, newStageOutput(s))
	}
	for _, a := range artifacts {
		out.Artifacts = append(out.Artifacts, artifactOutput{
			FileName:  a.FileName,
			CreatedBy: a.CreatedBy,
			Status:    string(a.Status),
			CreatedAt: a.CreatedAt,
		})
	}

	return j.print(out)
}

// PrintStage prints a single stage record as JSON.
func (j *JSONPrinter) PrintStage(stage model.Stage) error {
	return j.print(newStageOutput(stage))
}

// PrintWorkItems prints the work item ledger as JSON.
func (j *JSONPrinter) PrintWorkItems(pending, completed []model.WorkItem) error {
	out := struct {
		Pending   []workItemOutput `json:"pending"`
		Completed []workItemOutput `json:"completed"`
	}{
		Pending:   []workItemOutput{},
		Completed: []workItemOutput{},
	}

	for _, w := range pending {
		out.Pending = append(out.Pending, newWorkItemOutput(w))
	}
	for _, w := range completed {
		out.Completed = append(out.Completed, newWorkItemOutput(w))
	}

	return j.print(out)
}

// PrintReadiness prints a readiness query answer as JSON.
func (j *JSONPrinter) PrintReadiness(result readiness.Result) error {
	out := readinessOutput{
		Stage:          result.StageID,
		Ready:          result.Ready,
		BlockingStages: result.BlockingStages,
		CompleteStages: result.CompleteStages,
	}
	if out.BlockingStages == nil {
		out.BlockingStages = []string{}
	}
	if out.CompleteStages == nil {
		out.CompleteStages = []string{}
	}

	return j.print(out)
}

// PrintFileStatus prints an artifact diagnostic as JSON.
func (j *JSONPrinter) PrintFileStatus(status readiness.FileStatus) error {
	return j.print(fileStatusOutput{
		FileName:             status.FileName,
		Exists:               status.Exists,
		ProducingStage:       status.ProducingStage,
		ProducingStageStatus: string(status.ProducingStageStatus),
	})
}

// PrintChecks prints preflight check results as JSON.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	out := []checkOutput{}
	for _, r := range results {
		out = append(out, checkOutput{
			ID:      r.ID,
			Status:  string(r.Status),
			Message: r.Message,
		})
	}
	return j.print(out)
}

// PrintMessage prints a simple message as JSON.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.print(map[string]string{"message": msg})
}

func (j *JSONPrinter) print(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStageOutput(s model.Stage) stageOutput {
	out := stageOutput{
		ID:         s.ID,
		Status:     string(s.Status),
		Percent:    s.Percent,
		OutputFile: s.OutputFile,
		Notes:      s.Notes,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func newWorkItemOutput(w model.WorkItem) workItemOutput {
	return workItemOutput{
		ID:          w.ID,
		Task:        w.Description,
		Priority:    string(w.Priority),
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
		CompletedAt: w.CompletedAt,
	}
}
