package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
)

// RepositoryConfig is the configuration for the file repository.
type RepositoryConfig struct {
	// Path is the path of the JSON state document.
	Path   string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.File"})
	return nil
}

// Repository is a JSON file-backed implementation of storage.StateRepository.
//
// The document shape on disk is the shared pipeline contract
// (todo/done/progress/files/notes/last_updated), so any other pipeline
// tooling reading the workspace sees the same state.
type Repository struct {
	path   string
	logger log.Logger
}

// NewRepository creates a new file repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		path:   cfg.Path,
		logger: cfg.Logger,
	}, nil
}

// Load reads the state document from disk. A missing or unparseable document
// is treated as absent and loads as an empty state, never as an error.
func (r *Repository) Load(ctx context.Context) (*model.WorkflowState, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warningf("Could not read state file %s, starting from empty state: %v", r.path, err)
		}
		return model.NewWorkflowState(), nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warningf("State file %s is corrupt, starting from empty state: %v", r.path, err)
		return model.NewWorkflowState(), nil
	}

	return doc.toModel(), nil
}

// Save writes the whole state document, stamping LastUpdated. The write goes
// through a temp file and a rename so readers never see a partial document.
func (r *Repository) Save(ctx context.Context, state *model.WorkflowState) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	state.LastUpdated = time.Now().UTC()
	doc := newStateDocument(state)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("could not write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("could not close state file: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("could not replace state file: %w", err)
	}

	r.logger.Debugf("Saved workflow state to %s", r.path)

	return nil
}

const timestampFormat = time.RFC3339Nano

// stateDocument is the JSON wire representation of the workflow state.
type stateDocument struct {
	Todo        []workItemDoc          `json:"todo"`
	Done        []workItemDoc          `json:"done"`
	Progress    map[string]stageDoc    `json:"progress"`
	Files       map[string]artifactDoc `json:"files"`
	Notes       []string               `json:"notes"`
	LastUpdated string                 `json:"last_updated"`
}

type workItemDoc struct {
	ID          int    `json:"id"`
	Task        string `json:"task"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	AddedAt     string `json:"added_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type stageDoc struct {
	Status     string `json:"status,omitempty"`
	Percent    int    `json:"progress_percent"`
	OutputFile string `json:"output_file,omitempty"`
	Notes      string `json:"notes,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

type artifactDoc struct {
	CreatedBy string `json:"created_by"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func newStateDocument(state *model.WorkflowState) stateDocument {
	doc := stateDocument{
		Todo:        []workItemDoc{},
		Done:        []workItemDoc{},
		Progress:    map[string]stageDoc{},
		Files:       map[string]artifactDoc{},
		Notes:       state.Notes,
		LastUpdated: state.LastUpdated.UTC().Format(timestampFormat),
	}
	if doc.Notes == nil {
		doc.Notes = []string{}
	}

	for _, w := range state.Todo {
		doc.Todo = append(doc.Todo, newWorkItemDoc(w))
	}
	for _, w := range state.Done {
		doc.Done = append(doc.Done, newWorkItemDoc(w))
	}
	for id, s := range state.Stages {
		doc.Progress[id] = stageDoc{
			Status:     string(s.Status),
			Percent:    s.Percent,
			OutputFile: s.OutputFile,
			Notes:      s.Notes,
			UpdatedAt:  s.UpdatedAt.UTC().Format(timestampFormat),
		}
	}
	for name, a := range state.Artifacts {
		doc.Files[name] = artifactDoc{
			CreatedBy: a.CreatedBy,
			Status:    string(a.Status),
			CreatedAt: a.CreatedAt.UTC().Format(timestampFormat),
		}
	}

	return doc
}

func newWorkItemDoc(w model.WorkItem) workItemDoc {
	doc := workItemDoc{
		ID:       w.ID,
		Task:     w.Description,
		Priority: string(w.Priority),
		Status:   string(w.Status),
		AddedAt:  w.CreatedAt.UTC().Format(timestampFormat),
	}
	if w.CompletedAt != nil {
		doc.CompletedAt = w.CompletedAt.UTC().Format(timestampFormat)
	}
	return doc
}

func (d stateDocument) toModel() *model.WorkflowState {
	state := model.NewWorkflowState()
	state.Notes = d.Notes
	if state.Notes == nil {
		state.Notes = []string{}
	}
	state.LastUpdated = parseTimestamp(d.LastUpdated)

	for _, w := range d.Todo {
		state.Todo = append(state.Todo, w.toModel())
	}
	for _, w := range d.Done {
		state.Done = append(state.Done, w.toModel())
	}
	for id, s := range d.Progress {
		state.Stages[id] = model.Stage{
			ID:         id,
			Status:     model.StageStatus(s.Status),
			Percent:    s.Percent,
			OutputFile: s.OutputFile,
			Notes:      s.Notes,
			UpdatedAt:  parseTimestamp(s.UpdatedAt),
		}
	}
	for name, a := range d.Files {
		state.Artifacts[name] = model.ArtifactRecord{
			FileName:  name,
			CreatedBy: a.CreatedBy,
			Status:    model.ArtifactStatus(a.Status),
			CreatedAt: parseTimestamp(a.CreatedAt),
		}
	}

	return state
}

func (d workItemDoc) toModel() model.WorkItem {
	w := model.WorkItem{
		ID:          d.ID,
		Description: d.Task,
		Priority:    model.WorkItemPriority(d.Priority),
		Status:      model.WorkItemStatus(d.Status),
		CreatedAt:   parseTimestamp(d.AddedAt),
	}
	if d.CompletedAt != "" {
		t := parseTimestamp(d.CompletedAt)
		w.CompletedAt = &t
	}
	return w
}

// parseTimestamp parses an ISO8601 timestamp, tolerating documents written by
// other tooling without an explicit offset.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timestampFormat, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t
	}
	return time.Time{}
}
