package printer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/crewd/internal/app/readiness"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/printer"
)

func stageFixture() model.Stage {
	return model.Stage{
		ID:         "backend_task",
		Status:     model.StageStatusRunning,
		Percent:    60,
		OutputFile: "backend/",
		Notes:      "API routes done, wiring the database",
		UpdatedAt:  time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func TestTablePrinterPrintStage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintStage(stageFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Stage:      backend_task")
	assert.Contains(t, out, "Status:     running")
	assert.Contains(t, out, "Progress:   60%")
	assert.Contains(t, out, "Output:     backend/")
	assert.Contains(t, out, "Updated:    2026-08-30 10:00:00 UTC")
}

func TestJSONPrinterPrintStage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintStage(stageFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"id": "backend_task"`)
	assert.Contains(t, out, `"status": "running"`)
	assert.Contains(t, out, `"progress_percent": 60`)
	assert.Contains(t, out, `"output_file": "backend/"`)
}

func TestTablePrinterPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	stages := []model.Stage{
		{ID: "pm_task", Status: model.StageStatusComplete, Percent: 100, OutputFile: "requirements.md", UpdatedAt: time.Now().UTC()},
		{ID: "backend_task", Status: model.StageStatusPending},
	}
	artifacts := []model.ArtifactRecord{
		{FileName: "requirements.md", CreatedBy: "pm_task", Status: model.ArtifactStatusCreated, CreatedAt: time.Now().UTC()},
	}

	err := p.PrintSummary(stages, artifacts)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "STAGE")
	assert.Contains(t, out, "pm_task")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "requirements.md")
	// Unrecorded stages render placeholders instead of zero timestamps.
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "CREATED BY")
}

func TestTablePrinterPrintReadiness(t *testing.T) {
	tests := map[string]struct {
		result    readiness.Result
		expInOut  []string
		expNotOut []string
	}{
		"A ready stage lists its complete predecessors.": {
			result: readiness.Result{
				StageID:        "backend_task",
				Ready:          true,
				CompleteStages: []string{"pm_task", "cto_task"},
			},
			expInOut:  []string{"Stage backend_task is ready.", "Complete: pm_task, cto_task"},
			expNotOut: []string{"BLOCKED"},
		},

		"A blocked stage lists what it waits for.": {
			result: readiness.Result{
				StageID:        "backend_task",
				BlockingStages: []string{"cto_task"},
				CompleteStages: []string{"pm_task"},
			},
			expInOut: []string{"Stage backend_task is BLOCKED.", "Waiting for: cto_task", "Complete: pm_task"},
		},

		"A blocked stage with nothing complete says so.": {
			result: readiness.Result{
				StageID:        "pm_task",
				BlockingStages: []string{"bootstrap"},
			},
			expInOut: []string{"Complete: none"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintReadiness(test.result)
			require.NoError(t, err)

			out := buf.String()
			for _, exp := range test.expInOut {
				assert.Contains(t, out, exp)
			}
			for _, exp := range test.expNotOut {
				assert.NotContains(t, out, exp)
			}
		})
	}
}

func TestTablePrinterPrintFileStatus(t *testing.T) {
	tests := map[string]struct {
		status   readiness.FileStatus
		expInOut []string
	}{
		"An existing file needs no explanation.": {
			status:   readiness.FileStatus{FileName: "requirements.md", Exists: true},
			expInOut: []string{"File requirements.md exists."},
		},

		"A missing pipeline output names its producer.": {
			status: readiness.FileStatus{
				FileName:             "design.md",
				ProducingStage:       "design_task",
				ProducingStageStatus: model.StageStatusRunning,
			},
			expInOut: []string{
				"File design.md not found.",
				"Produced by: design_task (status: running)",
				"Wait for design_task to complete",
			},
		},

		"A missing unknown file is called out as such.": {
			status:   readiness.FileStatus{FileName: "scratch.txt"},
			expInOut: []string{"File scratch.txt not found.", "not a declared pipeline output"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintFileStatus(test.status)
			require.NoError(t, err)

			out := buf.String()
			for _, exp := range test.expInOut {
				assert.Contains(t, out, exp)
			}
		})
	}
}

func TestTablePrinterPrintWorkItems(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintWorkItems(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "No work items.", strings.TrimSpace(buf.String()))

	buf.Reset()
	pending := []model.WorkItem{
		{ID: 1, Description: "Write the backend", Priority: model.WorkItemPriorityHigh, Status: model.WorkItemStatusPending, CreatedAt: time.Now().UTC()},
	}
	completed := []model.WorkItem{
		{ID: 2, Description: "Set up CI", Priority: model.WorkItemPriorityMedium, Status: model.WorkItemStatusDone, CreatedAt: time.Now().UTC()},
	}

	err = p.PrintWorkItems(pending, completed)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Write the backend")
	assert.Contains(t, out, "Set up CI")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "done")
}

func TestJSONPrinterPrintWorkItems(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	// Empty ledgers encode as empty arrays, not null.
	err := p.PrintWorkItems(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"pending": []`)
	assert.Contains(t, buf.String(), `"completed": []`)
}

func TestTablePrinterPrintChecks(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintChecks([]model.CheckResult{
		{ID: "docker_reachable", Status: model.CheckStatusOK, Message: "Docker daemon is reachable"},
		{ID: "image_present", Status: model.CheckStatusWarning, Message: "Image not present, will be pulled"},
		{ID: "workspace_dir", Status: model.CheckStatusError, Message: "Workspace directory does not exist"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "docker_reachable")
	assert.Contains(t, out, "1 ok, 1 warnings, 1 errors")
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}
