package file_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/crewd/internal/log"
	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/storage/file"
)

func newRepo(t *testing.T, path string) *file.Repository {
	t.Helper()
	repo, err := file.NewRepository(file.RepositoryConfig{
		Path:   path,
		Logger: log.Noop,
	})
	require.NoError(t, err)
	return repo
}

func stateFixture() *model.WorkflowState {
	now := time.Now().UTC().Truncate(time.Millisecond)
	completed := now.Add(time.Minute)

	state := model.NewWorkflowState()
	state.Todo = []model.WorkItem{
		{ID: 2, Description: "Write the backend", Priority: model.WorkItemPriorityHigh, Status: model.WorkItemStatusPending, CreatedAt: now},
	}
	state.Done = []model.WorkItem{
		{ID: 1, Description: "Choose the tech stack", Priority: model.WorkItemPriorityMedium, Status: model.WorkItemStatusDone, CreatedAt: now, CompletedAt: &completed},
	}
	state.Stages["pm_task"] = model.Stage{
		ID:         "pm_task",
		Status:     model.StageStatusComplete,
		Percent:    100,
		OutputFile: "requirements.md",
		Notes:      "all requirements gathered",
		UpdatedAt:  now,
	}
	state.Artifacts["requirements.md"] = model.ArtifactRecord{
		FileName:  "requirements.md",
		CreatedBy: "pm_task",
		Status:    model.ArtifactStatusCreated,
		CreatedAt: now,
	}
	state.Notes = []string{"kickoff done"}

	return state
}

func TestRepositoryRoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	repo := newRepo(t, path)

	original := stateFixture()
	require.NoError(t, repo.Save(ctx, original))

	// Save stamps the update time.
	assert.False(original.LastUpdated.IsZero())

	got, err := repo.Load(ctx)
	require.NoError(t, err)

	assert.Equal(original.Todo, got.Todo)
	assert.Equal(original.Done, got.Done)
	assert.Equal(original.Stages, got.Stages)
	assert.Equal(original.Artifacts, got.Artifacts)
	assert.Equal(original.Notes, got.Notes)
	assert.Equal(original.LastUpdated.UTC(), got.LastUpdated.UTC())
}

func TestRepositoryLoadEmpty(t *testing.T) {
	tests := map[string]struct {
		setup func(t *testing.T, path string)
	}{
		"A missing file should load as an empty state": {
			setup: func(t *testing.T, path string) {},
		},

		"A corrupt file should load as an empty state": {
			setup: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
			},
		},

		"An empty file should load as an empty state": {
			setup: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "state.json")
			test.setup(t, path)

			repo := newRepo(t, path)
			got, err := repo.Load(ctx)
			require.NoError(t, err)

			assert.Empty(got.Todo)
			assert.Empty(got.Done)
			assert.Empty(got.Stages)
			assert.Empty(got.Artifacts)
			assert.Empty(got.Notes)
		})
	}
}

func TestRepositoryWireFormat(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	repo := newRepo(t, path)

	require.NoError(t, repo.Save(ctx, stateFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))

	// The on-disk document is the shared contract with other pipeline tooling.
	for _, key := range []string{"todo", "done", "progress", "files", "notes", "last_updated"} {
		assert.Contains(doc, key)
	}

	var todo []map[string]any
	require.NoError(t, json.Unmarshal(doc["todo"], &todo))
	require.Len(t, todo, 1)
	assert.Equal("Write the backend", todo[0]["task"])
	assert.Equal("high", todo[0]["priority"])

	var progress map[string]map[string]any
	require.NoError(t, json.Unmarshal(doc["progress"], &progress))
	require.Contains(t, progress, "pm_task")
	assert.Equal("complete", progress["pm_task"]["status"])
	assert.Equal(float64(100), progress["pm_task"]["progress_percent"])
}

func TestRepositorySaveAdvancesLastUpdated(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	repo := newRepo(t, path)

	state := model.NewWorkflowState()
	require.NoError(t, repo.Save(ctx, state))
	first := state.LastUpdated

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, repo.Save(ctx, state))
	assert.True(state.LastUpdated.After(first))
}

func TestRepositoryTimestampTolerance(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	// A document written by other tooling without timezone offsets should
	// still load.
	doc := `{
		"todo": [{"id": 1, "task": "something", "priority": "medium", "status": "pending", "added_at": "2026-08-30T10:00:00.123456"}],
		"done": [],
		"progress": {},
		"files": {},
		"notes": [],
		"last_updated": "2026-08-30T10:00:00.123456"
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	repo := newRepo(t, path)
	got, err := repo.Load(ctx)
	require.NoError(t, err)

	require.Len(t, got.Todo, 1)
	assert.Equal(2026, got.Todo[0].CreatedAt.Year())
	assert.Equal(2026, got.LastUpdated.Year())
}
