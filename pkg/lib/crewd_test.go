package lib_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/crewd/pkg/lib"
)

// newTestClient creates a client with a temp workspace and the fake engine
// for test isolation.
func newTestClient(t *testing.T) *lib.Client {
	t.Helper()

	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{
		WorkspaceDir: t.TempDir(),
		Engine:       lib.EngineFake,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		config func(t *testing.T) lib.Config
		expErr bool
		expIs  error
	}{
		"A default config with a workspace should work.": {
			config: func(t *testing.T) lib.Config {
				return lib.Config{WorkspaceDir: t.TempDir(), Engine: lib.EngineFake}
			},
		},

		"A custom pipeline should work.": {
			config: func(t *testing.T) lib.Config {
				return lib.Config{
					WorkspaceDir: t.TempDir(),
					Engine:       lib.EngineFake,
					Pipeline: []lib.StageDecl{
						{ID: "plan", OutputFile: "plan.md"},
						{ID: "build", DependsOn: []string{"plan"}},
					},
				}
			},
		},

		"A pipeline with a cycle should fail.": {
			config: func(t *testing.T) lib.Config {
				return lib.Config{
					WorkspaceDir: t.TempDir(),
					Engine:       lib.EngineFake,
					Pipeline: []lib.StageDecl{
						{ID: "a", DependsOn: []string{"b"}},
						{ID: "b", DependsOn: []string{"a"}},
					},
				}
			},
			expErr: true,
			expIs:  lib.ErrNotValid,
		},

		"A pipeline with a dangling dependency should fail.": {
			config: func(t *testing.T) lib.Config {
				return lib.Config{
					WorkspaceDir: t.TempDir(),
					Engine:       lib.EngineFake,
					Pipeline: []lib.StageDecl{
						{ID: "a", DependsOn: []string{"missing"}},
					},
				}
			},
			expErr: true,
			expIs:  lib.ErrNotValid,
		},

		"An unsupported engine should fail.": {
			config: func(t *testing.T) lib.Config {
				return lib.Config{WorkspaceDir: t.TempDir(), Engine: "podman"}
			},
			expErr: true,
			expIs:  lib.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			ctx := context.Background()

			client, err := lib.New(ctx, test.config(t))

			if test.expErr {
				assert.Error(err)
				if test.expIs != nil {
					assert.True(errors.Is(err, test.expIs), "expected error %v, got: %v", test.expIs, err)
				}
				return
			}

			require.NoError(t, err)
			assert.NoError(client.Close())
		})
	}
}

func TestExec(t *testing.T) {
	tests := map[string]struct {
		command string
		expErr  bool
		expIs   error
	}{
		"Executing a command should work.": {
			command: "echo hello",
		},

		"Executing an empty command should fail.": {
			command: "",
			expErr:  true,
			expIs:   lib.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			client := newTestClient(t)
			ctx := context.Background()

			result, err := client.Exec(ctx, test.command, nil)

			if test.expErr {
				assert.Error(err)
				if test.expIs != nil {
					assert.True(errors.Is(err, test.expIs), "expected error %v, got: %v", test.expIs, err)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(0, result.ExitCode)
		})
	}
}

func TestAcquireSandbox(t *testing.T) {
	assert := assert.New(t)
	client := newTestClient(t)
	ctx := context.Background()

	sb, err := client.AcquireSandbox(ctx)
	require.NoError(t, err)

	assert.Equal(lib.SandboxStatusRunning, sb.Status)
	assert.NotEmpty(sb.ID)
}

func TestReadinessFlow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	workspace := t.TempDir()
	client, err := lib.New(ctx, lib.Config{
		WorkspaceDir: workspace,
		Engine:       lib.EngineFake,
		Pipeline: []lib.StageDecl{
			{ID: "plan", OutputFile: "plan.md"},
			{ID: "build", DependsOn: []string{"plan"}, OutputFile: "app.py"},
		},
	})
	require.NoError(t, err)
	defer client.Close()

	// Entry stage is always ready.
	res, err := client.IsReady(ctx, "plan")
	require.NoError(t, err)
	assert.True(res.Ready)

	// Downstream stage is blocked until plan completes.
	res, err = client.IsReady(ctx, "build")
	require.NoError(t, err)
	assert.False(res.Ready)
	assert.Equal([]string{"plan"}, res.BlockingStages)

	// Complete plan, but don't create the file yet: still blocked.
	status := lib.StageStatusComplete
	_, err = client.UpdateStage(ctx, "plan", lib.UpdateStageOpts{Status: &status})
	require.NoError(t, err)

	res, err = client.IsReady(ctx, "build")
	require.NoError(t, err)
	assert.False(res.Ready)

	// Create the output file: unblocked.
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "plan.md"), []byte("plan"), 0o644))

	res, err = client.IsReady(ctx, "build")
	require.NoError(t, err)
	assert.True(res.Ready)
	assert.Equal([]string{"plan"}, res.CompleteStages)

	// Unknown stage fails.
	_, err = client.IsReady(ctx, "deploy")
	assert.True(errors.Is(err, lib.ErrNotFound), "expected ErrNotFound, got: %v", err)
}

func TestProgressFlow(t *testing.T) {
	assert := assert.New(t)
	client := newTestClient(t)
	ctx := context.Background()

	// Unrecorded stage should not be found.
	_, err := client.GetStage(ctx, "pm_task")
	assert.True(errors.Is(err, lib.ErrNotFound), "expected ErrNotFound, got: %v", err)

	// Record status and percent.
	status := lib.StageStatusRunning
	percent := 40
	stage, err := client.UpdateStage(ctx, "pm_task", lib.UpdateStageOpts{Status: &status, Percent: &percent})
	require.NoError(t, err)
	assert.Equal(lib.StageStatusRunning, stage.Status)
	assert.Equal(40, stage.Percent)

	// A partial update keeps the previous fields.
	file := "requirements.md"
	stage, err = client.UpdateStage(ctx, "pm_task", lib.UpdateStageOpts{OutputFile: &file})
	require.NoError(t, err)
	assert.Equal(lib.StageStatusRunning, stage.Status)
	assert.Equal(40, stage.Percent)
	assert.Equal("requirements.md", stage.OutputFile)

	// The summary lists every pipeline stage and the recorded artifact.
	summary, err := client.Summary(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, summary.Stages)
	assert.Equal("pm_task", summary.Stages[0].ID)
	require.Len(t, summary.Artifacts, 1)
	assert.Equal("requirements.md", summary.Artifacts[0].FileName)
	assert.Equal("pm_task", summary.Artifacts[0].CreatedBy)
}

func TestWorkItemFlow(t *testing.T) {
	assert := assert.New(t)
	client := newTestClient(t)
	ctx := context.Background()

	item, err := client.AddWorkItem(ctx, "Choose the tech stack", lib.WorkItemPriorityHigh)
	require.NoError(t, err)
	assert.Equal(1, item.ID)

	_, err = client.AddWorkItem(ctx, "Write the backend", "")
	require.NoError(t, err)

	// Substring match completes the first matching pending item.
	done, err := client.CompleteWorkItem(ctx, "tech stack")
	require.NoError(t, err)
	assert.Equal(1, done.ID)
	assert.True(done.Done)

	pending, completed, err := client.ListWorkItems(ctx)
	require.NoError(t, err)
	assert.Len(pending, 1)
	assert.Len(completed, 1)

	// No match should not be found.
	_, err = client.CompleteWorkItem(ctx, "does not exist")
	assert.True(errors.Is(err, lib.ErrNotFound), "expected ErrNotFound, got: %v", err)

	require.NoError(t, client.ClearWorkItems(ctx))
	pending, completed, err = client.ListWorkItems(ctx)
	require.NoError(t, err)
	assert.Empty(pending)
	assert.Empty(completed)
}

func TestDoctor(t *testing.T) {
	assert := assert.New(t)
	client := newTestClient(t)
	ctx := context.Background()

	results, err := client.Doctor(ctx)
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(lib.CheckStatusOK, r.Status)
	}
}
