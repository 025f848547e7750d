package lib_test

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/crewforge/crewd/pkg/lib"
)

// This example shows how to create a client using the fake engine for testing.
func Example_testing() {
	ctx := context.Background()

	// Use a temp workspace and fake engine for testing.
	dir, err := os.MkdirTemp("", "crewd-example-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client, err := lib.New(ctx, lib.Config{
		WorkspaceDir: dir,
		Engine:       lib.EngineFake,
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	// Run a command in the sandbox.
	result, err := client.Exec(ctx, "echo hello", nil)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Exit code: %d\n", result.ExitCode)

	// Output:
	// Exit code: 0
}

// This example shows a stage worker loop: check readiness, do the work,
// report progress.
func Example_stageWorker() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "crewd-example-worker-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client, err := lib.New(ctx, lib.Config{
		WorkspaceDir: dir,
		Engine:       lib.EngineFake,
		Pipeline: []lib.StageDecl{
			{ID: "plan", OutputFile: "plan.md"},
			{ID: "build", DependsOn: []string{"plan"}},
		},
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	// The downstream stage is blocked until plan completes.
	res, err := client.IsReady(ctx, "build")
	if err != nil {
		panic(err)
	}

	fmt.Printf("build ready: %t, blocked on: %v\n", res.Ready, res.BlockingStages)

	// The entry stage can start right away.
	status := lib.StageStatusRunning
	stage, err := client.UpdateStage(ctx, "plan", lib.UpdateStageOpts{Status: &status})
	if err != nil {
		panic(err)
	}

	fmt.Printf("plan: %s\n", stage.Status)

	// Output:
	// build ready: false, blocked on: [plan]
	// plan: running
}

// This example shows how to inspect errors with errors.Is.
func Example_errorHandling() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "crewd-example-errors-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client, err := lib.New(ctx, lib.Config{
		WorkspaceDir: dir,
		Engine:       lib.EngineFake,
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	_, err = client.GetStage(ctx, "unknown_task")
	if errors.Is(err, lib.ErrNotFound) {
		fmt.Println("stage has no recorded progress")
	}

	// Output:
	// stage has no recorded progress
}
