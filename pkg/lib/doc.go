// Package lib provides a Go SDK for coordinating crewd build pipelines
// programmatically.
//
// This package allows applications (typically multi-agent orchestrators) to
// execute commands in the shared sandbox, query stage readiness, and report
// progress without shelling out to the crewd CLI binary.
//
// # Quick Start
//
// Create a client, check readiness, run a stage, and report progress:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Wait for predecessors.
//	res, _ := client.IsReady(ctx, "backend_task")
//	if !res.Ready {
//	    fmt.Println("blocked on:", res.BlockingStages)
//	    return
//	}
//
//	// Run the stage's work in the sandbox.
//	out, _ := client.Exec(ctx, "python backend_app.py --check", nil)
//	fmt.Println(out.Output)
//
//	// Report the result.
//	status := lib.StageStatusComplete
//	file := "backend_app.py"
//	client.UpdateStage(ctx, "backend_task", lib.UpdateStageOpts{
//	    Status:     &status,
//	    OutputFile: &file,
//	})
//
// # Engines
//
// The SDK supports two engine types:
//
//   - [EngineDocker]: A persistent Docker container shared by all stages.
//     Requires a reachable Docker daemon.
//   - [EngineFake]: In-memory simulation for unit testing. No container
//     runtime needed. Set [Config].Engine to [EngineFake] to use it.
//
// # Pipelines
//
// The stage dependency graph is static. The built-in pipeline models a small
// software team (pm -> cto -> backend/frontend -> review/test); pass
// [Config].Pipeline to use your own. The graph is validated at client
// creation: cycles, dangling dependencies, and duplicate stage IDs are
// rejected.
//
// # Work Items
//
// A shared to-do ledger lets agents hand work to each other:
//
//	client.AddWorkItem(ctx, "Wire the payments endpoint", lib.WorkItemPriorityHigh)
//	client.CompleteWorkItem(ctx, "payments endpoint")
//	pending, completed, _ := client.ListWorkItems(ctx)
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Stage or work item does not exist.
//   - [ErrNotValid]: Invalid input (e.g. empty command, unknown status).
//   - [ErrRuntimeUnavailable]: The container runtime cannot be reached.
//
// # Testing
//
// Use [EngineFake] and a temporary workspace to write tests without real
// infrastructure:
//
//	client, _ := lib.New(ctx, lib.Config{
//	    WorkspaceDir: t.TempDir(),
//	    Engine:       lib.EngineFake,
//	})
//	defer client.Close()
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. State
// updates go through load-modify-save on the configured backend; use
// [StateBackendSQLite] when many writers share a workspace.
package lib
