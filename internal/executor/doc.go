// Package executor renders batches of Mermaid diagrams with bounded concurrency.
//
// A Pool takes independent render requests and runs them through a Renderer
// (normally a *render.Executor) with at most K renders in flight. K comes from
// render.Config.Concurrency and is 1 in serial mode.
//
// # Basic Usage
//
//	exec := render.NewExecutor(cfg, logger)
//	pool, err := executor.NewPool(cfg, exec, logger)
//	if err != nil {
//	    return err
//	}
//
//	for _, path := range files {
//	    data, _ := os.ReadFile(path)
//	    pool.Submit(render.Request{ID: path, Input: bytes.NewReader(data)})
//	}
//
//	results := pool.Execute(ctx)
//
// # Admission
//
// Every run owns a fresh Gate (a weighted semaphore from golang.org/x/sync).
// A request acquires a permit before its renderer starts and releases it when
// the render ends, whatever the outcome. The gate's Peak reports the highest
// number of renders that were live at once.
//
// # Failure Isolation
//
// A failed render produces a Result with a *render.Error and nothing else.
// It never stops sibling renders or later admissions. Register OnFailure to be
// told about each failure as it happens:
//
//	pool.OnFailure(func(r executor.Result) {
//	    kind, _ := render.KindOf(r.Error)
//	    logger.Error("render failed", "id", r.ID, "kind", kind, "error", r.Error)
//	})
//
// # Cancellation
//
// Cancelling the context passed to Execute stops admission. The request that
// was waiting for a permit and every request behind it resolve as Cancelled
// without a process being started; in-flight renders are killed by the
// Renderer and also resolve as Cancelled. Execute still returns one Result per
// submitted request.
//
// # Result Aggregation
//
//	successful := executor.FilterSuccessful(results)
//	timeouts := executor.FilterByKind(results, render.KindTimeout)
//	summary := executor.Summarize(results)
package executor
