// Package busan runs a fixed batch of inputs through an asynchronous job
// function with bounded concurrency and streams results in completion order.
//
// It combines:
//   - errgroup for job execution and the concurrency ceiling
//   - an internal actor-style manager loop for admission and result streaming
//
// Core behavior:
//   - start a batch with Run
//   - consume completions in completion order via Next(ctx)
//   - adapt to a range-friendly channel with Results(ctx)
//   - wait for every launched job with Wait
//
// Scheduling:
//   - at most maxAtOnce jobs run at any instant
//   - an optional admission predicate (WithAdmission) can veto starting a
//     pending input while specific other inputs are running
//   - after every completion the pending list is rescanned from the front,
//     so a previously vetoed input is reconsidered as soon as the running
//     set changes
//   - if inputs remain pending, nothing is running, and every candidate is
//     vetoed, the stream fails with *StuckSchedulerError
//
// Semantics:
//   - Next(ctx) returns (res, true, nil) for one completed job
//   - Next(ctx) returns (zero, false, nil) once all results were consumed,
//     and keeps doing so on later calls
//   - Next(ctx) returns (zero, false, err) after a job failure or a stuck
//     scheduler; the error repeats on later calls
//   - Next(ctx) returns (zero, false, ctx.Err()) if the caller context ends
//   - a failed job terminates the stream; already-running jobs finish but
//     their outcomes are discarded
//   - a second Next while one is still waiting fails with ErrConcurrentNext
package busan
