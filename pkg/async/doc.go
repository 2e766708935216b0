// Package async provides small generic helpers for background work: futures,
// fan-out settlement and delayed tasks.
//
// Async starts a function in its own goroutine and returns a *Future. Callers
// wait with Await, AwaitWithTimeout or poll with IsComplete. WaitAll stops at
// the first failure, while Settle waits for every future and joins the errors,
// which suits fan-out where each branch is independent and best-effort.
//
// Go and After cover fire-and-forget work. Panics inside a task are recovered
// and reported as errors wrapping ErrPanic so that background work can never
// crash the embedding program.
//
// # Usage
//
//	futures := make([]*async.Future[int], 0, len(points))
//	for _, p := range points {
//	    futures = append(futures, async.Async(ctx, p, push))
//	}
//	codes, err := async.Settle(futures...)
//
//	async.After(ctx, 2*time.Second, func(ctx context.Context) {
//	    collect(ctx)
//	})
//
// # Context
//
// A context canceled before the task starts completes the future with the
// context error without running the task. Tasks are expected to honour ctx
// themselves once running.
package async
