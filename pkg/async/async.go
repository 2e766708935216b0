package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Future holds the eventual result of a background computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation finishes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout is Await bounded by timeout. ErrTimeout is returned when the
// computation is still running after timeout; it keeps running in background.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports completion without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done exposes the completion channel for select statements.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Async runs fn(ctx, param) in its own goroutine. A panic inside fn completes
// the future with an error wrapping ErrPanic instead of crashing the host.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				f.result = zero
				f.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		// Pre-canceled contexts never start the work.
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Go runs fn in background without a result. onErr, when not nil, receives the
// error returned by fn or the recovered panic.
func Go(ctx context.Context, fn func(context.Context) error, onErr func(error)) {
	f := Async(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if onErr == nil {
		return
	}
	go func() {
		if _, err := f.Await(); err != nil {
			onErr(err)
		}
	}()
}

// After runs fn once delay has elapsed, unless ctx is canceled first.
func After(ctx context.Context, delay time.Duration, fn func(context.Context)) *Future[struct{}] {
	return Async(ctx, delay, func(ctx context.Context, d time.Duration) (struct{}, error) {
		if d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return struct{}{}, ctx.Err()
			case <-timer.C:
			}
		}
		fn(ctx)
		return struct{}{}, nil
	})
}

// WaitAll waits for the futures in order and stops at the first error.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))

	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// Settle waits for every future to finish, even when some fail, and returns all
// results together with the joined errors.
func Settle[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	errs := make([]error, len(futures))

	var wg sync.WaitGroup
	for i, future := range futures {
		wg.Add(1)
		go func(i int, f *Future[U]) {
			defer wg.Done()
			results[i], errs[i] = f.Await()
		}(i, future)
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// WaitAny returns the index and outcome of the first future to complete.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	if len(futures) == 0 {
		var zero U
		return -1, zero, ErrNoFutures
	}

	type outcome struct {
		index  int
		result U
		err    error
	}
	done := make(chan outcome, len(futures))

	for i, future := range futures {
		go func(index int, f *Future[U]) {
			result, err := f.Await()
			done <- outcome{index, result, err}
		}(i, future)
	}

	res := <-done
	return res.index, res.result, res.err
}
