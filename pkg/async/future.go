// Package async holds the primitive used by the non-blocking request path:
// a single-assignment Future whose value is produced on its own goroutine.
package async

import (
	"context"
	"fmt"
)

// Future is the pending result of an operation started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on a new goroutine and returns a Future for its result.
// A panic inside fn is converted into an error instead of crashing the process.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("async: panic: %v", r)
			}
		}()

		f.val, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns a Future that is already complete.
func Resolved[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val, err: err}
	close(f.done)
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await suspends the caller until the result is ready or ctx is done.
// Abandoning a Future does not cancel the underlying operation; cancel the
// context passed to Go for that.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the result is ready.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}
