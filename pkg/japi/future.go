package japi

import (
	"context"
	"sync/atomic"
)

// Future is a one-shot container for the terminal result of an operation.
// It is resolved exactly once by the operation that owns it; resolving twice
// is a contract violation and panics. Consumers wait on Done or Await and
// read the result afterwards.
type Future[T any] struct {
	done     chan struct{}
	resolved atomic.Bool
	value    T
	err      error
}

// NewFuture creates an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future with a value or an error. Exactly one call is
// allowed for the lifetime of the future.
func (f *Future[T]) Resolve(value T, err error) {
	if !f.resolved.CompareAndSwap(false, true) {
		panic("japi: future resolved twice")
	}

	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsResolved reports whether the future has been resolved.
func (f *Future[T]) IsResolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future resolves or the context is cancelled. A
// cancelled wait does not abort the underlying operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// Result returns the terminal value and error. It must only be called after
// Done is closed; calling it earlier panics, because a result does not exist
// before the operation finishes.
func (f *Future[T]) Result() (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		panic("japi: future result read before resolution")
	}
}
