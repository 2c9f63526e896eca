// Package operations contains the asynchronous unit-of-work layer: a
// per-operation finite state machine, a bounded concurrent work queue, and
// the concrete fetch/save/delete/relationship operations.
package operations

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/japi/internal/constants"
	"github.com/fivetwenty-io/japi/internal/router"
	"github.com/fivetwenty-io/japi/internal/serializer"
	"github.com/fivetwenty-io/japi/pkg/japi"
)

// ErrCancelled resolves the future of an operation cancelled before it was
// dispatched.
var ErrCancelled = errors.New("operation cancelled before execution")

// State is the lifecycle state of one operation.
type State int32

const (
	// StateReady means the operation has not been dispatched yet.
	StateReady State = iota

	// StateExecuting means the operation's network call is in flight.
	StateExecuting

	// StateFinished is terminal. The operation's result exists only here.
	StateFinished
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Context holds the shared collaborators every operation executes against.
type Context struct {
	Router     *router.Router
	Serializer *serializer.Serializer
	Network    japi.NetworkClient
	Logger     japi.Logger
}

// Operation is one dispatchable unit of work.
type Operation interface {
	// ID is the correlation id of the operation.
	ID() string

	// State returns the current lifecycle state.
	State() State

	// Cancel requests that the operation not execute. Cancelling after
	// dispatch does not abort the in-flight network call.
	Cancel()

	dispatch(ctx context.Context, opCtx *Context)
}

// base carries the state machine shared by all concrete operations. State
// transitions are monotonic and single-writer: only the dispatch path
// mutates them, so no lock is needed.
type base struct {
	id        string
	state     atomic.Int32
	cancelled atomic.Bool
}

func newBase() base {
	return base{id: uuid.NewString()}
}

// ID implements Operation.
func (b *base) ID() string {
	return b.id
}

// State implements Operation.
func (b *base) State() State {
	return State(b.state.Load())
}

// Cancel implements Operation.
func (b *base) Cancel() {
	b.cancelled.Store(true)
}

// run drives one operation through the state machine and resolves its
// future exactly once. A cancelled operation moves Ready → Finished without
// executing and produces no result value; otherwise Ready → Executing →
// Finished, with the terminal transition happening before the future
// resolves so a notified consumer always observes StateFinished.
func run[T any](b *base, future *japi.Future[T], execute func() (T, error)) {
	var zero T

	if b.cancelled.Load() {
		b.state.Store(int32(StateFinished))
		future.Resolve(zero, japi.ClassifyError(ErrCancelled))

		return
	}

	if !b.state.CompareAndSwap(int32(StateReady), int32(StateExecuting)) {
		// Already dispatched once; an operation never re-enters Executing.
		return
	}

	value, err := execute()

	b.state.Store(int32(StateFinished))
	future.Resolve(value, err)
}

// Queue executes operations concurrently, bounded by a worker limit.
// Operations may complete in any order.
type Queue struct {
	opCtx     *Context
	semaphore chan struct{}
	waitGroup sync.WaitGroup
}

// NewQueue creates a queue around the shared operation context.
func NewQueue(opCtx *Context, concurrency int) *Queue {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &Queue{
		opCtx:     opCtx,
		semaphore: make(chan struct{}, concurrency),
	}
}

// Enqueue submits an operation for execution. The context bounds the
// operation's network call; the future resolves on completion either way.
func (q *Queue) Enqueue(ctx context.Context, op Operation) {
	q.waitGroup.Add(1)

	go func() {
		defer q.waitGroup.Done()

		q.semaphore <- struct{}{}

		defer func() { <-q.semaphore }()

		op.dispatch(ctx, q.opCtx)
	}()
}

// Wait blocks until every enqueued operation has finished.
func (q *Queue) Wait() {
	q.waitGroup.Wait()
}
