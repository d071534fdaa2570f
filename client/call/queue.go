package call

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueShutdown is reported by work started after [Queue.Shutdown].
var ErrQueueShutdown = errors.New("queue shut down")

// WorkFunc is the signature for async work producing a T.
type WorkFunc[T any] func(ctx context.Context) (T, error)

// Dispatcher runs a completion callback on the caller's chosen context,
// such as a single event-loop goroutine.
type Dispatcher func(fn func())

// Inline runs fn on the goroutine that settled the call.
func Inline(fn func()) { fn() }

// QueueOption is a functional option for [NewQueue].
type QueueOption func(*Queue)

// WithDispatcher routes every completion callback through d.
func WithDispatcher(d Dispatcher) QueueOption {
	return func(q *Queue) {
		if d != nil {
			q.dispatch = d
		}
	}
}

// WithErrorMapper converts errors raised by the queue itself
// (shutdown, cancellation while waiting for a slot, abandonment)
// before they are stored in a [Result].
func WithErrorMapper(fn func(error) error) QueueOption {
	return func(q *Queue) {
		if fn != nil {
			q.mapErr = fn
		}
	}
}

// Queue manages in-flight async calls.
type Queue struct {
	mu       sync.Mutex // orders wg.Add against Shutdown
	wg       sync.WaitGroup
	sem      chan struct{}
	shutdown atomic.Bool
	dispatch Dispatcher
	mapErr   func(error) error
}

// NewQueue creates a Queue with the given concurrency limit.
// If maxConcurrent <= 0, concurrency is unlimited.
func NewQueue(maxConcurrent int, optFns ...QueueOption) *Queue {
	q := &Queue{
		dispatch: Inline,
		mapErr:   func(err error) error { return err },
	}
	if maxConcurrent > 0 {
		q.sem = make(chan struct{}, maxConcurrent)
	}
	for _, opt := range optFns {
		opt(q)
	}

	return q
}

// Wait blocks until all work started on the queue has settled.
// Work started concurrently with Wait may or may not be waited for;
// use Shutdown first to get a stable set.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Shutdown prevents new work from executing on this queue.
// Work already running is not interrupted.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.shutdown.Store(true)
}

// Closed reports whether Shutdown has been called.
func (q *Queue) Closed() bool {
	return q.shutdown.Load()
}

// Start launches fn in a new goroutine managed by q and returns
// a Result for tracking it. Cancelling the Result, or ctx, cancels
// the context handed to fn.
func Start[T any](ctx context.Context, q *Queue, fn WorkFunc[T]) *Result[T] {
	ctx, cancel := context.WithCancel(ctx)
	r := newResult[T](q, cancel)

	var zero T

	q.mu.Lock()
	if q.shutdown.Load() {
		q.mu.Unlock()
		cancel()
		r.settle(zero, q.mapErr(ErrQueueShutdown))
		return r
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			q.wg.Done()
		}()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() {
					<-q.sem
				}()
			case <-ctx.Done():
				r.settle(zero, q.mapErr(ctx.Err()))
				return
			}
		}

		// Shutdown may have happened while waiting for a slot.
		if q.shutdown.Load() {
			r.settle(zero, q.mapErr(ErrQueueShutdown))
			return
		}

		v, err := fn(ctx)
		r.settle(v, err)
	}()

	return r
}

// Failed returns a Result that has already settled with err.
// It is used for calls rejected before any work could start.
func Failed[T any](q *Queue, err error) *Result[T] {
	r := newResult[T](q, func() {})
	var zero T
	r.settle(zero, err)

	return r
}

// Wait blocks until every result has settled and returns their
// errors joined via errors.Join.
func Wait[T any](results ...*Result[T]) error {
	errs := make([]error, 0, len(results))
	for _, r := range results {
		if err := r.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
