package call

import (
	"context"
	"sync"
)

// Result represents an in-flight or completed call producing a T.
type Result[T any] struct {
	done     chan struct{}
	cancel   context.CancelFunc
	dispatch Dispatcher
	mapErr   func(error) error

	mu        sync.Mutex
	settled   bool
	abandoned bool
	val       T
	err       error
	callbacks []func(T, error)
}

func newResult[T any](q *Queue, cancel context.CancelFunc) *Result[T] {
	return &Result[T]{
		done:     make(chan struct{}),
		cancel:   cancel,
		dispatch: q.dispatch,
		mapErr:   q.mapErr,
	}
}

// Done returns a channel that is closed when the call settles.
func (r *Result[T]) Done() <-chan struct{} { return r.done }

// Err blocks until the call settles and returns its error.
func (r *Result[T]) Err() error {
	_, err := r.Value()
	return err
}

// Value blocks until the call settles and returns its outcome.
func (r *Result[T]) Value() (T, error) {
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.val, r.err
}

// Await is like Value but gives up when ctx ends. Giving up does
// not cancel the call.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.Value()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers fn to receive the outcome. fn runs at most once,
// through the queue's Dispatcher; it never runs for an abandoned call.
func (r *Result[T]) Then(fn func(T, error)) {
	r.mu.Lock()
	if r.abandoned {
		r.mu.Unlock()
		return
	}
	if r.settled {
		v, err := r.val, r.err
		r.mu.Unlock()
		r.dispatch(func() { fn(v, err) })
		return
	}
	r.callbacks = append(r.callbacks, fn)
	r.mu.Unlock()
}

// Cancel abandons the call. Registered callbacks are dropped and the
// call's context is cancelled. Cancelling a settled call is a no-op.
func (r *Result[T]) Cancel() {
	r.mu.Lock()
	if r.settled || r.abandoned {
		r.mu.Unlock()
		return
	}
	r.abandoned = true
	r.callbacks = nil
	r.mu.Unlock()

	r.cancel()
}

// Abandoned reports whether Cancel took effect before the call settled.
func (r *Result[T]) Abandoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.abandoned
}

// settle stores the outcome once and notifies observers.
func (r *Result[T]) settle(v T, err error) {
	r.mu.Lock()
	if r.settled {
		r.mu.Unlock()
		return
	}
	r.settled = true

	if r.abandoned {
		var zero T
		r.val = zero
		r.err = err
		if r.err == nil {
			r.err = r.mapErr(context.Canceled)
		}
		r.mu.Unlock()
		close(r.done)
		return
	}

	r.val, r.err = v, err
	callbacks := r.callbacks
	r.callbacks = nil
	r.mu.Unlock()

	close(r.done)

	for _, fn := range callbacks {
		r.dispatch(func() { fn(v, err) })
	}
}
