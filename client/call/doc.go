// Package call delivers the outcome of an asynchronous API call.
//
// A [Result] is a single-delivery completion handle: it settles exactly
// once with either a value or an error, and every observer sees the
// same outcome.
//
//	r := call.Start(ctx, q, func(ctx context.Context) (User, error) {
//		return fetchUser(ctx)
//	})
//	// ... do other work ...
//	u, err := r.Value()
//
// Callbacks registered with [Result.Then] run at most once, through the
// queue's [Dispatcher]. [Result.Cancel] abandons the call: its context
// is cancelled and no callback runs afterwards.
//
// A [Queue] tracks in-flight work, optionally bounds concurrency and
// can be shut down so that new work is rejected with [ErrQueueShutdown].
package call
