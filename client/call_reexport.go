package client

import "github.com/adamwoolhether/apicall/client/call"

// ————————————————————————————————————————————————————————————————————
// Type aliases – re-export user-facing types from [call].
// ————————————————————————————————————————————————————————————————————

type (
	// Call represents an in-flight or settled API call producing a T.
	Call[T any] = call.Result[T]

	// Dispatcher runs completion callbacks on a caller-chosen context.
	Dispatcher = call.Dispatcher
)

// ErrQueueShutdown indicates the call was started after [Client.Close].
var ErrQueueShutdown = call.ErrQueueShutdown

// Wait blocks until every call has settled and returns their errors
// joined via errors.Join.
func Wait[T any](calls ...*Call[T]) error {
	return call.Wait(calls...)
}
