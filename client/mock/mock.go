// Package mock provides a scripted [client.Transport] for tests.
//
// Each programmed [Outcome] is handed to exactly one Send, in order,
// without any network access:
//
//	tr := mock.New(mock.Success(http.StatusOK, []byte(`{"id":1}`)))
//	c, _ := client.Build(client.WithTransport(tr))
//
// [Transport.Hold] keeps sends in flight until [Transport.Release],
// which makes cancellation paths deterministic.
package mock

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/adamwoolhether/apicall/client"
)

// ErrExhausted is returned by Send once every programmed outcome has
// been consumed.
var ErrExhausted = errors.New("mock: no outcome programmed")

// Outcome is a pre-programmed transport result: either a response or
// a failure.
type Outcome struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

// Success programs a response with the given status and body.
func Success(status int, body []byte) Outcome {
	return Outcome{StatusCode: status, Body: body}
}

// JSON programs a response carrying a JSON content type.
func JSON(status int, body string) Outcome {
	return Outcome{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
}

// Failure programs a transport-level failure.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// Transport replays programmed outcomes and records every request.
type Transport struct {
	mu       sync.Mutex
	outcomes []Outcome
	requests []client.RequestSpec
	gate     chan struct{}
}

// New returns a Transport replaying outcomes in order.
func New(outcomes ...Outcome) *Transport {
	return &Transport{outcomes: outcomes}
}

// Push programs additional outcomes.
func (t *Transport) Push(outcomes ...Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.outcomes = append(t.outcomes, outcomes...)
}

// Hold makes subsequent sends block until Release or until their
// context ends.
func (t *Transport) Hold() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gate == nil {
		t.gate = make(chan struct{})
	}
}

// Release unblocks every held send.
func (t *Transport) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gate != nil {
		close(t.gate)
		t.gate = nil
	}
}

// Send records spec and returns the next programmed outcome.
func (t *Transport) Send(ctx context.Context, spec client.RequestSpec) (*client.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, spec)
	gate := t.gate
	t.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if len(t.outcomes) == 0 {
		t.mu.Unlock()
		return nil, ErrExhausted
	}
	out := t.outcomes[0]
	t.outcomes = t.outcomes[1:]
	t.mu.Unlock()

	if out.Err != nil {
		return nil, out.Err
	}

	return &client.Response{
		StatusCode: out.StatusCode,
		Header:     out.Header.Clone(),
		Body:       append([]byte(nil), out.Body...),
	}, nil
}

// Requests returns the requests received so far.
func (t *Transport) Requests() []client.RequestSpec {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]client.RequestSpec(nil), t.requests...)
}

// Calls returns how many sends were received.
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.requests)
}

// Remaining returns how many outcomes are still programmed.
func (t *Transport) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.outcomes)
}
