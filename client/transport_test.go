package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/apicall/client"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type payload struct {
	Body string `json:"body"`
}

func newServerClient(t *testing.T, h http.HandlerFunc, opts ...client.Option) *client.Client {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := client.Build(append([]client.Option{client.WithBaseURL(ts.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(c.Close)

	return c
}

func TestHTTPTransport_RoundTrip(t *testing.T) {
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept application/json, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected Authorization Bearer abc, got %q", got)
		}
		if got := r.URL.Query().Get("v"); got != "2" {
			t.Errorf("expected query v=2, got %q", got)
		}

		var p payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decoding request body: %v", err)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	}, client.WithAuthorization("abc"))

	got, err := client.Post[payload](t.Context(), c, "/echo", map[string]string{"v": "2"}, payload{Body: "hi"}).Value()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.Body != "hi" {
		t.Errorf("body = %q, want hi", got.Body)
	}
}

func TestHTTPTransport_ResponseError(t *testing.T) {
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "widget not found", http.StatusNotFound)
	})

	err := client.Get[payload](t.Context(), c, "/missing", nil).Err()

	var statusErr *client.UnexpectedStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *UnexpectedStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "widget not found") {
		t.Errorf("body = %q, want it to mention the failure", statusErr.Body)
	}
}

func TestClient_WithUserAgent(t *testing.T) {
	expectedUA := "TestUserAgent/1.0"

	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		if ua != expectedUA {
			t.Errorf("expected User-Agent %q, got %q", expectedUA, ua)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{}`)
	}, client.WithUserAgent(expectedUA))

	if err := client.Get[payload](t.Context(), c, "/", nil).Err(); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestClient_WithThrottleAndUserAgent(t *testing.T) {
	expectedUA := "ThrottledAgent/1.0"

	// WithThrottle applied before WithUserAgent; order shouldn't matter.
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		if ua != expectedUA {
			t.Errorf("expected User-Agent %q, got %q", expectedUA, ua)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{}`)
	}, client.WithThrottle(100, 10), client.WithUserAgent(expectedUA))

	if err := client.Get[payload](t.Context(), c, "/", nil).Err(); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestClient_WithRoundTripper(t *testing.T) {
	var called bool
	custom := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return http.DefaultTransport.RoundTrip(r)
	})

	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}, client.WithRoundTripper(custom))

	if err := client.Get[payload](t.Context(), c, "/", nil).Err(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !called {
		t.Error("expected custom round tripper to be called")
	}
}

func TestClient_WithClient(t *testing.T) {
	var called bool
	hc := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			called = true
			return http.DefaultTransport.RoundTrip(r)
		}),
	}

	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}, client.WithClient(hc))

	if err := client.Get[payload](t.Context(), c, "/", nil).Err(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !called {
		t.Error("expected the provided client's transport to be used")
	}
	if hc.Timeout != 0 || hc.CheckRedirect != nil {
		t.Error("provided http.Client must not be mutated")
	}
}

func TestClient_WithNoFollowRedirects(t *testing.T) {
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		io.WriteString(w, `{}`)
	}, client.WithNoFollowRedirects())

	err := client.Get[payload](t.Context(), c, "/old", nil).Err()

	var statusErr *client.UnexpectedStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *UnexpectedStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want 302", statusErr.StatusCode)
	}
}

func TestClient_FollowsRedirectsByDefault(t *testing.T) {
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		io.WriteString(w, `{"body":"`+r.URL.Path+`"}`)
	})

	got, err := client.Get[payload](t.Context(), c, "/old", nil).Value()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.Body != "/new" {
		t.Errorf("body = %q, want /new", got.Body)
	}
}

func TestClient_WithTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, client.WithTimeout(20*time.Millisecond))
	defer close(release)

	err := client.Get[payload](t.Context(), c, "/slow", nil).Err()
	if !errors.Is(err, client.ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer c.Close()

	err = client.Get[payload](t.Context(), c, addr, nil).Err()
	if !errors.Is(err, client.ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
}

func TestHTTPTransport_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	headers := make(chan string, 1)
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Get("Traceparent")
		io.WriteString(w, `{}`)
	})

	ctx := trace.ContextWithRemoteSpanContext(t.Context(), parent)
	if err := client.Get[payload](ctx, c, "/", nil).Err(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if got := <-headers; !strings.Contains(got, traceID.String()) {
		t.Errorf("traceparent %q does not carry trace id %s", got, traceID)
	}
}

func TestRequestSpec_Request(t *testing.T) {
	spec, err := client.NewBuilder("https://example.com").
		SetPath("/items").
		SetMethod(client.MethodPut).
		AddHeader("X-Trace", "1").
		SetBody([]byte(`{"a":1}`)).
		Build()
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	req, err := spec.Request(context.Background())
	if err != nil {
		t.Fatalf("instantiating request: %v", err)
	}

	if req.Method != http.MethodPut {
		t.Errorf("method = %s, want PUT", req.Method)
	}
	if req.Header.Get("X-Trace") != "1" {
		t.Errorf("X-Trace = %q, want 1", req.Header.Get("X-Trace"))
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != `{"a":1}` {
		t.Errorf("body = %q", body)
	}

	if _, err := (client.RequestSpec{}).Request(context.Background()); !errors.Is(err, client.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL for an unbuilt spec, got %v", err)
	}
}
