package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Transport sends one fully built request and yields exactly one
// outcome: a complete Response or a transport-level error. It must
// not retry or stream.
type Transport interface {
	Send(ctx context.Context, spec RequestSpec) (*Response, error)
}

// TransportFunc adapts an ordinary function to a [Transport].
type TransportFunc func(ctx context.Context, spec RequestSpec) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, spec RequestSpec) (*Response, error) {
	return f(ctx, spec)
}

// HTTPTransport is the production [Transport] built on [net/http].
type HTTPTransport struct {
	c      *http.Client
	logger *slog.Logger
}

// NewHTTPTransport wraps hc. A nil hc uses [http.DefaultClient].
func NewHTTPTransport(hc *http.Client, logger *slog.Logger) *HTTPTransport {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPTransport{c: hc, logger: logger}
}

// Send fires the request and reads the whole body before returning.
func (t *HTTPTransport) Send(ctx context.Context, spec RequestSpec) (*Response, error) {
	req, err := spec.Request(ctx)
	if err != nil {
		return nil, err
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// newHTTPClient assembles the *http.Client behind the default transport.
func newHTTPClient(opts options) *http.Client {
	hc := &http.Client{}
	if opts.client != nil {
		cpy := *opts.client
		hc = &cpy
	}

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case hc.Transport != nil:
		rt = hc.Transport
	default:
		rt = http.DefaultTransport
	}
	if opts.userAgent != "" {
		rt = userAgent{value: opts.userAgent, base: rt}
	}
	hc.Transport = rt

	return hc
}
