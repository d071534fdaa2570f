package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/apicall/client/call"
	"github.com/adamwoolhether/apicall/client/throttle"
)

// Config is a snapshot of the client state that can change after
// [Build]: the bearer token, the logging flag and the active transport.
type Config struct {
	Token     string
	Logging   bool
	Transport Transport
}

// Client executes declarative JSON calls through a swappable [Transport].
//
// The configuration mutators are safe to call concurrently with calls in
// flight. Each call snapshots the configuration when it is built, so a
// change only affects calls built afterwards.
type Client struct {
	cfg             atomic.Pointer[Config]
	fallback        Transport
	logger          *slog.Logger
	exchange        ExchangeLogger
	tracer          trace.Tracer
	limiter         *throttle.Limiter
	queue           *call.Queue
	baseURL         *url.URL
	requestIDHeader string
}

// Build creates a [Client] from the provided options. Unless replaced,
// calls go through an HTTP transport on a fresh [http.Client].
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		logger:          slog.Default(),
		tracer:          noop.NewTracerProvider().Tracer("no-op tracer"),
		baseURL:         opts.baseURL,
		requestIDHeader: opts.requestIDHeader,
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	client.exchange = opts.exchangeLogger
	if client.exchange == nil {
		client.exchange = NewExchangeLogger(client.logger)
	}

	if opts.throttle != nil {
		l, err := throttle.New(*opts.throttle, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		client.limiter = l
	}

	queueOpts := []call.QueueOption{
		call.WithErrorMapper(func(err error) error { return classify("queue", err) }),
	}
	if opts.dispatcher != nil {
		queueOpts = append(queueOpts, call.WithDispatcher(opts.dispatcher))
	}
	client.queue = call.NewQueue(opts.maxInFlight, queueOpts...)

	client.fallback = NewHTTPTransport(newHTTPClient(opts), client.logger)

	transport := opts.transport
	if transport == nil {
		transport = client.fallback
	}

	client.cfg.Store(&Config{
		Token:     opts.token,
		Logging:   opts.logging,
		Transport: transport,
	})

	return client, nil
}

// Config returns the current configuration snapshot.
func (c *Client) Config() Config {
	return *c.cfg.Load()
}

// ConfigureAuthorization stores the bearer token sent as the
// Authorization header on every later call. Pass the token without
// the "Bearer " prefix; an empty token stops sending the header.
func (c *Client) ConfigureAuthorization(token string) {
	c.update(func(cfg *Config) { cfg.Token = token })
}

// EnableLogging toggles request/response diagnostics.
func (c *Client) EnableLogging(enable bool) {
	c.update(func(cfg *Config) { cfg.Logging = enable })
}

// SetTransport swaps the transport used by later calls. A nil
// transport restores the default HTTP transport.
func (c *Client) SetTransport(t Transport) {
	if t == nil {
		t = c.fallback
	}
	c.update(func(cfg *Config) { cfg.Transport = t })
}

func (c *Client) update(fn func(*Config)) {
	for {
		old := c.cfg.Load()
		cpy := *old
		fn(&cpy)
		if c.cfg.CompareAndSwap(old, &cpy) {
			return
		}
	}
}

// NewBuilder returns a [Builder] for rawURL, resolved against the
// client's base URL when one is configured.
func (c *Client) NewBuilder(rawURL string) Builder {
	return NewBuilder(c.target(rawURL))
}

// Wait blocks until every call started on the client has settled.
// Calls started while Wait is blocked are not guaranteed to be
// waited for; Close gives that guarantee.
func (c *Client) Wait() {
	c.queue.Wait()
}

// Close stops admitting new calls and waits for those in flight.
// Calls started after Close fail with an error matching [ErrUnknown]
// and [call.ErrQueueShutdown].
func (c *Client) Close() {
	c.queue.Shutdown()
	c.queue.Wait()
}

func (c *Client) target(rawURL string) string {
	if c.baseURL == nil {
		return rawURL
	}

	ref, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	return c.baseURL.ResolveReference(ref).String()
}

// Send executes the request assembled by b and decodes the JSON
// response into a T. The returned Result settles exactly once.
func Send[T any](ctx context.Context, c *Client, b Builder, optFns ...CallOption) *call.Result[T] {
	var opts callOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return call.Failed[T](c.queue, classify("call option", err))
		}
	}

	cfg := c.cfg.Load()

	spec, err := opts.apply(b).Build()
	if err != nil {
		return call.Failed[T](c.queue, classify("build", err))
	}

	if cfg.Token != "" {
		spec = spec.withHeader(headerAuthorization, "Bearer "+cfg.Token)
	}

	id := uuid.NewString()
	if c.requestIDHeader != "" && spec.Header(c.requestIDHeader) == "" {
		spec = spec.withHeader(c.requestIDHeader, id)
	}

	return call.Start(ctx, c.queue, func(ctx context.Context) (T, error) {
		return execute[T](ctx, c, cfg, id, spec, opts)
	})
}

// execute runs the Sent -> Validated -> Decoded stages of one call.
func execute[T any](ctx context.Context, c *Client, cfg *Config, id string, spec RequestSpec, opts callOpts) (T, error) {
	var zero T

	ctx, span := c.tracer.Start(ctx, "apicall "+spec.Method().String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("apicall.id", id),
			attribute.String("http.request.method", spec.Method().String()),
			attribute.String("url.full", spec.URL().String()),
		),
	)
	defer span.End()

	fail := func(op string, err error) (T, error) {
		err = classify(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		return zero, err
	}

	if err := c.limiter.Wait(ctx, spec.URL().Path); err != nil {
		return fail("throttle", err)
	}

	resp, err := cfg.Transport.Send(ctx, spec)
	if err != nil {
		return fail("send", err)
	}
	if resp == nil {
		return fail("send", errors.New("transport returned no response"))
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if !resp.OK() {
		return fail("validate", statusError(resp))
	}

	if cfg.Logging {
		c.exchange.LogExchange(ctx, id, spec, resp)
	}

	v, err := decode[T](resp.Body, opts)
	if err != nil {
		return fail("decode", err)
	}

	return v, nil
}

// decode parses body as a single JSON value into a T.
func decode[T any](body []byte, opts callOpts) (T, error) {
	var zero, v T
	target := reflect.TypeFor[T]()

	d := json.NewDecoder(bytes.NewReader(body))
	if opts.useJSONNum {
		d.UseNumber()
	}
	if opts.strict {
		d.DisallowUnknownFields()
	}

	if err := d.Decode(&v); err != nil {
		return zero, decodeError(target, err)
	}

	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return zero, decodeError(target, errors.New("unexpected data after top-level value"))
	}

	if opts.validate {
		if err := Validate(&v); err != nil {
			return zero, decodeError(target, err)
		}
	}

	return v, nil
}

// apply layers the per-call settings over b.
func (o callOpts) apply(b Builder) Builder {
	for k, v := range o.query {
		b = b.AddQueryParameter(k, v)
	}
	for k, v := range o.headers {
		b = b.AddHeader(k, v)
	}

	switch {
	case o.rawBody != nil:
		b = b.SetBody(o.rawBody)
	case o.body != nil:
		b = b.SetJSONBody(o.body)
	}

	return b
}
