package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/apicall/client/call"
	"github.com/adamwoolhether/apicall/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	transport         Transport
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	exchangeLogger    ExchangeLogger
	tracer            trace.Tracer
	token             string
	logging           bool
	baseURL           *url.URL
	maxInFlight       int
	dispatcher        call.Dispatcher
	requestIDHeader   string
}

// WithClient replaces the default [http.Client] used by the HTTP transport.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithRoundTripper sets a custom [http.RoundTripper] under the HTTP transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("round tripper must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTransport replaces the HTTP transport entirely, e.g. with a
// scripted transport from the mock package.
func WithTransport(t Transport) Option {
	return func(c *options) error {
		if t == nil {
			return errors.New("transport must not be nil")
		}
		c.transport = t
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the HTTP transport from following redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithExchangeLogger replaces the collaborator rendering request and
// response diagnostics while logging is enabled.
func WithExchangeLogger(l ExchangeLogger) Option {
	return func(c *options) error {
		if l == nil {
			return errors.New("exchange logger must not be nil")
		}
		c.exchangeLogger = l
		return nil
	}
}

// WithTracer records one client span per call on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		c.tracer = tracer
		return nil
	}
}

// WithAuthorization configures the initial bearer token.
func WithAuthorization(token string) Option {
	return func(c *options) error {
		c.token = token
		return nil
	}
}

// WithLogging sets the initial state of exchange logging.
func WithLogging(enable bool) Option {
	return func(c *options) error {
		c.logging = enable
		return nil
	}
}

// WithBaseURL resolves relative call URLs against rawURL.
func WithBaseURL(rawURL string) Option {
	return func(c *options) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return &InvalidURLError{URL: rawURL, Err: err}
		}
		if u.Scheme == "" || u.Host == "" {
			return &InvalidURLError{URL: rawURL, Err: errors.New("scheme and host are required")}
		}
		c.baseURL = u
		return nil
	}
}

// WithMaxInFlight bounds the number of calls executing concurrently.
// Further calls wait for a free slot.
func WithMaxInFlight(n int) Option {
	return func(c *options) error {
		if n <= 0 {
			return fmt.Errorf("max in flight[%d] %w", n, throttle.ErrMustNotBeZero)
		}
		c.maxInFlight = n
		return nil
	}
}

// WithDispatcher routes every completion callback registered through
// [call.Result.Then] via d.
func WithDispatcher(d call.Dispatcher) Option {
	return func(c *options) error {
		if d == nil {
			return errors.New("dispatcher must not be nil")
		}
		c.dispatcher = d
		return nil
	}
}

// WithRequestIDHeader stamps every request with a fresh uuid under name.
func WithRequestIDHeader(name string) Option {
	return func(c *options) error {
		if name == "" {
			return errors.New("request id header name must not be empty")
		}
		c.requestIDHeader = name
		return nil
	}
}

// CallOption is a functional option for a single call.
type CallOption func(*callOpts) error

type callOpts struct {
	query      map[string]string
	headers    map[string]string
	body       any
	rawBody    []byte
	useJSONNum bool
	strict     bool
	validate   bool
}

// WithQueryParameters adds query parameters to the call.
func WithQueryParameters(params map[string]string) CallOption {
	return func(opts *callOpts) error {
		if opts.query == nil {
			opts.query = make(map[string]string, len(params))
		}
		for k, v := range params {
			opts.query[k] = v
		}

		return nil
	}
}

// WithHeader sets a single header on the call. It may override the
// JSON Content-Type and Accept defaults.
func WithHeader(key, value string) CallOption {
	return func(opts *callOpts) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		if opts.headers == nil {
			opts.headers = make(map[string]string)
		}
		opts.headers[key] = value

		return nil
	}
}

// WithPayload sets the JSON-encoded request body.
func WithPayload(body any) CallOption {
	return func(opts *callOpts) error {
		opts.body = body
		opts.rawBody = nil

		return nil
	}
}

// WithRawPayload sets the request body verbatim.
func WithRawPayload(body []byte) CallOption {
	return func(opts *callOpts) error {
		opts.rawBody = body
		opts.body = nil

		return nil
	}
}

// WithJSONNumb tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() CallOption {
	return func(opts *callOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// WithStrictDecoding rejects response fields unknown to the target type.
func WithStrictDecoding() CallOption {
	return func(opts *callOpts) error {
		opts.strict = true

		return nil
	}
}

// WithValidation checks the decoded value against its `validate`
// struct tags. A failing check is reported as a [DecodingError].
func WithValidation() CallOption {
	return func(opts *callOpts) error {
		opts.validate = true

		return nil
	}
}
