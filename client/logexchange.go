package client

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

const redacted = "[REDACTED]"

// ExchangeLogger renders diagnostics for one request/response pair.
// It is only invoked while logging is enabled on the [Client].
type ExchangeLogger interface {
	LogExchange(ctx context.Context, id string, spec RequestSpec, resp *Response)
}

// ExchangeLoggerFunc adapts an ordinary function to an [ExchangeLogger].
type ExchangeLoggerFunc func(ctx context.Context, id string, spec RequestSpec, resp *Response)

func (f ExchangeLoggerFunc) LogExchange(ctx context.Context, id string, spec RequestSpec, resp *Response) {
	f(ctx, id, spec, resp)
}

// NewExchangeLogger returns the default [ExchangeLogger], writing one
// structured record per exchange to logger. Authorization values are
// redacted.
func NewExchangeLogger(logger *slog.Logger) ExchangeLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return slogExchange{logger: logger}
}

type slogExchange struct {
	logger *slog.Logger
}

func (s slogExchange) LogExchange(ctx context.Context, id string, spec RequestSpec, resp *Response) {
	reqAttrs := []any{
		"method", spec.Method().String(),
		"url", spec.URL().String(),
		"headers", flatten(spec.Headers()),
	}
	if spec.HasBody() {
		reqAttrs = append(reqAttrs, "body", string(spec.Body()))
	}

	respAttrs := []any{"status", resp.StatusCode}
	if resp.Header != nil {
		respAttrs = append(respAttrs, "headers", flatten(resp.Header))
	}
	respAttrs = append(respAttrs, "body", string(resp.Body))

	s.logger.InfoContext(ctx, "network call",
		"id", id,
		slog.Group("request", reqAttrs...),
		slog.Group("response", respAttrs...),
	)
}

func flatten(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k, v := range h {
		if http.CanonicalHeaderKey(k) == headerAuthorization {
			m[k] = redacted
			continue
		}
		m[k] = strings.Join(v, ", ")
	}

	return m
}
