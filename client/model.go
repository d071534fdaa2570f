package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
)

// Response is the complete outcome of a successful [Transport.Send].
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is within 200-299.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// RequestSpec is the immutable description of one outgoing call,
// produced by [Builder.Build]. Accessors hand out copies.
type RequestSpec struct {
	url    *url.URL
	method Method
	header http.Header
	body   []byte
}

// URL returns a copy of the final request URL.
func (s RequestSpec) URL() *url.URL {
	if s.url == nil {
		return nil
	}
	u := *s.url
	return &u
}

// Method returns the request method.
func (s RequestSpec) Method() Method { return s.method }

// Header returns the first value stored for key.
func (s RequestSpec) Header(key string) string { return s.header.Get(key) }

// Headers returns a copy of the full header set.
func (s RequestSpec) Headers() http.Header { return s.header.Clone() }

// Body returns a copy of the body, nil when no body is set.
func (s RequestSpec) Body() []byte { return bytes.Clone(s.body) }

// HasBody reports whether a body is attached.
func (s RequestSpec) HasBody() bool { return s.body != nil }

// Query returns the decoded query items of the final URL.
func (s RequestSpec) Query() url.Values {
	if s.url == nil {
		return url.Values{}
	}
	return s.url.Query()
}

// Request instantiates an *http.Request bound to ctx.
func (s RequestSpec) Request(ctx context.Context) (*http.Request, error) {
	if s.url == nil {
		return nil, &InvalidURLError{Err: fmt.Errorf("request spec was not built")}
	}

	var body io.Reader
	if s.body != nil {
		body = bytes.NewReader(s.body)
	}

	req, err := http.NewRequestWithContext(ctx, s.method.String(), s.url.String(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for k, v := range s.header {
		req.Header[k] = slices.Clone(v)
	}

	return req, nil
}

// withHeader returns a copy of s carrying key=value.
func (s RequestSpec) withHeader(key, value string) RequestSpec {
	h := s.header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	s.header = h

	return s
}
