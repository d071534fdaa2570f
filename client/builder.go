package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
)

const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	mimeJSON            = "application/json"
)

// Builder assembles a [RequestSpec]. It is a persistent value:
// every method returns a modified copy and leaves the receiver
// untouched, so a partially configured Builder can be reused
// as a template for many calls.
//
// Content-Type and Accept default to application/json. SetHeaders
// always reapplies them; only AddHeader can override them.
type Builder struct {
	baseURL string
	path    string
	method  Method
	header  http.Header
	query   map[string]string
	body    []byte
}

// NewBuilder returns a GET Builder targeting baseURL.
func NewBuilder(baseURL string) Builder {
	b := Builder{
		baseURL: baseURL,
		method:  MethodGet,
		header:  http.Header{},
		query:   map[string]string{},
	}
	b.header.Set(headerContentType, mimeJSON)
	b.header.Set(headerAccept, mimeJSON)

	return b
}

// SetPath replaces the path appended to the base URL.
// An empty path appends nothing.
func (b Builder) SetPath(path string) Builder {
	b.path = path
	return b
}

// SetMethod replaces the request method.
func (b Builder) SetMethod(method Method) Builder {
	b.method = method
	return b
}

// SetHeaders replaces the whole header set with headers and then
// forces the JSON Content-Type and Accept values.
func (b Builder) SetHeaders(headers map[string]string) Builder {
	h := make(http.Header, len(headers)+2)
	for k, v := range headers {
		h.Set(k, v)
	}
	h.Set(headerContentType, mimeJSON)
	h.Set(headerAccept, mimeJSON)

	b.header = h
	return b
}

// AddHeader sets a single header, leaving the others untouched.
func (b Builder) AddHeader(key, value string) Builder {
	h := b.header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)

	b.header = h
	return b
}

// SetQueryParameters replaces the query parameter set. A nil map
// clears it.
func (b Builder) SetQueryParameters(params map[string]string) Builder {
	if params == nil {
		b.query = map[string]string{}
		return b
	}

	b.query = maps.Clone(params)
	return b
}

// AddQueryParameter sets a single query parameter.
func (b Builder) AddQueryParameter(key, value string) Builder {
	q := make(map[string]string, len(b.query)+1)
	maps.Copy(q, b.query)
	q[key] = value

	b.query = q
	return b
}

// SetBody attaches raw body bytes. A nil slice removes the body.
func (b Builder) SetBody(body []byte) Builder {
	if body == nil {
		b.body = nil
		return b
	}

	b.body = append([]byte{}, body...)
	return b
}

// SetJSONBody attaches the JSON encoding of v. A nil v is ignored.
// When v cannot be encoded the request is sent without a body.
func (b Builder) SetJSONBody(v any) Builder {
	if v == nil {
		return b
	}

	data, err := json.Marshal(v)
	if err != nil {
		b.body = nil
		return b
	}

	b.body = data
	return b
}

// Build combines base URL, path and query parameters into the final
// request. It returns an [InvalidURLError] when no absolute URL can
// be formed.
func (b Builder) Build() (RequestSpec, error) {
	if !b.method.Valid() {
		return RequestSpec{}, &UnknownError{Op: "build", Err: fmt.Errorf("unsupported method %q", b.method)}
	}

	u, err := b.url()
	if err != nil {
		return RequestSpec{}, err
	}

	spec := RequestSpec{
		url:    u,
		method: b.method,
		header: b.header.Clone(),
	}
	if spec.header == nil {
		spec.header = http.Header{}
	}
	if b.body != nil {
		spec.body = append([]byte{}, b.body...)
	}

	return spec, nil
}

func (b Builder) url() (*url.URL, error) {
	u, err := url.Parse(b.baseURL)
	if err != nil {
		return nil, &InvalidURLError{URL: b.baseURL, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &InvalidURLError{URL: b.baseURL, Err: errors.New("scheme and host are required")}
	}

	if b.path != "" {
		// JoinPath drops paths carrying malformed escapes without reporting it.
		if _, err := url.PathUnescape(b.path); err != nil {
			return nil, &InvalidURLError{URL: b.baseURL + b.path, Err: err}
		}
		u = u.JoinPath(b.path)
	}

	if len(b.query) > 0 {
		values := u.Query()
		for k, v := range b.query {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}

	return u, nil
}
