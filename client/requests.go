package client

import (
	"context"
	"slices"

	"github.com/adamwoolhether/apicall/client/call"
)

// Execute performs a call with the given method against rawURL and
// decodes the JSON response into a T. The verb helpers below are thin
// specialisations of it.
func Execute[T any](ctx context.Context, c *Client, method Method, rawURL string, optFns ...CallOption) *call.Result[T] {
	b := c.NewBuilder(rawURL).SetMethod(method)
	return Send[T](ctx, c, b, optFns...)
}

// Get performs a GET request, appending params to the query string.
func Get[T any](ctx context.Context, c *Client, rawURL string, params map[string]string, optFns ...CallOption) *call.Result[T] {
	return Execute[T](ctx, c, MethodGet, rawURL, prepend(optFns, WithQueryParameters(params))...)
}

// Post performs a POST request with body encoded as JSON.
func Post[T any](ctx context.Context, c *Client, rawURL string, params map[string]string, body any, optFns ...CallOption) *call.Result[T] {
	return Execute[T](ctx, c, MethodPost, rawURL, prepend(optFns, WithQueryParameters(params), WithPayload(body))...)
}

// Put performs a PUT request with body encoded as JSON.
func Put[T any](ctx context.Context, c *Client, rawURL string, params map[string]string, body any, optFns ...CallOption) *call.Result[T] {
	return Execute[T](ctx, c, MethodPut, rawURL, prepend(optFns, WithQueryParameters(params), WithPayload(body))...)
}

// Patch performs a PATCH request with body encoded as JSON.
func Patch[T any](ctx context.Context, c *Client, rawURL string, params map[string]string, body any, optFns ...CallOption) *call.Result[T] {
	return Execute[T](ctx, c, MethodPatch, rawURL, prepend(optFns, WithQueryParameters(params), WithPayload(body))...)
}

// Delete performs a DELETE request without query parameters or body
// unless supplied through optFns.
func Delete[T any](ctx context.Context, c *Client, rawURL string, optFns ...CallOption) *call.Result[T] {
	return Execute[T](ctx, c, MethodDelete, rawURL, optFns...)
}

// prepend places the positional settings first so explicit
// CallOptions can override them.
func prepend(optFns []CallOption, first ...CallOption) []CallOption {
	return slices.Concat(first, optFns)
}
