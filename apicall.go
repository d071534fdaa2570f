// Package apicall exposes the client builder.
package apicall

import (
	"github.com/adamwoolhether/apicall/client"
)

// NewClient instantiates a new *client.Client with the provided options.
// If not specified, calls go through an HTTP transport on a fresh http.Client.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
