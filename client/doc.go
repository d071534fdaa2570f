// Package client turns declarative request descriptions into executed
// JSON API calls whose responses are decoded into typed results.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithBaseURL("https://api.example.com"),
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//	)
//	c.ConfigureAuthorization(token)
//
// # Making Calls
//
// The verb functions take the target type as a type parameter and
// return a [Call] that settles exactly once:
//
//	r := client.Get[User](ctx, c, "/v1/users/42", nil)
//	u, err := r.Value()
//
// Callers needing full control assemble a [Builder] and use [Send]:
//
//	b := c.NewBuilder("/v1/users").
//		SetMethod(client.MethodPost).
//		AddQueryParameter("notify", "true").
//		SetJSONBody(newUser)
//	r := client.Send[User](ctx, c, b)
//
// # Errors
//
// Every failure is reported as exactly one of [InvalidURLError],
// [UnexpectedStatusError], [DecodingError] or [UnknownError]; use
// [KindOf], errors.Is against the sentinels, or errors.As.
//
// # Testing
//
// Swap the transport with [Client.SetTransport] or [WithTransport];
// the [github.com/adamwoolhether/apicall/client/mock] package provides
// a scripted transport that performs no I/O.
package client
