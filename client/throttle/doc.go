// Package throttle rate-limits outbound API calls using a token-bucket
// algorithm from [golang.org/x/time/rate].
//
// # Usage
//
// Create a [Limiter] and wait on it before each send:
//
//	l, err := throttle.New(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//	)
//	if err := l.Wait(ctx, "/v1/users"); err != nil { ... }
//
// When the rate limit is exceeded, callers block until a token becomes
// available or the context is cancelled. Because the limiter sits in
// front of the transport, scripted test transports are throttled too.
package throttle
