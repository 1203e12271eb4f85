package client

import "context"

type correlationIDKey struct{}

// WithCorrelationID attaches a per-call correlation ID to ctx. The proxy
// wrapper mints one per incoming call (spec §4.3) and it is threaded
// through structured log fields, outbound request headers, and progress
// notifications so a single call can be traced across a backend hop.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation ID attached to ctx, or "" if none
// was set (e.g. a call path that bypasses the proxy wrapper).
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
