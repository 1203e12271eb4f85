package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies mcpweave's instrumentation scope.
const tracerName = "github.com/mcpweave/mcpweave"

// Tracer returns the global OpenTelemetry tracer for mcpweave's
// instrumentation scope. By default this resolves to a no-op tracer
// (otel.GetTracerProvider() is a no-op until a hosting process calls
// otel.SetTracerProvider), so the core carries zero mandatory collector
// dependency while still being fully instrumented the moment one is wired
// in by an embedder.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan is a small convenience wrapper used by the proxy wrapper to
// start a span per remote operation (spec §4.3's "every remote operation").
func StartSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, operation)
}
