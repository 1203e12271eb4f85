package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InstallSDKProvider installs an SDK-backed TracerProvider as the process
// default. With no exporter registered, spans are created, sampled, and
// dropped in-process; this gives every Tracer() call in the call path a
// real trace.Tracer (rather than otel's default no-op) so that an embedder
// can later attach a real exporter via the returned provider without
// restarting the gateway.
func InstallSDKProvider() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	return tp
}

// Shutdown flushes and releases the tracer provider. Safe to call with a
// nil provider (e.g. when InstallSDKProvider was never called).
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
