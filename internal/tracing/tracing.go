package tracing

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Name is the instrumentation scope used by every package in the service.
const Name = "site-analytics"

var traceProvider *sdktrace.TracerProvider

// Tracer returns the service tracer from the global provider, which is a
// no-op until Init succeeds.
func Tracer() trace.Tracer {
	return otel.Tracer(Name)
}

// Init installs an OTLP/HTTP exporter. An empty endpoint leaves tracing off.
func Init(ctx context.Context, serviceName, endpoint string) error {
	if endpoint == "" {
		log.Println("tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return err
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(traceProvider)

	log.Println("OpenTelemetry tracing initialized")
	return nil
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) {
	if traceProvider == nil {
		return
	}
	if err := traceProvider.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down tracer: %v", err)
		return
	}
	log.Println("Tracer shutdown complete")
}
