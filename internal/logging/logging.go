package logging

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/trace"
)

// WithTrace logs with the active trace id so lines can be joined to spans.
func WithTrace(ctx context.Context, format string, args ...any) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		log.Printf(format, args...)
		return
	}
	log.Printf("trace_id=%s "+format, append([]any{sc.TraceID().String()}, args...)...)
}
