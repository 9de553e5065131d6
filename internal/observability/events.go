package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// BuildHeaders returns the correlation headers attached to published events.
func BuildHeaders(ctx context.Context, requestID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		headers["trace_id"] = sc.TraceID().String()
	}
	return headers
}
