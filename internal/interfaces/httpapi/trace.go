package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer = otel.Tracer("team-schedule/internal/interfaces/httpapi")
	// Callers always End the returned span, so helpers get a non-recording one.
	noopSpan = trace.SpanFromContext(context.Background())
)

// startSpan opens a child span for handler entry points only. Middleware and
// response helpers stay inside the request span started by otelhttp.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}

	ctx, span := apiTracer.Start(ctx, name)
	if access, ok := accessFromContext(ctx); ok && access.TeamID != "" {
		span.SetAttributes(attribute.String("team.id", access.TeamID))
	}
	return ctx, span
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix)
}
