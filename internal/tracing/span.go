package tracing

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartRequestSpan starts a client span for one HTTP request.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, method, target string) (context.Context, trace.Span) {
	spanName := method
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
	}
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		spanName = method + " " + u.Host + u.Path
		attrs = append(attrs, attribute.String("server.address", u.Hostname()))
	}
	return tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// EndResponseSpan finishes a span for a received response. Server errors
// mark the span as failed; other statuses leave it unset.
func EndResponseSpan(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if status >= 500 {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// RunAttributes tags every span of a run.
func RunAttributes(runID string, total, concurrency int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("volley.run_id", runID),
		attribute.Int("volley.total", total),
		attribute.Int("volley.concurrency", concurrency),
	}
}
