package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Tracer = (*OTelTracer)(nil)

// OTelTracer implements ports.Tracer over a real OpenTelemetry tracer,
// bracketing node lifecycle calls and message delivery with spans the way
// the budget manager observer bracketed unit execution: start a span on
// entry, attach attributes/events as work proceeds, set its status on exit.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer constructs an OTelTracer using the named OpenTelemetry
// tracer from the global TracerProvider. instrumentationName should
// identify the runtime component, e.g. "meridian-runtime/scheduler".
func NewOTelTracer(instrumentationName string) *OTelTracer {
	return &OTelTracer{tracer: otel.Tracer(instrumentationName)}
}

// StartSpan begins a span named name, attaching attrs as span attributes.
// The returned function ends the span; it must be called exactly once,
// typically via defer.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func()) {
	spanCtx, span := t.tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(toAttributes(attrs)...)
	}
	ended := false
	return spanCtx, func() {
		if ended {
			return
		}
		ended = true
		span.SetStatus(codes.Ok, "")
		span.End()
	}
}

// AddEvent records a point-in-time event on the span in ctx, if any.
func (t *OTelTracer) AddEvent(ctx context.Context, name string, attrs map[string]any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(attrs)...))
}

// RecordError records err on the span in ctx, if any, and marks it failed.
func (t *OTelTracer) RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// toAttributes converts the loosely typed attribute maps used by
// ports.Tracer into OpenTelemetry's attribute.KeyValue, falling back to a
// string representation for types OTel has no direct mapping for.
func toAttributes(attrs map[string]any) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, val))
		case bool:
			kvs = append(kvs, attribute.Bool(k, val))
		case int:
			kvs = append(kvs, attribute.Int(k, val))
		case int64:
			kvs = append(kvs, attribute.Int64(k, val))
		case float64:
			kvs = append(kvs, attribute.Float64(k, val))
		default:
			kvs = append(kvs, attribute.String(k, toString(val)))
		}
	}
	return kvs
}

func toString(v any) string {
	return fmt.Sprintf("%v", v)
}
