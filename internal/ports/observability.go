package ports

import (
	"context"
	"time"
)

// Logger is the narrow structured logging interface the scheduler and
// nodes depend on. A cheap no-op implementation is always available so
// observability is opt-in rather than a hard dependency.
type Logger interface {
	// With returns a Logger that includes the given key/value fields on
	// every subsequent call, without mutating the receiver.
	With(fields map[string]any) Logger

	// Debug, Info, Warn, and Error log at their respective levels. event
	// is a stable, machine-greppable key (e.g. "edge.drop"); fields
	// carries structured context.
	Debug(event string, fields map[string]any)
	Info(event string, fields map[string]any)
	Warn(event string, fields map[string]any)
	Error(event string, fields map[string]any)
}

// MetricsCollector is the narrow metrics interface the scheduler and built-in
// nodes depend on. Unlike LLMMetricsCollector (declared in
// infrastructure.go, retained for LLM-client call accounting) this
// interface's label sets are the stable
// names documented for the runtime: edge depth, put outcomes, node
// batch/tick timings, and scheduler queue depth.
type MetricsCollector interface {
	// Counter increments a named counter by value, tagged with labels.
	Counter(name string, value float64, labels map[string]string)

	// Gauge sets a named gauge to value, tagged with labels.
	Gauge(name string, value float64, labels map[string]string)

	// Histogram records an observation into a named histogram, tagged with
	// labels.
	Histogram(name string, value float64, labels map[string]string)
}

// Tracer is the narrow distributed tracing interface the scheduler uses to
// bracket node lifecycle calls and message delivery with spans.
type Tracer interface {
	// StartSpan begins a span named name as a child of any span already in
	// ctx, returning a context carrying the new span and a function that
	// must be called to end it.
	StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func())

	// AddEvent records a point-in-time event on the span already present in
	// ctx, if any.
	AddEvent(ctx context.Context, name string, attrs map[string]any)

	// RecordError records err on the span already present in ctx, if any,
	// and marks the span as failed.
	RecordError(ctx context.Context, err error)
}

// Clock abstracts wall-clock time so the scheduler's tick cadence and
// histogram timings can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}
