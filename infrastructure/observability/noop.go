package observability

import (
	"context"

	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var (
	_ ports.Logger           = NoopLogger{}
	_ ports.MetricsCollector = NoopMetrics{}
	_ ports.Tracer           = NoopTracer{}
)

// NoopLogger discards every event. It is the default a caller reaches for
// when wiring a runtime without a logging backend, distinct from the
// scheduler's own internal fallback, which exists purely so New can be
// called with nil adapters.
type NoopLogger struct{}

func (NoopLogger) With(map[string]any) ports.Logger { return NoopLogger{} }
func (NoopLogger) Debug(string, map[string]any)     {}
func (NoopLogger) Info(string, map[string]any)      {}
func (NoopLogger) Warn(string, map[string]any)      {}
func (NoopLogger) Error(string, map[string]any)     {}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, float64, map[string]string)   {}
func (NoopMetrics) Gauge(string, float64, map[string]string)     {}
func (NoopMetrics) Histogram(string, float64, map[string]string) {}

// NoopTracer starts spans that record nothing.
type NoopTracer struct{}

func (NoopTracer) StartSpan(ctx context.Context, _ string, _ map[string]any) (context.Context, func()) {
	return ctx, func() {}
}
func (NoopTracer) AddEvent(context.Context, string, map[string]any) {}
func (NoopTracer) RecordError(context.Context, error)               {}
