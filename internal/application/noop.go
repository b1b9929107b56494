package application

import (
	"context"

	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// noopLogger, noopMetrics, and noopTracer are the scheduler's zero-cost
// defaults when New is called without observability adapters wired in.
// infrastructure/observability provides the real Prometheus/OTel/logiface
// backed implementations of the same ports interfaces for production use.

type noopLogger struct{}

func (noopLogger) With(map[string]any) ports.Logger { return noopLogger{} }
func (noopLogger) Debug(string, map[string]any)     {}
func (noopLogger) Info(string, map[string]any)      {}
func (noopLogger) Warn(string, map[string]any)      {}
func (noopLogger) Error(string, map[string]any)     {}

type noopMetrics struct{}

func (noopMetrics) Counter(string, float64, map[string]string)   {}
func (noopMetrics) Gauge(string, float64, map[string]string)     {}
func (noopMetrics) Histogram(string, float64, map[string]string) {}

type noopTracer struct{}

func (noopTracer) StartSpan(ctx context.Context, _ string, _ map[string]any) (context.Context, func()) {
	return ctx, func() {}
}
func (noopTracer) AddEvent(context.Context, string, map[string]any) {}
func (noopTracer) RecordError(context.Context, error)               {}
