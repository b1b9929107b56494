package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test that our interfaces can be implemented correctly

// mockLLMClient implements LLMClient interface
type mockLLMClient struct{ model string }

func (m *mockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	return "mock response", nil
}

func (m *mockLLMClient) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return "mock response", len(prompt) / 4, 10, nil
}

func (m *mockLLMClient) EstimateTokens(text string) (int, error) {
	// Simple estimation: ~4 characters per token
	return len(text) / 4, nil
}

func (m *mockLLMClient) GetModel() string { return m.model }

// mockLLMMetricsCollector implements LLMMetricsCollector interface
type mockLLMMetricsCollector struct {
	latencies  []time.Duration
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// newMockLLMMetricsCollector creates a new mock metrics collector for testing.
func newMockLLMMetricsCollector() *mockLLMMetricsCollector {
	return &mockLLMMetricsCollector{
		latencies:  []time.Duration{},
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *mockLLMMetricsCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	m.latencies = append(m.latencies, duration)
}

func (m *mockLLMMetricsCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	m.counters[metric] += value
}

func (m *mockLLMMetricsCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	m.gauges[metric] = value
}

func (m *mockLLMMetricsCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.histograms[metric] = append(m.histograms[metric], value)
}

// Test that interfaces are properly defined and can be implemented
func TestInterfaces_Implementation(t *testing.T) {
	// Verify mock types implement interfaces
	var _ LLMClient = (*mockLLMClient)(nil)
	var _ LLMMetricsCollector = (*mockLLMMetricsCollector)(nil)

	// Test LLMClient
	llm := &mockLLMClient{model: "test-model"}
	assert.Equal(t, "test-model", llm.GetModel(), "GetModel() mismatch")

	ctx := context.Background()
	response, err := llm.Complete(ctx, "test prompt", nil)
	require.NoError(t, err, "Complete() should not return error")
	assert.Equal(t, "mock response", response, "Complete() response mismatch")

	tokens, err := llm.EstimateTokens("hello world test")
	require.NoError(t, err, "EstimateTokens() should not return error")
	assert.Greater(t, tokens, 0, "EstimateTokens() should return positive value")
}

func TestLLMMetricsCollector_Recording(t *testing.T) {
	metrics := newMockLLMMetricsCollector()
	labels := map[string]string{"unit": "test"}

	// Test RecordLatency
	metrics.RecordLatency("operation1", 100*time.Millisecond, labels)
	assert.Len(t, metrics.latencies, 1, "RecordLatency() should record one duration")
	assert.Equal(t, 100*time.Millisecond, metrics.latencies[0], "RecordLatency() duration mismatch")

	// Test RecordCounter
	metrics.RecordCounter("requests", 1, labels)
	metrics.RecordCounter("requests", 2, labels)
	assert.Equal(t, float64(3), metrics.counters["requests"], "RecordCounter() sum mismatch")

	// Test RecordGauge
	metrics.RecordGauge("queue_depth", 10, labels)
	metrics.RecordGauge("queue_depth", 5, labels)
	assert.Equal(t, float64(5), metrics.gauges["queue_depth"], "RecordGauge() value mismatch")

	// Test RecordHistogram
	metrics.RecordHistogram("response_size", 1024, labels)
	metrics.RecordHistogram("response_size", 2048, labels)
	assert.Len(t, metrics.histograms["response_size"], 2, "RecordHistogram() should record two values")
}
