package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_CounterAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.Counter("meridian_test_counter", 1, map[string]string{"node": "a"})
	m.Counter("meridian_test_counter", 2, map[string]string{"node": "a"})

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "meridian_test_counter" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Metric, 1)
	require.Equal(t, 3.0, found.Metric[0].GetCounter().GetValue())
}

func TestPrometheusMetrics_GaugeSetsLatestValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.Gauge("meridian_test_gauge", 5, map[string]string{"edge": "x"})
	m.Gauge("meridian_test_gauge", 9, map[string]string{"edge": "x"})

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "meridian_test_gauge" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Equal(t, 9.0, found.Metric[0].GetGauge().GetValue())
}

func TestPrometheusMetrics_HistogramObserves(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.Histogram("meridian_test_histogram", 0.5, nil)
	m.Histogram("meridian_test_histogram", 1.5, nil)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "meridian_test_histogram" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Equal(t, uint64(2), found.Metric[0].GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_DistinctLabelValuesTrackedSeparately(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.Counter("meridian_test_counter2", 1, map[string]string{"node": "a"})
	m.Counter("meridian_test_counter2", 1, map[string]string{"node": "b"})

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "meridian_test_counter2" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Metric, 2)
}
