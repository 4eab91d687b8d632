package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
}

func TestRecordSessionStart(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSessionStart(ctx, "feeding")
	m.RecordSessionStart(ctx, "feeding")
	m.RecordSessionStart(ctx, "sleep")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "babytrack.sessions.started")
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}

func TestRecordSessionEnd(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSessionEnd(ctx, "sleep", 90*time.Minute)

	rm := collectMetrics(t, reader)

	ended := findMetric(rm, "babytrack.sessions.ended")
	require.NotNil(t, ended)

	hist := findMetric(rm, "babytrack.session.duration_min")
	require.NotNil(t, hist)

	h, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, 90.0, h.DataPoints[0].Sum)
}

func TestRecordPrediction(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPrediction(ctx, "hungry", 95.0)
	m.RecordPrediction(ctx, "diaper", 55.0)

	rm := collectMetrics(t, reader)

	preds := findMetric(rm, "babytrack.predictions")
	require.NotNil(t, preds)
	sum, ok := preds.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	// One data point per reason attribute
	assert.Len(t, sum.DataPoints, 2)

	conf := findMetric(rm, "babytrack.prediction.confidence")
	require.NotNil(t, conf)
}

func TestRecordStoreError(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordStoreError(context.Background(), "insert")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "babytrack.store.errors")
	require.NotNil(t, metric)
}

func TestNoopMetricsDoesNotPanic(t *testing.T) {
	ctx := context.Background()
	m := NoopMetrics{}
	m.RecordSessionStart(ctx, "feeding")
	m.RecordSessionEnd(ctx, "feeding", time.Minute)
	m.RecordInstant(ctx, "wet")
	m.RecordPrediction(ctx, "hungry", 50)
	m.RecordStoreError(ctx, "get")
}
