package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records babytrack metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSessionStart records a session being opened.
	RecordSessionStart(ctx context.Context, kind string)

	// RecordSessionEnd records a session being closed with its final duration.
	RecordSessionEnd(ctx context.Context, kind string, duration time.Duration)

	// RecordInstant records a diaper change.
	RecordInstant(ctx context.Context, diaperType string)

	// RecordPrediction records a crying-cause prediction.
	RecordPrediction(ctx context.Context, reason string, confidence float64)

	// RecordStoreError records a persistence failure.
	RecordStoreError(ctx context.Context, op string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	sessionsStarted metric.Int64Counter
	sessionsEnded   metric.Int64Counter
	sessionMinutes  metric.Float64Histogram
	instants        metric.Int64Counter
	predictions     metric.Int64Counter
	confidence      metric.Float64Histogram
	storeErrors     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("babytrack")

	sessionsStarted, err := meter.Int64Counter("babytrack.sessions.started",
		metric.WithDescription("Number of sessions opened"),
	)
	if err != nil {
		return nil, err
	}

	sessionsEnded, err := meter.Int64Counter("babytrack.sessions.ended",
		metric.WithDescription("Number of sessions closed"),
	)
	if err != nil {
		return nil, err
	}

	sessionMinutes, err := meter.Float64Histogram("babytrack.session.duration_min",
		metric.WithDescription("Closed session duration in minutes"),
		metric.WithUnit("min"),
	)
	if err != nil {
		return nil, err
	}

	instants, err := meter.Int64Counter("babytrack.diapers.logged",
		metric.WithDescription("Number of diaper changes logged"),
	)
	if err != nil {
		return nil, err
	}

	predictions, err := meter.Int64Counter("babytrack.predictions",
		metric.WithDescription("Number of crying-cause predictions"),
	)
	if err != nil {
		return nil, err
	}

	confidence, err := meter.Float64Histogram("babytrack.prediction.confidence",
		metric.WithDescription("Prediction confidence scores"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter("babytrack.store.errors",
		metric.WithDescription("Number of persistence failures"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		sessionsStarted: sessionsStarted,
		sessionsEnded:   sessionsEnded,
		sessionMinutes:  sessionMinutes,
		instants:        instants,
		predictions:     predictions,
		confidence:      confidence,
		storeErrors:     storeErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordSessionStart records a session being opened.
func (m *otelMetrics) RecordSessionStart(ctx context.Context, kind string) {
	m.sessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordSessionEnd records a session being closed.
func (m *otelMetrics) RecordSessionEnd(ctx context.Context, kind string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.sessionsEnded.Add(ctx, 1, attrs)
	m.sessionMinutes.Record(ctx, duration.Minutes(), attrs)
}

// RecordInstant records a diaper change.
func (m *otelMetrics) RecordInstant(ctx context.Context, diaperType string) {
	m.instants.Add(ctx, 1, metric.WithAttributes(attribute.String("type", diaperType)))
}

// RecordPrediction records a crying-cause prediction.
func (m *otelMetrics) RecordPrediction(ctx context.Context, reason string, confidence float64) {
	attrs := metric.WithAttributes(attribute.String("reason", reason))
	m.predictions.Add(ctx, 1, attrs)
	m.confidence.Record(ctx, confidence, attrs)
}

// RecordStoreError records a persistence failure.
func (m *otelMetrics) RecordStoreError(ctx context.Context, op string) {
	m.storeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}
