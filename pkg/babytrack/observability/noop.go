package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordSessionStart does nothing.
func (NoopMetrics) RecordSessionStart(_ context.Context, _ string) {}

// RecordSessionEnd does nothing.
func (NoopMetrics) RecordSessionEnd(_ context.Context, _ string, _ time.Duration) {}

// RecordInstant does nothing.
func (NoopMetrics) RecordInstant(_ context.Context, _ string) {}

// RecordPrediction does nothing.
func (NoopMetrics) RecordPrediction(_ context.Context, _ string, _ float64) {}

// RecordStoreError does nothing.
func (NoopMetrics) RecordStoreError(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartOpSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartOpSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartPredictionSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartPredictionSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
