package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("babytrack")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func TestStartOpSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()
	_, span := sm.StartOpSpan(context.Background(), "start_session", "baby-1")
	require.NotNil(t, span)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "babytrack.start_session", spans[0].Name)

	var babyID string
	for _, attr := range spans[0].Attributes {
		if attr.Key == "baby.id" {
			babyID = attr.Value.AsString()
		}
	}
	assert.Equal(t, "baby-1", babyID)
}

func TestStartPredictionSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()
	_, span := sm.StartPredictionSpan(context.Background(), "baby-1")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "babytrack.predict", spans[0].Name)
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("records error status", func(t *testing.T) {
		exporter.Reset()
		_, span := sm.StartOpSpan(context.Background(), "end_session", "baby-1")
		sm.EndSpanWithError(span, errors.New("boom"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		require.Len(t, spans[0].Events, 1)
	})

	t.Run("records ok status", func(t *testing.T) {
		exporter.Reset()
		_, span := sm.StartOpSpan(context.Background(), "end_session", "baby-1")
		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})
}

func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	outCtx, span := sm.StartOpSpan(ctx, "start_session", "baby-1")
	assert.Equal(t, ctx, outCtx)
	sm.EndSpanWithError(span, errors.New("ignored"))
	sm.AddSpanEvent(ctx, "nothing")
}
