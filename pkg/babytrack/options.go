package babytrack

import (
	"log/slog"
	"time"

	"github.com/kaiwenloh/babytrack/pkg/babytrack/observability"
)

// options holds the shared construction knobs for Tracker, Aggregator,
// Predictor, and Intents.
type options struct {
	clock    func() time.Time
	location *time.Location
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
}

// defaultOptions returns the defaults: wall clock, UTC day boundaries,
// no logging, no-op metrics and tracing.
func defaultOptions() options {
	return options{
		clock:    time.Now,
		location: time.UTC,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
}

// Option configures a Tracker, Aggregator, Predictor, or Intents.
type Option func(*options)

// WithClock replaces the time source. Used by tests to pin "now";
// production code should not need it.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLocation sets the location used for day and week boundaries in
// period parsing ("today", "this week"). Storage stays in UTC.
// Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithLogger enables structured logging via slog. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
//
// Example:
//
//	tracker := babytrack.NewTracker(st, babytrack.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracing sets the trace span manager. Default: no-op.
func WithTracing(s observability.SpanManager) Option {
	return func(o *options) {
		if s != nil {
			o.spans = s
		}
	}
}
