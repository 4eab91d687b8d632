// Package observability provides structured logging, metrics, and
// tracing for babytrack.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogSessionStart logs the opening of a session-kind event.
func LogSessionStart(logger *slog.Logger, kind, babyID, sessionID string) {
	if logger == nil {
		return
	}
	logger.Info("session started",
		slog.String("kind", kind),
		slog.String("baby_id", babyID),
		slog.String("session_id", sessionID),
	)
}

// LogSessionEnd logs the closing of a session. noop is true when the
// session was already closed and the call was an idempotent no-op.
func LogSessionEnd(logger *slog.Logger, kind, sessionID string, duration time.Duration, noop bool) {
	if logger == nil {
		return
	}
	logger.Info("session ended",
		slog.String("kind", kind),
		slog.String("session_id", sessionID),
		slog.Float64("duration_min", duration.Minutes()),
		slog.Bool("noop", noop),
	)
}

// LogInstant logs a terminal instant event (diaper change).
func LogInstant(logger *slog.Logger, babyID, diaperType string) {
	if logger == nil {
		return
	}
	logger.Info("diaper change logged",
		slog.String("baby_id", babyID),
		slog.String("type", diaperType),
	)
}

// LogPrediction logs a crying-cause prediction.
func LogPrediction(logger *slog.Logger, babyID, reason string, confidence float64) {
	if logger == nil {
		return
	}
	logger.Info("crying cause predicted",
		slog.String("baby_id", babyID),
		slog.String("reason", reason),
		slog.Float64("confidence", confidence),
	)
}

// LogBabyDeleted logs a cascading baby deletion.
func LogBabyDeleted(logger *slog.Logger, babyID string) {
	if logger == nil {
		return
	}
	logger.Warn("baby deleted with all events",
		slog.String("baby_id", babyID),
	)
}

// LogStoreError logs a persistence failure with context.
func LogStoreError(logger *slog.Logger, op, entity string, err error) {
	if logger == nil {
		return
	}
	logger.Error("store operation failed",
		slog.String("operation", op),
		slog.String("entity", entity),
		slog.String("error", err.Error()),
	)
}
