// Package observability provides logging, metrics, and tracing helpers
// shared by the dropgraph packages.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"io"
	"log/slog"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// EnrichLogger adds propagation context to a logger.
// Returns a new logger with run_id and drop_uid fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "drop-a")
//	enriched.Info("drop ready") // includes run_id, drop_uid
func EnrichLogger(logger *slog.Logger, runID, uid string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("drop_uid", uid),
	)
}

// LogTraversalStart logs the start of a graph walk.
func LogTraversalStart(logger *slog.Logger, mode string, starts int) {
	if logger == nil {
		return
	}
	logger.Debug("traversal starting",
		slog.String("mode", mode),
		slog.Int("starts", starts),
	)
}

// LogTraversalComplete logs the end of a graph walk, successful or not.
func LogTraversalComplete(logger *slog.Logger, mode string, visited int, durationMs float64, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Debug("traversal aborted",
			slog.String("mode", mode),
			slog.Int("visited", visited),
			slog.Float64("duration_ms", durationMs),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("traversal completed",
		slog.String("mode", mode),
		slog.Int("visited", visited),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSubscription logs a subscription change. op is "subscribe" or "unsubscribe".
func LogSubscription(logger *slog.Logger, op, topic string) {
	if logger == nil {
		return
	}
	logger.Debug("subscription changed",
		slog.String("operation", op),
		slog.String("topic", topic),
	)
}

// LogUnsubscribeUncomparable logs an Unsubscribe that cannot match because
// the listener's dynamic type is not comparable.
func LogUnsubscribeUncomparable(logger *slog.Logger, topic, listener string) {
	if logger == nil {
		return
	}
	logger.Debug("unsubscribe cannot match uncomparable listener; cancel its subscription instead",
		slog.String("topic", topic),
		slog.String("listener", listener),
	)
}

// LogFireNoSubscribers logs a fire that matched nobody.
func LogFireNoSubscribers(logger *slog.Logger, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("no subscribers for event",
		slog.String("event_type", eventType),
	)
}

// LogDeliveryError logs a listener failure that was not returned to the caller.
func LogDeliveryError(logger *slog.Logger, eventType, worker string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event delivery failed",
		slog.String("event_type", eventType),
		slog.String("worker", worker),
		slog.String("error", err.Error()),
	)
}

// LogDropCompleted logs a drop reaching a final status.
// The logger is expected to come from EnrichLogger.
func LogDropCompleted(logger *slog.Logger, status string) {
	if logger == nil {
		return
	}
	logger.Info("drop finished", slog.String("status", status))
}

// LogDropReady logs a drop whose inputs have all completed.
// The logger is expected to come from EnrichLogger.
func LogDropReady(logger *slog.Logger, inputs int) {
	if logger == nil {
		return
	}
	logger.Debug("drop ready", slog.Int("inputs", inputs))
}
