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

// MetricsRecorder records dropgraph metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordFire records a fire call and how many subscribers it matched.
	RecordFire(ctx context.Context, eventType string, subscribers int)

	// RecordDelivery records one listener invocation with its duration and error status.
	RecordDelivery(ctx context.Context, eventType string, duration time.Duration, err error)

	// RecordTraversal records a finished graph walk.
	RecordTraversal(ctx context.Context, mode string, visited int, duration time.Duration)

	// RecordCompletion records a drop reaching a final status.
	RecordCompletion(ctx context.Context, status string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsFired      metric.Int64Counter
	deliveries       metric.Int64Counter
	deliveryErrors   metric.Int64Counter
	deliveryLatency  metric.Float64Histogram
	traversalVisited metric.Int64Histogram
	traversalLatency metric.Float64Histogram
	dropsCompleted   metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("dropgraph")

	eventsFired, err := meter.Int64Counter("dropgraph.events.fired",
		metric.WithDescription("Number of events fired with at least one subscriber"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("dropgraph.deliveries",
		metric.WithDescription("Number of listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	deliveryErrors, err := meter.Int64Counter("dropgraph.delivery.errors",
		metric.WithDescription("Number of listener invocations that failed"),
	)
	if err != nil {
		return nil, err
	}

	deliveryLatency, err := meter.Float64Histogram("dropgraph.delivery.latency_ms",
		metric.WithDescription("Listener latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	traversalVisited, err := meter.Int64Histogram("dropgraph.traversal.visited",
		metric.WithDescription("Drops visited per traversal"),
	)
	if err != nil {
		return nil, err
	}

	traversalLatency, err := meter.Float64Histogram("dropgraph.traversal.latency_ms",
		metric.WithDescription("Traversal latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dropsCompleted, err := meter.Int64Counter("dropgraph.drops.completed",
		metric.WithDescription("Number of drops reaching a final status"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsFired:      eventsFired,
		deliveries:       deliveries,
		deliveryErrors:   deliveryErrors,
		deliveryLatency:  deliveryLatency,
		traversalVisited: traversalVisited,
		traversalLatency: traversalLatency,
		dropsCompleted:   dropsCompleted,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
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

// RecordFire records a fire call.
func (m *otelMetrics) RecordFire(ctx context.Context, eventType string, subscribers int) {
	if subscribers == 0 {
		return
	}
	m.eventsFired.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// RecordDelivery records a listener invocation.
func (m *otelMetrics) RecordDelivery(ctx context.Context, eventType string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("event_type", eventType))

	m.deliveries.Add(ctx, 1, attrs)
	m.deliveryLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if err != nil {
		m.deliveryErrors.Add(ctx, 1, attrs)
	}
}

// RecordTraversal records a graph walk.
func (m *otelMetrics) RecordTraversal(ctx context.Context, mode string, visited int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.traversalVisited.Record(ctx, int64(visited), attrs)
	m.traversalLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordCompletion records a final drop status.
func (m *otelMetrics) RecordCompletion(ctx context.Context, status string) {
	m.dropsCompleted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}
