package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("dropgraph")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartTraversalSpan starts a span covering one graph walk.
	StartTraversalSpan(ctx context.Context, mode string, starts int) (context.Context, trace.Span)

	// StartDeliverySpan starts a span for one listener invocation.
	// worker is empty for sequential delivery.
	StartDeliverySpan(ctx context.Context, eventType, worker string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartTraversalSpan(ctx context.Context, mode string, starts int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dropgraph.traverse."+mode,
		trace.WithAttributes(
			attribute.String("traversal.mode", mode),
			attribute.Int("traversal.starts", starts),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartDeliverySpan(ctx context.Context, eventType, worker string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("event.type", eventType)}
	if worker != "" {
		attrs = append(attrs, attribute.String("delivery.worker", worker))
	}
	return tracer.Start(ctx, "dropgraph.deliver",
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
