package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetricsMethods(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordFire(ctx, "status", 0)
		m.RecordFire(ctx, "", 3)
		m.RecordDelivery(ctx, "status", 10*time.Millisecond, nil)
		m.RecordDelivery(ctx, "status", 0, errors.New("boom"))
		m.RecordTraversal(ctx, "bfs", 4, time.Millisecond)
		m.RecordCompletion(ctx, "completed")
	})
}

func TestNoopSpanManagerMethods(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	gotCtx, span := sm.StartTraversalSpan(ctx, "dfs", 1)
	assert.Equal(t, ctx, gotCtx)
	assert.False(t, span.IsRecording())

	gotCtx, span = sm.StartDeliverySpan(ctx, "status", "eb-1")
	assert.Equal(t, ctx, gotCtx)
	assert.False(t, span.IsRecording())

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("boom"))
		sm.EndSpanWithError(nil, nil)
		sm.AddSpanEvent(ctx, "ready", attribute.String("uid", "a"))
	})
}
