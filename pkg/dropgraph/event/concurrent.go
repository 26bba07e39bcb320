package event

import (
	"context"
	"fmt"
	"runtime/pprof"
	"sync/atomic"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph/observability"
)

// ConcurrentBroadcaster runs every listener on its own goroutine.
//
// Fire starts one worker per matching registration, in registration order,
// and returns without waiting for any of them. Workers cannot be joined or
// cancelled and there is no limit on how many run at once. Listener errors
// and panics stay on the worker: they are logged, counted, and passed to the
// WithErrorHandler callback, but never reach the caller of Fire.
type ConcurrentBroadcaster struct {
	registry

	workers atomic.Int64
}

var _ Broadcaster = (*ConcurrentBroadcaster)(nil)

// NewConcurrentBroadcaster creates a fire-and-forget broadcaster.
func NewConcurrentBroadcaster(opts ...Option) *ConcurrentBroadcaster {
	b := &ConcurrentBroadcaster{}
	b.init(opts)
	return b
}

// Fire implements Broadcaster. It always returns nil.
func (b *ConcurrentBroadcaster) Fire(eventType string, attrs Attrs) error {
	targets, evt, ok := b.prepare(eventType, attrs)
	if !ok {
		return nil
	}

	for _, reg := range targets {
		worker := fmt.Sprintf("eb-%d", b.workers.Add(1))
		go b.run(worker, reg, evt)
	}
	return nil
}

// Dispatched returns how many workers have been started so far.
func (b *ConcurrentBroadcaster) Dispatched() int64 {
	return b.workers.Load()
}

func (b *ConcurrentBroadcaster) run(worker string, reg *registration, evt Event) {
	labels := pprof.Labels("dropgraph_worker", worker, "event_type", evt.Type())
	pprof.Do(context.Background(), labels, func(ctx context.Context) {
		err := b.deliver(ctx, reg, evt, worker, true)
		if err == nil {
			return
		}

		observability.LogDeliveryError(b.logger, evt.Type(), worker, err)
		if b.onError != nil {
			b.onError(evt, worker, &DeliveryError{
				EventID:   evt.ID(),
				EventType: evt.Type(),
				Listener:  listenerName(reg.listener),
				Worker:    worker,
				Err:       err,
			})
		}
	})
}

