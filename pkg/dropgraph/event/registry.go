package event

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph/observability"
)

// Option configures a broadcaster.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	onError func(evt Event, worker string, err error)
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records fires and deliveries.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSpanManager opens one span per listener invocation.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(o *options) {
		if sm != nil {
			o.spans = sm
		}
	}
}

// WithErrorHandler is called when a listener run by a ConcurrentBroadcaster
// fails or panics. It runs on the worker goroutine. LocalBroadcaster ignores
// it: its failures are returned from Fire.
func WithErrorHandler(fn func(evt Event, worker string, err error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// registration is one Subscribe call.
type registration struct {
	id       int64
	topic    Topic
	listener Listener
}

// registry holds the subscriptions of one broadcaster. Fire works on a
// snapshot, so listeners may subscribe and unsubscribe while being notified.
type registry struct {
	options

	mu     sync.RWMutex
	byKey  map[Topic][]*registration
	nextID atomic.Int64
}

func (r *registry) init(opts []Option) {
	r.options = options{
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(&r.options)
	}
	r.byKey = make(map[Topic][]*registration)
}

// Subscribe registers l for topic.
// Panics if l is nil.
func (r *registry) Subscribe(l Listener, topic Topic) *Subscription {
	if l == nil {
		panic("event: listener cannot be nil")
	}

	reg := &registration{
		id:       r.nextID.Add(1),
		topic:    topic,
		listener: l,
	}

	r.mu.Lock()
	r.byKey[topic] = append(r.byKey[topic], reg)
	r.mu.Unlock()

	observability.LogSubscription(r.logger, "subscribe", topic.String())
	return &Subscription{reg: reg, owner: r}
}

// Unsubscribe removes the first registration of l for topic.
func (r *registry) Unsubscribe(l Listener, topic Topic) bool {
	if !comparableListener(l) {
		observability.LogUnsubscribeUncomparable(r.logger, topic.String(), listenerName(l))
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, reg := range r.byKey[topic] {
		if sameListener(reg.listener, l) {
			r.removeAt(topic, i)
			observability.LogSubscription(r.logger, "unsubscribe", topic.String())
			return true
		}
	}
	return false
}

func (r *registry) cancel(reg *registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.byKey[reg.topic] {
		if existing == reg {
			r.removeAt(reg.topic, i)
			observability.LogSubscription(r.logger, "unsubscribe", reg.topic.String())
			return true
		}
	}
	return false
}

// removeAt deletes one registration. Caller holds mu.
// A fresh slice is built so snapshots handed to Fire stay intact.
func (r *registry) removeAt(topic Topic, i int) {
	regs := r.byKey[topic]
	if len(regs) == 1 {
		delete(r.byKey, topic)
		return
	}
	next := make([]*registration, 0, len(regs)-1)
	next = append(next, regs[:i]...)
	next = append(next, regs[i+1:]...)
	r.byKey[topic] = next
}

// match snapshots the registrations that receive eventType:
// type-specific first, then wildcard.
func (r *registry) match(eventType string) []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specific := r.byKey[OnType(eventType)]
	wildcard := r.byKey[AllEvents()]
	if len(specific)+len(wildcard) == 0 {
		return nil
	}

	out := make([]*registration, 0, len(specific)+len(wildcard))
	out = append(out, specific...)
	out = append(out, wildcard...)
	return out
}

// Len returns the number of registrations for topic.
func (r *registry) Len(topic Topic) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey[topic])
}

// deliver invokes one listener with tracing and metrics around it.
// A listener panic is recorded as a *PanicError and the span is ended with
// it. With isolate set the *PanicError is returned; otherwise the original
// panic value is re-raised.
func (r *registry) deliver(ctx context.Context, reg *registration, evt Event, worker string, isolate bool) (err error) {
	ctx, span := r.spans.StartDeliverySpan(ctx, evt.Type(), worker)
	start := time.Now()

	defer func() {
		v := recover()
		if v != nil {
			err = &PanicError{Value: v, Stack: string(debug.Stack())}
		}
		r.metrics.RecordDelivery(ctx, evt.Type(), time.Since(start), err)
		r.spans.EndSpanWithError(span, err)
		if v != nil && !isolate {
			panic(v)
		}
	}()

	return reg.listener.HandleEvent(evt)
}

// prepare snapshots the listeners for eventType and builds the event.
// ok is false when nobody is listening; no event is built in that case.
func (r *registry) prepare(eventType string, attrs Attrs) (targets []*registration, evt Event, ok bool) {
	targets = r.match(eventType)
	r.metrics.RecordFire(context.Background(), eventType, len(targets))
	if len(targets) == 0 {
		observability.LogFireNoSubscribers(r.logger, eventType)
		return nil, Event{}, false
	}
	return targets, newEvent(eventType, attrs), true
}

// Subscription is a handle on one registration.
type Subscription struct {
	reg   *registration
	owner *registry
}

// Topic returns the topic the subscription was made for.
func (s *Subscription) Topic() Topic {
	return s.reg.topic
}

// Cancel removes this registration. It reports whether the registration was
// still present; calling Cancel again is a no-op.
func (s *Subscription) Cancel() bool {
	return s.owner.cancel(s.reg)
}
