package propagate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph"
	"github.com/randalmurphal/dropgraph/pkg/dropgraph/event"
	"github.com/randalmurphal/dropgraph/pkg/dropgraph/observability"
	"github.com/randalmurphal/dropgraph/pkg/dropgraph/status"
)

// Event types fired by a Propagator.
const (
	EventStatus = "status"
	EventReady  = "ready"
)

// Event attribute names.
const (
	AttrUID    = "uid"
	AttrStatus = "status"
	AttrDrop   = "drop"
	AttrRunID  = "run_id"
	AttrError  = "error"
)

// Errors returned by a Propagator.
var (
	// ErrUnknownDrop indicates a drop that is not part of the graph.
	ErrUnknownDrop = errors.New("drop not in graph")

	// ErrDropFailed indicates a drop reported an error status.
	ErrDropFailed = errors.New("drop failed")

	// ErrClosed indicates the propagator has been closed.
	ErrClosed = errors.New("propagator closed")
)

// Option configures a Propagator.
type Option func(*Propagator)

// WithRunID sets the run identifier. Default: a random UUID.
func WithRunID(id string) Option {
	return func(p *Propagator) {
		if id != "" {
			p.runID = id
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Propagator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records drop completions.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(p *Propagator) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithAutoComplete completes every drop as soon as it becomes ready.
// Useful for dry runs and tests of the graph shape.
func WithAutoComplete(enabled bool) Option {
	return func(p *Propagator) {
		p.autoComplete = enabled
	}
}

// Propagator turns completion statuses into readiness notifications.
// It is safe for concurrent use.
type Propagator struct {
	graph        *dropgraph.Graph
	bus          event.Broadcaster
	store        status.Store
	walker       *dropgraph.Walker
	runID        string
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	autoComplete bool

	sub *event.Subscription

	mu        sync.Mutex
	closed    bool
	triggered map[dropgraph.Drop]struct{}
	signals   map[dropgraph.Drop]*dropgraph.Signal
	callbacks map[dropgraph.Drop][]dropgraph.ConsumeFunc

	failOnce sync.Once
	failed   chan struct{}
	failErr  error
}

// New creates a Propagator for graph and subscribes it to bus.
func New(graph *dropgraph.Graph, bus event.Broadcaster, store status.Store, opts ...Option) (*Propagator, error) {
	if graph == nil {
		return nil, errors.New("propagate: graph cannot be nil")
	}
	if bus == nil {
		return nil, errors.New("propagate: broadcaster cannot be nil")
	}
	if store == nil {
		return nil, errors.New("propagate: status store cannot be nil")
	}

	p := &Propagator{
		graph:     graph,
		bus:       bus,
		store:     store,
		runID:     uuid.NewString(),
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		triggered: make(map[dropgraph.Drop]struct{}),
		signals:   make(map[dropgraph.Drop]*dropgraph.Signal),
		callbacks: make(map[dropgraph.Drop][]dropgraph.ConsumeFunc),
		failed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.walker = dropgraph.NewWalker(dropgraph.WithLogger(p.logger), dropgraph.WithMetrics(p.metrics))

	p.sub = bus.Subscribe(event.ListenerFunc(p.handleStatus), event.OnType(EventStatus))
	return p, nil
}

// RunID returns the identifier of this run.
func (p *Propagator) RunID() string {
	return p.runID
}

// Close unsubscribes from the broadcaster. The store is left open.
func (p *Propagator) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.sub.Cancel()
	return nil
}

// Start announces every root drop of the graph as ready.
func (p *Propagator) Start() error {
	var errs []error
	for _, root := range p.graph.Roots() {
		if err := p.announce(root); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Complete records that d finished successfully and broadcasts it.
func (p *Propagator) Complete(d dropgraph.Drop) error {
	return p.report(d, status.StatusCompleted, nil)
}

// Fail records that d finished with an error and broadcasts it.
// Nothing downstream of d becomes ready.
func (p *Propagator) Fail(d dropgraph.Drop, cause error) error {
	if cause == nil {
		cause = ErrDropFailed
	}
	return p.report(d, status.StatusError, cause)
}

// OnComplete registers fn to run when d completes. If d has already
// completed, fn runs immediately.
func (p *Propagator) OnComplete(d dropgraph.Drop, fn dropgraph.ConsumeFunc) error {
	if err := p.member(d); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}

	p.mu.Lock()
	st, err := p.store.Get(p.runID, d.UID())
	if err == nil && st == status.StatusCompleted {
		p.mu.Unlock()
		fn(d)
		return nil
	}
	p.callbacks[d] = append(p.callbacks[d], fn)
	p.mu.Unlock()
	return nil
}

// Ready reports whether every input of d has completed in this run.
func (p *Propagator) Ready(d dropgraph.Drop) (bool, error) {
	if err := p.member(d); err != nil {
		return false, err
	}
	for _, in := range p.graph.Inputs(d) {
		st, err := p.store.Get(p.runID, in.UID())
		if errors.Is(err, status.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("status of %s: %w", in.UID(), err)
		}
		if st != status.StatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

// Await blocks until every leaf reachable from starts has a status.
// It returns early with ErrDropFailed as soon as any drop of the run fails.
func (p *Propagator) Await(ctx context.Context, starts ...dropgraph.Drop) error {
	leaves, err := p.walker.LeafNodes(ctx, starts...)
	if err != nil {
		return err
	}

	for _, leaf := range leaves {
		sig := p.signalFor(leaf)
		select {
		case <-sig.Done():
		case <-p.failed:
			return p.failErr
		case <-ctx.Done():
			return ctx.Err()
		}

		st, err := p.store.Get(p.runID, leaf.UID())
		if err != nil {
			return fmt.Errorf("status of %s: %w", leaf.UID(), err)
		}
		if st != status.StatusCompleted {
			return fmt.Errorf("%w: %s", ErrDropFailed, leaf.UID())
		}
	}
	return nil
}

func (p *Propagator) report(d dropgraph.Drop, st status.Status, cause error) error {
	if err := p.member(d); err != nil {
		return err
	}
	if p.isClosed() {
		return ErrClosed
	}

	if err := p.store.Set(p.runID, d.UID(), st); err != nil {
		return fmt.Errorf("record %s: %w", d.UID(), err)
	}
	p.metrics.RecordCompletion(context.Background(), string(st))
	observability.LogDropCompleted(observability.EnrichLogger(p.logger, p.runID, d.UID()), string(st))

	attrs := event.Attrs{
		AttrUID:    d.UID(),
		AttrStatus: string(st),
		AttrDrop:   d,
		AttrRunID:  p.runID,
	}
	if cause != nil {
		attrs[AttrError] = cause.Error()
	}
	return p.bus.Fire(EventStatus, attrs)
}

// handleStatus is subscribed to EventStatus.
// Deliveries already dispatched when Close runs are dropped here.
func (p *Propagator) handleStatus(evt event.Event) error {
	if evt.StringAttr(AttrRunID) != p.runID || p.isClosed() {
		return nil
	}
	d, ok := p.graph.Drop(evt.StringAttr(AttrUID))
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDrop, evt.StringAttr(AttrUID))
	}
	st, err := status.ParseStatus(evt.StringAttr(AttrStatus))
	if err != nil {
		return err
	}

	if st == status.StatusError {
		p.fail(fmt.Errorf("%w: %s: %s", ErrDropFailed, d.UID(), evt.StringAttr(AttrError)))
		p.signalFor(d).Consume(d)
		return nil
	}

	p.mu.Lock()
	callbacks := p.callbacks[d]
	delete(p.callbacks, d)
	p.mu.Unlock()
	for _, fn := range callbacks {
		fn(d)
	}
	p.signalFor(d).Consume(d)

	var errs []error
	for _, next := range dropgraph.Downstream(d) {
		ready, err := p.Ready(next)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ready {
			continue
		}
		if err := p.announce(next); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// announce fires EventReady for d once per run.
func (p *Propagator) announce(d dropgraph.Drop) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if _, done := p.triggered[d]; done {
		p.mu.Unlock()
		return nil
	}
	p.triggered[d] = struct{}{}
	p.mu.Unlock()

	observability.LogDropReady(observability.EnrichLogger(p.logger, p.runID, d.UID()), len(p.graph.Inputs(d)))
	if err := p.bus.Fire(EventReady, event.Attrs{
		AttrUID:   d.UID(),
		AttrDrop:  d,
		AttrRunID: p.runID,
	}); err != nil {
		return err
	}

	if p.autoComplete {
		return p.Complete(d)
	}
	return nil
}

func (p *Propagator) fail(err error) {
	p.failOnce.Do(func() {
		p.failErr = err
		close(p.failed)
	})
}

func (p *Propagator) signalFor(d dropgraph.Drop) *dropgraph.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	sig, ok := p.signals[d]
	if !ok {
		sig = dropgraph.NewSignal()
		p.signals[d] = sig
	}
	return sig
}

func (p *Propagator) member(d dropgraph.Drop) error {
	if d == nil {
		return fmt.Errorf("%w: nil drop", ErrUnknownDrop)
	}
	if got, ok := p.graph.Drop(d.UID()); !ok || got != d {
		return fmt.Errorf("%w: %s", ErrUnknownDrop, d.UID())
	}
	return nil
}

func (p *Propagator) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
