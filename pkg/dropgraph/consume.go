package dropgraph

import (
	"context"
	"sync"
)

// ConsumeFunc is invoked with a drop once that drop has completed.
type ConsumeFunc func(d Drop)

// Signal is a one-shot barrier driven by a ConsumeFunc. Tests and tools
// register Signal.Consume on a leaf drop and block on Wait until the
// completion chain reaches it.
type Signal struct {
	once sync.Once
	done chan struct{}

	mu   sync.Mutex
	drop Drop
}

// NewSignal creates an unfired Signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Consume fires the signal. Only the first call records its drop.
func (s *Signal) Consume(d Drop) {
	s.once.Do(func() {
		s.mu.Lock()
		s.drop = d
		s.mu.Unlock()
		close(s.done)
	})
}

// Done is closed once Consume has been called.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Drop returns the drop passed to the first Consume call, or nil.
func (s *Signal) Drop() Drop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drop
}

// Wait blocks until the signal fires or ctx ends.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
