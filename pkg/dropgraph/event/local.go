package event

import "context"

// LocalBroadcaster delivers events synchronously, one listener after
// another, on the goroutine calling Fire.
//
// Fire returns once every listener has returned. The first listener error
// stops delivery and is returned wrapped in a *DeliveryError; a panicking
// listener panics through Fire.
type LocalBroadcaster struct {
	registry
}

var _ Broadcaster = (*LocalBroadcaster)(nil)

// NewLocalBroadcaster creates a sequential broadcaster.
func NewLocalBroadcaster(opts ...Option) *LocalBroadcaster {
	b := &LocalBroadcaster{}
	b.init(opts)
	return b
}

// Fire implements Broadcaster.
func (b *LocalBroadcaster) Fire(eventType string, attrs Attrs) error {
	targets, evt, ok := b.prepare(eventType, attrs)
	if !ok {
		return nil
	}

	ctx := context.Background()
	for _, reg := range targets {
		if err := b.deliver(ctx, reg, evt, "", false); err != nil {
			return &DeliveryError{
				EventID:   evt.ID(),
				EventType: evt.Type(),
				Listener:  listenerName(reg.listener),
				Err:       err,
			}
		}
	}
	return nil
}
