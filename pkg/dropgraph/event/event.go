package event

import (
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Attrs are the named attributes carried by an event.
type Attrs map[string]any

// AttrType is the attribute name under which an event answers its own type.
const AttrType = "type"

// Event is an immutable notification built by Fire.
// Events are values; listeners may keep them after delivery.
type Event struct {
	id        string
	eventType string
	timestamp time.Time
	attrs     Attrs
}

func newEvent(eventType string, attrs Attrs) Event {
	copied := make(Attrs, len(attrs))
	for k, v := range attrs {
		if k == AttrType {
			continue
		}
		copied[k] = v
	}
	return Event{
		id:        uuid.NewString(),
		eventType: eventType,
		timestamp: time.Now(),
		attrs:     copied,
	}
}

// ID returns the unique event identifier.
func (e Event) ID() string { return e.id }

// Type returns the event type.
func (e Event) Type() string { return e.eventType }

// Timestamp returns when the event was fired.
func (e Event) Timestamp() time.Time { return e.timestamp }

// Attr returns a named attribute. AttrType always yields the event type.
func (e Event) Attr(key string) (any, bool) {
	if key == AttrType {
		return e.eventType, true
	}
	v, ok := e.attrs[key]
	return v, ok
}

// StringAttr returns a named attribute as a string, or "" if it is missing
// or not a string.
func (e Event) StringAttr(key string) string {
	v, ok := e.Attr(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Attrs returns a copy of the caller-supplied attributes.
func (e Event) Attrs() Attrs {
	return maps.Clone(e.attrs)
}

// Topic selects which events a subscription receives: every event, or the
// events of one type. The zero Topic selects events of type "".
type Topic struct {
	eventType string
	all       bool
}

// AllEvents selects every event regardless of type.
func AllEvents() Topic { return Topic{all: true} }

// OnType selects events of exactly eventType.
func OnType(eventType string) Topic { return Topic{eventType: eventType} }

// IsAll reports whether the topic selects every event.
func (t Topic) IsAll() bool { return t.all }

// EventType returns the selected type; ok is false for AllEvents.
func (t Topic) EventType() (eventType string, ok bool) {
	return t.eventType, !t.all
}

// String implements fmt.Stringer.
func (t Topic) String() string {
	if t.all {
		return "*"
	}
	return fmt.Sprintf("%q", t.eventType)
}

// Listener receives events.
type Listener interface {
	HandleEvent(evt Event) error
}

// ListenerFunc adapts a function to the Listener interface.
//
// Function values are not comparable, so a ListenerFunc can only be removed
// through the Subscription returned by Subscribe.
type ListenerFunc func(evt Event) error

// HandleEvent implements Listener.
func (f ListenerFunc) HandleEvent(evt Event) error {
	return f(evt)
}

// sameListener compares listeners without panicking on non-comparable
// dynamic types.
func sameListener(a, b Listener) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !comparableListener(a) {
		return false
	}
	return a == b
}

// comparableListener reports whether l can be matched by Unsubscribe.
// Func-backed listeners such as ListenerFunc cannot.
func comparableListener(l Listener) bool {
	return l != nil && reflect.TypeOf(l).Comparable()
}

// listenerName is used in logs and errors.
func listenerName(l Listener) string {
	return fmt.Sprintf("%T", l)
}

// Broadcaster delivers events to subscribed listeners.
//
// Implementations differ only in how delivery is scheduled; see
// LocalBroadcaster and ConcurrentBroadcaster.
type Broadcaster interface {
	// Subscribe registers l for topic. Registering the same listener twice
	// delivers each event to it twice.
	Subscribe(l Listener, topic Topic) *Subscription

	// Unsubscribe removes the first registration of l for topic.
	// Listeners with uncomparable dynamic types, such as ListenerFunc,
	// never match; cancel their Subscription instead.
	// Returns false, and does nothing else, if there is none.
	Unsubscribe(l Listener, topic Topic) bool

	// Fire builds an event and delivers it to the listeners subscribed to
	// its type, then to those subscribed to AllEvents, each group in
	// registration order. With no matching listener no event is built.
	Fire(eventType string, attrs Attrs) error
}

// Mode selects a Broadcaster implementation.
type Mode string

// Delivery modes.
const (
	ModeSequential Mode = "sequential"
	ModeConcurrent Mode = "concurrent"
)

// ParseMode parses a delivery mode name. The empty string means sequential.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeConcurrent:
		return ModeConcurrent, nil
	default:
		return "", fmt.Errorf("unknown delivery mode %q", s)
	}
}

// New creates a broadcaster for mode. Unknown modes fall back to sequential.
func New(mode Mode, opts ...Option) Broadcaster {
	if mode == ModeConcurrent {
		return NewConcurrentBroadcaster(opts...)
	}
	return NewLocalBroadcaster(opts...)
}
