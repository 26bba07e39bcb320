package event

import "fmt"

// DeliveryError reports a listener failure.
type DeliveryError struct {
	EventID   string // The event being delivered
	EventType string // Its type
	Listener  string // Dynamic type of the failing listener
	Worker    string // Worker label; empty for sequential delivery
	Err       error  // Underlying error
}

// Error implements error interface.
func (e *DeliveryError) Error() string {
	if e.Worker != "" {
		return fmt.Sprintf("event %s (%s): listener %s on %s: %v", e.EventID, e.EventType, e.Listener, e.Worker, e.Err)
	}
	return fmt.Sprintf("event %s (%s): listener %s: %v", e.EventID, e.EventType, e.Listener, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised by a listener on a worker goroutine.
type PanicError struct {
	Value any
	Stack string
}

// Error implements error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panicked: %v", e.Value)
}
