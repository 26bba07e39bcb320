// Package event broadcasts drop notifications to subscribed listeners.
//
// # Overview
//
// A Broadcaster keeps a registry of (listener, topic) pairs. Fire builds an
// Event from a type and a set of attributes and hands it to every listener
// whose topic matches: first those subscribed to the event's type, then
// those subscribed to AllEvents, each group in registration order.
//
//	bus := event.NewLocalBroadcaster()
//	sub := bus.Subscribe(event.ListenerFunc(func(evt event.Event) error {
//	    fmt.Println(evt.Type(), evt.StringAttr("uid"))
//	    return nil
//	}), event.OnType("status"))
//	defer sub.Cancel()
//
//	_ = bus.Fire("status", event.Attrs{"uid": "a", "status": "completed"})
//
// # Delivery Modes
//
// LocalBroadcaster calls listeners one at a time on the caller's goroutine
// and returns the first failure. ConcurrentBroadcaster starts one goroutine
// per listener and returns at once; each goroutine carries a label of the
// form "eb-N" in its pprof labels, log records and spans, and failures are
// reported through WithErrorHandler instead of Fire.
//
// # Subscriptions
//
// Registering the same listener twice delivers every event to it twice.
// Unsubscribe removes one registration at a time and is a no-op when there
// is nothing to remove. Listeners whose dynamic type is not comparable,
// such as ListenerFunc, are removed with Subscription.Cancel.
package event
