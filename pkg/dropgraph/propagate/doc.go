// Package propagate drives the completion chain of a drop graph.
//
// A Propagator listens on a Broadcaster for "status" events. When a drop
// completes, every drop downstream of it is re-evaluated; once all of its
// inputs have completed it is announced with a "ready" event, exactly once
// per run. Statuses are kept in a status.Store so they survive the event
// that carried them.
//
//	g, _ := dropgraph.NewBuilder().
//	    AddDrop("a", dropgraph.RolePlain).
//	    AddDrop("b", dropgraph.RolePlain).
//	    AddConsumer("a", "b").
//	    Compile()
//
//	p, err := propagate.New(g, event.NewLocalBroadcaster(), status.NewMemoryStore(),
//	    propagate.WithAutoComplete(true))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	_ = p.Start()
//	err = p.Await(ctx, g.MustDrop("a"))
//
// A drop waits for the drops returned by Graph.Inputs, which covers both
// producer links and plain consumer links.
package propagate
