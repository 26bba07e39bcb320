// Package dropgraph models the dependency graph of a data-processing
// pipeline and how completion flows through it.
//
// # Drops and relations
//
// A Drop is one data-processing unit. Drops are linked two ways:
//
//   - data edges: a producer writes into a drop, consumers read from it
//   - containment edges: a composite drop holds children
//
// The Role of a drop selects the containment rules. A RoleContainer waits
// for its children, so it is downstream of them. A RoleContainerConsumer
// consumes its children, so they are downstream of it.
//
// Upstream and Downstream derive a drop's immediate neighbours from these
// links:
//
//	for _, d := range dropgraph.Downstream(drop) {
//	    // d cannot complete until drop does
//	}
//
// # Traversal
//
// BreadthFirst and DepthFirst walk downstream edges from one or more start
// drops, calling a VisitFunc on each drop exactly once. LeafNodes and
// Reachable collect drops from a breadth-first walk:
//
//	leaves := dropgraph.LeafNodes(graph.Roots()...)
//
// A Walker adds logging, metrics, tracing, and context cancellation:
//
//	w := dropgraph.NewWalker(dropgraph.WithLogger(logger))
//	err := w.BreadthFirst(ctx, starts, visit)
//
// The traversal functions assume the downstream relation is acyclic. They
// terminate on cyclic input but make no other promises about it.
//
// # Building graphs
//
// Builder wires Nodes and validates the result:
//
//	g, err := dropgraph.NewBuilder().
//	    AddDrop("a", dropgraph.RolePlain).
//	    AddDrop("b", dropgraph.RolePlain).
//	    AddConsumer("a", "b").
//	    Compile()
//
// Compile rejects dangling references, conflicting producers or parents,
// children on plain drops, and cycles. Every such error wraps ErrInvalidGraph.
//
// Completion notifications live in the event package; the propagate package
// connects them to the relations defined here.
package dropgraph
