package dropgraph

import "errors"

// ErrInvalidGraph is the root of every error returned by Builder.Compile.
var ErrInvalidGraph = errors.New("invalid drop graph")

// Sentinel errors for graph compilation. Compile joins every problem it finds
// and wraps the result in ErrInvalidGraph, so callers can test for either.
var (
	// ErrDropNotFound indicates a relation references an unknown drop.
	ErrDropNotFound = errors.New("drop not found")

	// ErrNotContainer indicates children were added to a plain drop.
	ErrNotContainer = errors.New("drop is not a container")

	// ErrProducerConflict indicates a drop was given more than one producer.
	ErrProducerConflict = errors.New("drop already has a producer")

	// ErrParentConflict indicates a drop was placed in more than one container.
	ErrParentConflict = errors.New("drop already has a parent")

	// ErrSelfReference indicates a relation from a drop to itself.
	ErrSelfReference = errors.New("drop references itself")

	// ErrCycle indicates the downstream relation is not acyclic.
	ErrCycle = errors.New("downstream relation contains a cycle")
)
