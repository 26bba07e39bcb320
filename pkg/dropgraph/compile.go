package dropgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

// Compile validates the builder and wires a Graph of Nodes.
// Returns an error wrapping ErrInvalidGraph if validation fails; all
// problems found are joined together.
//
// Validation checks (in order):
//  1. Every relation references declared drops
//  2. No relation links a drop to itself
//  3. Only composite drops have children
//  4. Every drop has at most one producer and at most one parent
//  5. The downstream relation is acyclic
//
// Isolated drops (no relations at all) are logged at debug level but do not
// fail compilation.
//
// The Builder is not modified; compiling twice yields two independent graphs.
func (b *Builder) Compile() (*Graph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error

	nodes := make(map[string]*Node, len(b.order))
	for _, uid := range b.order {
		nodes[uid] = &Node{uid: uid, role: b.roles[uid]}
	}

	lookup := func(relation, from, to string) (*Node, *Node, bool) {
		src, okSrc := nodes[from]
		dst, okDst := nodes[to]
		if !okSrc {
			errs = append(errs, fmt.Errorf("%w: %s source %q", ErrDropNotFound, relation, from))
		}
		if !okDst {
			errs = append(errs, fmt.Errorf("%w: %s target %q", ErrDropNotFound, relation, to))
		}
		if okSrc && okDst && from == to {
			errs = append(errs, fmt.Errorf("%w: %s on %q", ErrSelfReference, relation, from))
			return nil, nil, false
		}
		return src, dst, okSrc && okDst
	}

	// Consumers
	for _, uid := range sortedKeys(b.consumers) {
		for _, consumerUID := range b.consumers[uid] {
			src, dst, ok := lookup("consumer", uid, consumerUID)
			if ok {
				appendUnique(&src.consumers, dst)
			}
		}
	}

	// Producers
	for _, uid := range sortedKeys(b.producers) {
		for _, producerUID := range b.producers[uid] {
			drop, producer, ok := lookup("producer", uid, producerUID)
			if !ok {
				continue
			}
			if drop.producer != nil {
				if drop.producer == Drop(producer) {
					continue
				}
				errs = append(errs, fmt.Errorf("%w: %q (producer %q, also %q)",
					ErrProducerConflict, uid, drop.producer.UID(), producerUID))
				continue
			}
			drop.producer = producer
			appendUnique(&producer.consumers, drop)
		}
	}

	// Children
	for _, parentUID := range sortedKeys(b.children) {
		for _, childUID := range b.children[parentUID] {
			parent, child, ok := lookup("child", parentUID, childUID)
			if !ok {
				continue
			}
			if !parent.role.IsComposite() {
				errs = append(errs, fmt.Errorf("%w: %q cannot contain %q", ErrNotContainer, parentUID, childUID))
				continue
			}
			if child.parent != nil {
				if child.parent == Drop(parent) {
					continue
				}
				errs = append(errs, fmt.Errorf("%w: %q (parent %q, also %q)",
					ErrParentConflict, childUID, child.parent.UID(), parentUID))
				continue
			}
			child.parent = parent
			parent.children = append(parent.children, child)
		}
	}

	if len(errs) == 0 {
		if cyclic := findCycle(b.order, nodes); len(cyclic) > 0 {
			errs = append(errs, fmt.Errorf("%w: involving %s", ErrCycle, strings.Join(cyclic, ", ")))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
	}

	g := &Graph{
		nodes:   nodes,
		order:   slices.Clone(b.order),
		feeders: make(map[Drop][]Drop),
	}
	for _, uid := range g.order {
		n := nodes[uid]
		for _, next := range Downstream(n) {
			g.feeders[next] = append(g.feeders[next], n)
		}
	}
	g.logIsolated()
	return g, nil
}

// findCycle runs Kahn's algorithm over the downstream relation and returns
// the UIDs that could not be ordered, sorted. Empty means acyclic.
func findCycle(order []string, nodes map[string]*Node) []string {
	indegree := make(map[Drop]int, len(nodes))
	for _, uid := range order {
		for _, d := range Downstream(nodes[uid]) {
			indegree[d]++
		}
	}

	var queue []Drop
	for _, uid := range order {
		if indegree[nodes[uid]] == 0 {
			queue = append(queue, nodes[uid])
		}
	}

	ordered := 0
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		ordered++
		for _, next := range Downstream(d) {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if ordered == len(order) {
		return nil
	}

	var remaining []string
	for _, uid := range order {
		if indegree[nodes[uid]] > 0 {
			remaining = append(remaining, uid)
		}
	}
	sort.Strings(remaining)
	return remaining
}

func (g *Graph) logIsolated() {
	for _, uid := range g.order {
		n := g.nodes[uid]
		if len(Upstream(n)) == 0 && len(Downstream(n)) == 0 && n.parent == nil && len(n.children) == 0 {
			slog.Debug("drop is isolated", "drop_uid", uid)
		}
	}
}

func appendUnique(list *[]Drop, d Drop) {
	for _, existing := range *list {
		if existing == d {
			return
		}
	}
	*list = append(*list, d)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
