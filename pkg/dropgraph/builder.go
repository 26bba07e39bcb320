package dropgraph

import (
	"fmt"
	"strings"
	"sync"
)

// Builder is a mutable description of a drop graph.
// Use NewBuilder, chain AddDrop and the relation methods, then call Compile
// to obtain an immutable Graph of wired Nodes.
//
// Relations may be added in any order; references are resolved and
// validated by Compile.
//
// Example:
//
//	g, err := dropgraph.NewBuilder().
//	    AddDrop("in", dropgraph.RolePlain).
//	    AddDrop("app", dropgraph.RolePlain).
//	    AddDrop("out", dropgraph.RolePlain).
//	    AddConsumer("in", "app").
//	    SetProducer("out", "app").
//	    Compile()
type Builder struct {
	mu        sync.Mutex
	roles     map[string]Role
	order     []string
	consumers map[string][]string
	producers map[string][]string
	children  map[string][]string
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		roles:     make(map[string]Role),
		consumers: make(map[string][]string),
		producers: make(map[string][]string),
		children:  make(map[string][]string),
	}
}

// AddDrop declares a drop.
//
// Panics if:
//   - uid is empty or contains whitespace
//   - role is not a declared Role
//   - uid already exists in the builder
func (b *Builder) AddDrop(uid string, role Role) *Builder {
	if uid == "" {
		panic("dropgraph: drop UID cannot be empty")
	}
	if strings.ContainsAny(uid, " \t\n\r") {
		panic("dropgraph: drop UID cannot contain whitespace")
	}
	if !role.Valid() {
		panic(fmt.Sprintf("dropgraph: invalid role for drop %s: %v", uid, role))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.roles[uid]; exists {
		panic(fmt.Sprintf("dropgraph: duplicate drop UID: %s", uid))
	}
	b.roles[uid] = role
	b.order = append(b.order, uid)
	return b
}

// AddConsumer records that consumerUID reads from uid.
func (b *Builder) AddConsumer(uid, consumerUID string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consumers[uid] = append(b.consumers[uid], consumerUID)
	return b
}

// SetProducer records that producerUID writes into uid. The drop is also
// listed as a consumer of its producer, so it is downstream of it.
// A drop has at most one producer.
func (b *Builder) SetProducer(uid, producerUID string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.producers[uid] = append(b.producers[uid], producerUID)
	return b
}

// AddChild places childUID inside the composite parentUID.
func (b *Builder) AddChild(parentUID, childUID string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.children[parentUID] = append(b.children[parentUID], childUID)
	return b
}

// Graph is a compiled, immutable drop graph.
// It is safe for concurrent use.
type Graph struct {
	nodes map[string]*Node
	order []string

	// feeders maps a drop to the drops that list it downstream.
	feeders map[Drop][]Drop
}

// Len returns the number of drops.
func (g *Graph) Len() int {
	return len(g.order)
}

// Drop looks up a drop by UID.
func (g *Graph) Drop(uid string) (Drop, bool) {
	n, ok := g.nodes[uid]
	if !ok {
		return nil, false
	}
	return n, true
}

// MustDrop looks up a drop by UID, panicking if it does not exist.
func (g *Graph) MustDrop(uid string) Drop {
	n, ok := g.nodes[uid]
	if !ok {
		panic(fmt.Sprintf("dropgraph: drop not found: %s", uid))
	}
	return n
}

// UIDs returns drop identifiers in declaration order.
func (g *Graph) UIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Drops returns all drops in declaration order.
func (g *Graph) Drops() []Drop {
	out := make([]Drop, len(g.order))
	for i, uid := range g.order {
		out[i] = g.nodes[uid]
	}
	return out
}

// Inputs returns the drops whose completion d waits for: its upstream drops
// followed by every other drop that lists d downstream. Over a plain consumer
// edge only the latter applies, since a consumer link sets no producer.
func (g *Graph) Inputs(d Drop) []Drop {
	if d == nil {
		return nil
	}
	var s dropSet
	for _, u := range Upstream(d) {
		s.add(u)
	}
	for _, f := range g.feeders[d] {
		s.add(f)
	}
	return s.items
}

// Roots returns the drops with no inputs, in declaration order.
func (g *Graph) Roots() []Drop {
	var out []Drop
	for _, uid := range g.order {
		if n := g.nodes[uid]; len(g.Inputs(n)) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Leaves returns the drops with no downstream drops, in declaration order.
func (g *Graph) Leaves() []Drop {
	var out []Drop
	for _, uid := range g.order {
		if n := g.nodes[uid]; len(Downstream(n)) == 0 {
			out = append(out, n)
		}
	}
	return out
}
