package dropgraph

import "fmt"

// Role tells the relationship deriver which containment rules apply to a drop.
type Role int

const (
	// RolePlain is a drop without children.
	RolePlain Role = iota

	// RoleContainer is a composite drop. It is downstream of its children:
	// it cannot complete until all of them have.
	RoleContainer

	// RoleContainerConsumer is a composite drop that also consumes each of
	// its children. Its children are downstream of it, like data consumers.
	RoleContainerConsumer
)

// String returns the role name used in graph files.
func (r Role) String() string {
	switch r {
	case RolePlain:
		return "plain"
	case RoleContainer:
		return "container"
	case RoleContainerConsumer:
		return "container-consumer"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// IsComposite reports whether drops with this role may have children.
func (r Role) IsComposite() bool {
	return r == RoleContainer || r == RoleContainerConsumer
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RolePlain && r <= RoleContainerConsumer
}

// ParseRole converts a role name back into a Role.
// The empty string parses as RolePlain.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "plain":
		return RolePlain, nil
	case "container":
		return RoleContainer, nil
	case "container-consumer", "container_consumer":
		return RoleContainerConsumer, nil
	default:
		return RolePlain, fmt.Errorf("unknown drop role %q", s)
	}
}

// Drop is a node of the dependency graph.
//
// The relation accessors are read-only from the perspective of this package:
// relations are derived and walked, never mutated. A nil return means the
// relation is absent. Implementations must be comparable (typically pointer
// types) because drops are tracked by identity during traversal.
type Drop interface {
	// UID identifies the drop within its graph.
	UID() string

	// Role selects the containment rules.
	Role() Role

	// Producer is the drop writing into this one, or nil.
	Producer() Drop

	// Consumers are the drops reading from this one, in wiring order.
	Consumers() []Drop

	// Parent is the composite containing this drop, or nil.
	Parent() Drop

	// Children are the drops contained in this one. Always empty for RolePlain.
	Children() []Drop
}

// Node is the Drop implementation produced by Builder.Compile.
// Its relations are fixed once the graph is compiled.
type Node struct {
	uid       string
	role      Role
	producer  Drop
	consumers []Drop
	parent    Drop
	children  []Drop
}

var _ Drop = (*Node)(nil)

// UID returns the drop identifier.
func (n *Node) UID() string { return n.uid }

// Role returns the drop kind.
func (n *Node) Role() Role { return n.role }

// Producer returns the drop that writes into n, or nil.
func (n *Node) Producer() Drop { return n.producer }

// Consumers returns a copy of the consumer list.
func (n *Node) Consumers() []Drop { return cloneDrops(n.consumers) }

// Parent returns the enclosing container, or nil.
func (n *Node) Parent() Drop { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []Drop { return cloneDrops(n.children) }

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.uid, n.role)
}

func cloneDrops(drops []Drop) []Drop {
	if len(drops) == 0 {
		return nil
	}
	out := make([]Drop, len(drops))
	copy(out, drops)
	return out
}

// UIDs maps drops to their identifiers, keeping order.
func UIDs(drops []Drop) []string {
	out := make([]string, len(drops))
	for i, d := range drops {
		out[i] = d.UID()
	}
	return out
}
