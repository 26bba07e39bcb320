package dropgraph

// Upstream returns the drops that must complete before d can.
//
// A drop U is upstream of d when any of these hold:
//   - U is d's producer
//   - U is d's parent and U is a RoleContainerConsumer
//   - d is a RoleContainer and U is one of its children
//
// The result is a set: duplicates are removed, first occurrence wins.
// An isolated drop yields an empty result.
func Upstream(d Drop) []Drop {
	if d == nil {
		return nil
	}

	var s dropSet
	if p := d.Producer(); p != nil {
		s.add(p)
	}

	parent := d.Parent()
	if parent != nil && parent.Role() == RoleContainerConsumer {
		s.add(parent)
	} else if d.Role() == RoleContainer {
		for _, c := range d.Children() {
			s.add(c)
		}
	}
	return s.items
}

// Downstream returns the drops that cannot complete until d does.
//
// A drop D is downstream of d when any of these hold:
//   - D is one of d's consumers
//   - d is a RoleContainerConsumer and D is one of its children
//   - D is d's parent and D is a RoleContainer
//
// The result is a set: duplicates are removed, first occurrence wins.
// The drop's own consumer list is never modified.
func Downstream(d Drop) []Drop {
	if d == nil {
		return nil
	}

	var s dropSet
	for _, c := range d.Consumers() {
		s.add(c)
	}

	if d.Role() == RoleContainerConsumer {
		for _, c := range d.Children() {
			s.add(c)
		}
	} else if parent := d.Parent(); parent != nil && parent.Role() == RoleContainer {
		s.add(parent)
	}
	return s.items
}

// dropSet is an insertion-ordered set of drops.
type dropSet struct {
	seen  map[Drop]struct{}
	items []Drop
}

func (s *dropSet) add(d Drop) bool {
	if d == nil {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[Drop]struct{})
	}
	if _, ok := s.seen[d]; ok {
		return false
	}
	s.seen[d] = struct{}{}
	s.items = append(s.items, d)
	return true
}

func (s *dropSet) has(d Drop) bool {
	_, ok := s.seen[d]
	return ok
}
