package dropgraph

// fakeDrop is a hand-wired Drop for tests that need shapes the Builder
// rejects, such as cycles.
type fakeDrop struct {
	uid       string
	role      Role
	producer  Drop
	consumers []Drop
	parent    Drop
	children  []Drop
}

func newFake(uid string, role Role) *fakeDrop {
	return &fakeDrop{uid: uid, role: role}
}

func (f *fakeDrop) UID() string       { return f.uid }
func (f *fakeDrop) Role() Role        { return f.role }
func (f *fakeDrop) Producer() Drop    { return f.producer }
func (f *fakeDrop) Consumers() []Drop { return f.consumers }
func (f *fakeDrop) Parent() Drop      { return f.parent }
func (f *fakeDrop) Children() []Drop  { return f.children }

// feeds adds to as a consumer of f.
func (f *fakeDrop) feeds(to ...*fakeDrop) *fakeDrop {
	for _, d := range to {
		f.consumers = append(f.consumers, d)
	}
	return f
}

// contains places children in f.
func (f *fakeDrop) contains(children ...*fakeDrop) *fakeDrop {
	for _, c := range children {
		c.parent = f
		f.children = append(f.children, c)
	}
	return f
}

// diamond builds a→b, a→c, b→d, c→d with the Builder.
func diamond() *Graph {
	g, err := NewBuilder().
		AddDrop("a", RolePlain).
		AddDrop("b", RolePlain).
		AddDrop("c", RolePlain).
		AddDrop("d", RolePlain).
		AddConsumer("a", "b").
		AddConsumer("a", "c").
		AddConsumer("b", "d").
		AddConsumer("c", "d").
		Compile()
	if err != nil {
		panic(err)
	}
	return g
}

// recordVisits returns a VisitFunc appending UIDs to out.
func recordVisits(out *[]string) VisitFunc {
	return func(d Drop) error {
		*out = append(*out, d.UID())
		return nil
	}
}
