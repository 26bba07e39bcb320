package dropgraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestBreadthFirst_Diamond(t *testing.T) {
	g := diamond()

	var got []string
	err := BreadthFirst([]Drop{g.MustDrop("a")}, recordVisits(&got))
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, got); diff != "" {
		t.Errorf("wrong visit order\n%s", diff)
	}
}

func TestBreadthFirst_DiamondVisitsJoinAfterBothBranches(t *testing.T) {
	g := diamond()

	pos := map[string]int{}
	var n int
	err := BreadthFirst([]Drop{g.MustDrop("a")}, func(d Drop) error {
		_, seen := pos[d.UID()]
		require.False(t, seen, "visited %s twice", d.UID())
		pos[d.UID()] = n
		n++
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, pos, 4)
	assert.Greater(t, pos["d"], pos["b"])
	assert.Greater(t, pos["d"], pos["c"])
}

func TestBreadthFirst_NilVisit(t *testing.T) {
	g := diamond()
	assert.NoError(t, BreadthFirst(g.Roots(), nil))
	assert.NoError(t, DepthFirst(g.MustDrop("a"), nil))
}

func TestBreadthFirst_DuplicateStarts(t *testing.T) {
	g := diamond()
	b := g.MustDrop("b")

	var got []string
	require.NoError(t, BreadthFirst([]Drop{b, b, nil}, recordVisits(&got)))
	assert.Equal(t, []string{"b", "d"}, got)
}

func TestDepthFirst_Diamond(t *testing.T) {
	g := diamond()

	var got []string
	require.NoError(t, DepthFirst(g.MustDrop("a"), recordVisits(&got)))

	if diff := cmp.Diff([]string{"a", "b", "d", "c"}, got); diff != "" {
		t.Errorf("wrong visit order\n%s", diff)
	}
}

func TestDepthFirst_FreshVisitedSetPerCall(t *testing.T) {
	g := diamond()

	var first, second []string
	require.NoError(t, DepthFirst(g.MustDrop("a"), recordVisits(&first)))
	require.NoError(t, DepthFirst(g.MustDrop("a"), recordVisits(&second)))

	assert.Equal(t, first, second, "a second walk must not inherit the first walk's visited set")
}

func TestDepthFirst_SiblingReachedThroughEarlierSibling(t *testing.T) {
	// a→b, a→c, b→c: c is reached under b before a's loop gets to it.
	c := newFake("c", RolePlain)
	b := newFake("b", RolePlain).feeds(c)
	a := newFake("a", RolePlain).feeds(b, c)

	var got []string
	require.NoError(t, DepthFirst(a, recordVisits(&got)))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestDepthFirstAll_SharedVisitedAcrossStarts(t *testing.T) {
	g := diamond()

	var got []string
	require.NoError(t, DepthFirstAll([]Drop{g.MustDrop("b"), g.MustDrop("c")}, recordVisits(&got)))
	assert.Equal(t, []string{"b", "d", "c"}, got)
}

func TestTraversal_FollowsContainment(t *testing.T) {
	g, err := NewBuilder().
		AddDrop("src", RolePlain).
		AddDrop("cc", RoleContainerConsumer).
		AddDrop("x", RolePlain).
		AddDrop("box", RoleContainer).
		AddDrop("y", RolePlain).
		AddConsumer("src", "cc").
		AddChild("cc", "x").
		AddConsumer("x", "y").
		AddChild("box", "y").
		Compile()
	require.NoError(t, err)

	var got []string
	require.NoError(t, BreadthFirst([]Drop{g.MustDrop("src")}, recordVisits(&got)))
	assert.Equal(t, []string{"src", "cc", "x", "y", "box"}, got)
}

func TestTraversal_CycleTerminates(t *testing.T) {
	a := newFake("a", RolePlain)
	b := newFake("b", RolePlain)
	c := newFake("c", RolePlain)
	a.feeds(b)
	b.feeds(c)
	c.feeds(a)

	var bfs, dfs []string
	require.NoError(t, BreadthFirst([]Drop{a}, recordVisits(&bfs)))
	require.NoError(t, DepthFirst(a, recordVisits(&dfs)))

	assert.Equal(t, []string{"a", "b", "c"}, bfs)
	assert.Equal(t, []string{"a", "b", "c"}, dfs)
}

func TestTraversal_DeepChainDoesNotRecurse(t *testing.T) {
	const depth = 100_000
	head := newFake("n0", RolePlain)
	cur := head
	for i := 1; i < depth; i++ {
		next := newFake("n", RolePlain)
		cur.feeds(next)
		cur = next
	}

	var count int
	require.NoError(t, DepthFirst(head, func(Drop) error {
		count++
		return nil
	}))
	assert.Equal(t, depth, count)
}

func TestTraversal_VisitErrorAborts(t *testing.T) {
	g := diamond()
	errStop := errors.New("stop here")

	for name, walk := range map[string]func(VisitFunc) error{
		"bfs": func(v VisitFunc) error { return BreadthFirst([]Drop{g.MustDrop("a")}, v) },
		"dfs": func(v VisitFunc) error { return DepthFirst(g.MustDrop("a"), v) },
	} {
		t.Run(name, func(t *testing.T) {
			var got []string
			err := walk(func(d Drop) error {
				got = append(got, d.UID())
				if d.UID() == "b" {
					return errStop
				}
				return nil
			})
			assert.Same(t, errStop, err, "visit errors are returned unchanged")
			assert.Equal(t, []string{"a", "b"}, got)
		})
	}
}

func TestLeafNodes_SingleTerminal(t *testing.T) {
	g := diamond()

	for _, start := range []string{"a", "b", "c", "d"} {
		leaves := LeafNodes(g.MustDrop(start))
		assert.Equal(t, []string{"d"}, UIDs(leaves), "start %s", start)
	}
}

func TestLeafNodes_Order(t *testing.T) {
	l1 := newFake("l1", RolePlain)
	l2 := newFake("l2", RolePlain)
	mid := newFake("mid", RolePlain).feeds(l2)
	root := newFake("root", RolePlain).feeds(mid, l1)

	assert.Equal(t, []string{"l1", "l2"}, UIDs(LeafNodes(root)))
	assert.Empty(t, LeafNodes())
}

func TestReachable(t *testing.T) {
	g := diamond()
	assert.Equal(t, []string{"b", "d"}, UIDs(Reachable(g.MustDrop("b"))))
	assert.Equal(t, []string{"a", "b", "c", "d"}, UIDs(Reachable(g.Roots()...)))
}

func TestWalker_ContextCancelled(t *testing.T) {
	g := diamond()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker()
	err := w.BreadthFirst(ctx, []Drop{g.MustDrop("a")}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	err = w.DepthFirst(ctx, []Drop{g.MustDrop("a")}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = w.LeafNodes(ctx, g.MustDrop("a"))
	assert.ErrorIs(t, err, context.Canceled)
}

// recordingObserver captures what a Walker reports.
type recordingObserver struct {
	modes   []string
	visited []int
	ended   []error
}

func (r *recordingObserver) RecordFire(context.Context, string, int)                    {}
func (r *recordingObserver) RecordDelivery(context.Context, string, time.Duration, error) {}
func (r *recordingObserver) RecordCompletion(context.Context, string)                   {}
func (r *recordingObserver) RecordTraversal(_ context.Context, mode string, visited int, _ time.Duration) {
	r.modes = append(r.modes, mode)
	r.visited = append(r.visited, visited)
}

func (r *recordingObserver) StartTraversalSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}
func (r *recordingObserver) StartDeliverySpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}
func (r *recordingObserver) EndSpanWithError(_ trace.Span, err error) { r.ended = append(r.ended, err) }
func (r *recordingObserver) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}

func TestWalker_ReportsObservability(t *testing.T) {
	g := diamond()
	obs := &recordingObserver{}
	w := NewWalker(WithMetrics(obs), WithSpanManager(obs), WithLogger(nil))

	require.NoError(t, w.BreadthFirst(context.Background(), []Drop{g.MustDrop("a")}, nil))
	errStop := errors.New("stop")
	err := w.DepthFirst(context.Background(), []Drop{g.MustDrop("a")}, func(Drop) error { return errStop })
	require.ErrorIs(t, err, errStop)

	assert.Equal(t, []string{ModeBreadthFirst, ModeDepthFirst}, obs.modes)
	assert.Equal(t, []int{4, 0}, obs.visited)
	require.Len(t, obs.ended, 2)
	assert.NoError(t, obs.ended[0])
	assert.ErrorIs(t, obs.ended[1], errStop)
}
