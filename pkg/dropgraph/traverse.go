package dropgraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph/observability"
)

// VisitFunc is invoked once per visited drop. Returning an error stops the
// walk; the error is handed back to the caller of the traversal unchanged.
type VisitFunc func(d Drop) error

// Traversal mode names, used in logs, metrics, and span names.
const (
	ModeBreadthFirst = "bfs"
	ModeDepthFirst   = "dfs"
)

// Walker traverses drop graphs along downstream edges.
//
// A Walker holds no per-walk state: found and visited sets are allocated by
// each call, so one Walker can be shared across goroutines.
type Walker struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithLogger sets the logger used for debug traces of each walk.
func WithLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics records visited counts and durations.
func WithMetrics(m observability.MetricsRecorder) WalkerOption {
	return func(w *Walker) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithSpanManager opens one span per walk.
func WithSpanManager(sm observability.SpanManager) WalkerOption {
	return func(w *Walker) {
		if sm != nil {
			w.spans = sm
		}
	}
}

// NewWalker creates a Walker. Without options it logs nothing and records
// no metrics or spans.
func NewWalker(opts ...WalkerOption) *Walker {
	w := &Walker{
		logger:  observability.DiscardLogger(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var defaultWalker = NewWalker()

// BreadthFirst visits every drop reachable from starts, level by level.
//
// A drop is marked found when it is enqueued, not when it is visited, so in a
// diamond (A→B, A→C, B→D, C→D) D is enqueued once and visited after both B
// and C. visit may be nil.
func (w *Walker) BreadthFirst(ctx context.Context, starts []Drop, visit VisitFunc) error {
	return w.walk(ctx, ModeBreadthFirst, starts, func(ctx context.Context, count *int) error {
		var found dropSet
		queue := make([]Drop, 0, len(starts))
		for _, d := range starts {
			if found.add(d) {
				queue = append(queue, d)
			}
		}

		for len(queue) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}

			d := queue[0]
			queue = queue[1:]

			if visit != nil {
				if err := visit(d); err != nil {
					return err
				}
			}
			*count++

			for _, next := range Downstream(d) {
				if found.add(next) {
					queue = append(queue, next)
				}
			}
		}
		return nil
	})
}

// DepthFirst visits every drop reachable from starts in pre-order, following
// downstream neighbours in order. Each start is walked in turn; drops seen
// from an earlier start are not revisited.
//
// The walk uses an explicit stack, so its depth is bounded by memory rather
// than the goroutine stack. A neighbour is skipped if it has been visited by
// the time the walk reaches it.
func (w *Walker) DepthFirst(ctx context.Context, starts []Drop, visit VisitFunc) error {
	return w.walk(ctx, ModeDepthFirst, starts, func(ctx context.Context, count *int) error {
		var visited dropSet
		stack := make([]Drop, 0, len(starts))
		for i := len(starts) - 1; i >= 0; i-- {
			if starts[i] != nil {
				stack = append(stack, starts[i])
			}
		}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}

			d := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !visited.add(d) {
				continue
			}

			if visit != nil {
				if err := visit(d); err != nil {
					return err
				}
			}
			*count++

			next := Downstream(d)
			for i := len(next) - 1; i >= 0; i-- {
				if !visited.has(next[i]) {
					stack = append(stack, next[i])
				}
			}
		}
		return nil
	})
}

// LeafNodes returns the drops reachable from starts that have no downstream
// drops, in breadth-first visitation order.
func (w *Walker) LeafNodes(ctx context.Context, starts ...Drop) ([]Drop, error) {
	var leaves []Drop
	err := w.BreadthFirst(ctx, starts, func(d Drop) error {
		if len(Downstream(d)) == 0 {
			leaves = append(leaves, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leaves, nil
}

// Reachable returns every drop reachable from starts, starts included, in
// breadth-first visitation order.
func (w *Walker) Reachable(ctx context.Context, starts ...Drop) ([]Drop, error) {
	var out []Drop
	err := w.BreadthFirst(ctx, starts, func(d Drop) error {
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Walker) walk(ctx context.Context, mode string, starts []Drop, body func(context.Context, *int) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := w.spans.StartTraversalSpan(ctx, mode, len(starts))
	observability.LogTraversalStart(w.logger, mode, len(starts))
	start := time.Now()

	var visited int
	err := body(ctx, &visited)

	elapsed := time.Since(start)
	w.metrics.RecordTraversal(ctx, mode, visited, elapsed)
	observability.LogTraversalComplete(w.logger, mode, visited, float64(elapsed.Microseconds())/1000, err)
	w.spans.EndSpanWithError(span, err)
	return err
}

// BreadthFirst walks from starts with the default Walker.
func BreadthFirst(starts []Drop, visit VisitFunc) error {
	return defaultWalker.BreadthFirst(context.Background(), starts, visit)
}

// DepthFirst walks from a single drop with the default Walker.
func DepthFirst(start Drop, visit VisitFunc) error {
	return defaultWalker.DepthFirst(context.Background(), []Drop{start}, visit)
}

// DepthFirstAll walks from several drops with the default Walker.
func DepthFirstAll(starts []Drop, visit VisitFunc) error {
	return defaultWalker.DepthFirst(context.Background(), starts, visit)
}

// LeafNodes collects leaves reachable from starts with the default Walker.
func LeafNodes(starts ...Drop) []Drop {
	// Cannot fail: background context and an infallible visitor.
	leaves, _ := defaultWalker.LeafNodes(context.Background(), starts...)
	return leaves
}

// Reachable collects every drop reachable from starts with the default Walker.
func Reachable(starts ...Drop) []Drop {
	out, _ := defaultWalker.Reachable(context.Background(), starts...)
	return out
}
