package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph"
)

func noopVisit(dropgraph.Drop) error { return nil }

// BenchmarkBreadthFirst_Chain_10000 walks a deep chain breadth-first.
func BenchmarkBreadthFirst_Chain_10000(b *testing.B) {
	start := mustCompile(chainBuilder(10000)).MustDrop("d0")
	starts := []dropgraph.Drop{start}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dropgraph.BreadthFirst(starts, noopVisit)
	}
}

// BenchmarkDepthFirst_Chain_10000 walks a deep chain depth-first.
func BenchmarkDepthFirst_Chain_10000(b *testing.B) {
	start := mustCompile(chainBuilder(10000)).MustDrop("d0")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dropgraph.DepthFirst(start, noopVisit)
	}
}

// BenchmarkLeafNodes_Wide_1000 collects the leaves of a wide fan-out.
func BenchmarkLeafNodes_Wide_1000(b *testing.B) {
	root := mustCompile(wideBuilder(1000)).MustDrop("root")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dropgraph.LeafNodes(root)
	}
}

// BenchmarkWalker_WithContext measures the per-visit cancellation check.
func BenchmarkWalker_WithContext(b *testing.B) {
	root := mustCompile(wideBuilder(1000)).MustDrop("root")
	walker := dropgraph.NewWalker()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = walker.BreadthFirst(ctx, []dropgraph.Drop{root}, noopVisit)
	}
}
