// Package pipeline runs passes over whole-program snapshots. Passes read
// the published snapshot in parallel; the coordinator alone appends to the
// lens chain and publishes the next snapshot between passes.
package pipeline

import (
	"shrinker/internal/dispatch"
	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/resolve"
	"shrinker/internal/trace"
)

// Snapshot is one consistent program state. All of its parts agree on the
// version.
type Snapshot struct {
	Graph    *graph.Graph
	Chain    *lens.Chain
	Engine   *resolve.Engine
	Dispatch *dispatch.Resolver
}

// NewSnapshot pairs g with chain, which must be at g's version.
func NewSnapshot(g *graph.Graph, chain *lens.Chain, tracer trace.Tracer) *Snapshot {
	if g.Version() != chain.Version() {
		invariant.Failf("pipeline.NewSnapshot", "", "graph version %d does not match chain version %d", g.Version(), chain.Version())
	}
	e := resolve.NewEngine(g).WithTracer(tracer)
	return &Snapshot{Graph: g, Chain: chain, Engine: e, Dispatch: dispatch.NewResolver(e)}
}

// Version is the chain version of the snapshot.
func (s *Snapshot) Version() int { return s.Chain.Version() }
