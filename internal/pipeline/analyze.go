package pipeline

import (
	"context"

	"shrinker/internal/diag"
	"shrinker/internal/facts"
	"shrinker/internal/graph"
	"shrinker/internal/lens"
	"shrinker/internal/types"
	"shrinker/internal/uses"
)

// Analysis holds the whole-program facts of one snapshot, pinned to its
// version. Later passes read them through Get(chain).
type Analysis struct {
	Allocations    lens.Versioned[*facts.Allocations]
	FieldAccess    lens.Versioned[*facts.FieldAccessInfoCollection]
	FieldSummaries lens.Versioned[*facts.Summaries[types.FieldRef, facts.FieldSummary]]
	// Invokes are only meaningful against the analyzed snapshot.
	Invokes []uses.Invoke
}

// Analyze walks every program method of s in parallel and collects
// allocation, field access and invoke facts. Linking problems go to r.
func Analyze(ctx context.Context, s *Snapshot, jobs int, r diag.Reporter) (*Analysis, error) {
	collector := uses.NewCollector(s.Engine, r)
	err := ForEachClass(ctx, s, jobs, func(_ context.Context, c *graph.ClassDef) error {
		for _, m := range c.Methods {
			mc := collector.ForMethod(m)
			uses.Walk(m, s.Chain, mc)
			mc.Flush()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u := collector.Finish()
	v := s.Version()
	return &Analysis{
		Allocations:    lens.Pin(u.Allocations, v),
		FieldAccess:    lens.Pin(u.FieldAccess, v),
		FieldSummaries: lens.Pin(facts.SummarizeFields(s.Graph.Interner(), u.FieldAccess), v),
		Invokes:        u.Invokes,
	}, nil
}
