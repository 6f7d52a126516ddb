package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/trace"
)

// ForEachClass runs fn for every program class of s on up to jobs
// goroutines. The first error or invariant violation cancels the rest and
// is returned.
func ForEachClass(ctx context.Context, s *Snapshot, jobs int, fn func(ctx context.Context, c *graph.ClassDef) error) error {
	classes := s.Graph.ProgramClasses()
	if len(classes) == 0 {
		return nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)
	in := s.Graph.Interner()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(classes)))
	for _, c := range classes {
		g.Go(func() (err error) {
			defer invariant.Recover(&err)
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			span := trace.Begin(tracer, trace.ScopeClass, in.Descriptor(c.Type), parent)
			defer span.End("")
			return fn(trace.WithSpan(gctx, span), c)
		})
	}
	return g.Wait()
}
