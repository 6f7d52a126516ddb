package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shrinker/internal/diag"
	"shrinker/internal/fixup"
	"shrinker/internal/invariant"
	"shrinker/internal/observ"
	"shrinker/internal/trace"
)

// Options configures a Coordinator.
type Options struct {
	Jobs     int
	Tracer   trace.Tracer
	Timer    *observ.Timer
	Reporter diag.Reporter
	// CrashDump receives the trace ring buffer when a run stops on an
	// invariant violation.
	CrashDump io.Writer
	Progress  ProgressSink
}

// Coordinator owns the current snapshot. It is the only writer of the lens
// chain.
type Coordinator struct {
	current atomic.Pointer[Snapshot]
	opts    Options
	runID   string
}

// NewCoordinator publishes initial as the current snapshot.
func NewCoordinator(initial *Snapshot, opts Options) *Coordinator {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	if opts.Timer == nil {
		opts.Timer = observ.NewTimer()
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.Progress == nil {
		opts.Progress = nopSink{}
	}
	c := &Coordinator{opts: opts, runID: uuid.NewString()}
	c.current.Store(initial)
	return c
}

// Current returns the published snapshot.
func (c *Coordinator) Current() *Snapshot { return c.current.Load() }

// RunID identifies this coordinator's run in traces.
func (c *Coordinator) RunID() string { return c.runID }

// Timer returns the per-pass timer.
func (c *Coordinator) Timer() *observ.Timer { return c.opts.Timer }

// Jobs returns the worker limit passes should use.
func (c *Coordinator) Jobs() int { return c.opts.Jobs }

// Run executes passes in order, committing each pass's result before the
// next starts. An invariant violation anywhere in a pass stops the run and
// is returned as the error after the trace ring is dumped.
func (c *Coordinator) Run(ctx context.Context, passes ...Pass) (err error) {
	tracer := c.opts.Tracer
	root := trace.Begin(tracer, trace.ScopeDriver, "run", trace.CurrentSpan(ctx)).WithExtra("run", c.runID)
	ctx = trace.WithSpan(trace.WithTracer(ctx, tracer), root)
	defer func() {
		if v, ok := invariant.As(err); ok {
			if c.opts.CrashDump != nil {
				if _, dumpErr := trace.DumpRing(tracer, c.opts.CrashDump, trace.FormatText); dumpErr != nil {
					err = fmt.Errorf("%w (trace dump failed: %v)", err, dumpErr)
				}
			}
			root.End("violation: " + v.Error())
			return
		}
		root.End(fmt.Sprintf("version %d", c.Current().Version()))
	}()
	defer invariant.Recover(&err)

	for i, p := range passes {
		c.opts.Progress.OnEvent(Event{Pass: p.Name(), Index: i, Status: StatusQueued, Version: -1})
	}
	for i, p := range passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.runPass(ctx, i, p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) runPass(ctx context.Context, i int, p Pass) (err error) {
	cur := c.Current()
	start := time.Now()
	c.opts.Progress.OnEvent(Event{Pass: p.Name(), Index: i, Status: StatusWorking, Version: -1})
	defer func() {
		if err != nil {
			c.opts.Progress.OnEvent(Event{Pass: p.Name(), Index: i, Status: StatusError, Err: err, Elapsed: time.Since(start), Version: -1})
		}
	}()
	// Violations are recovered here first so the failing pass is reported;
	// Run sees them as ordinary returned errors.
	defer invariant.Recover(&err)

	idx := c.opts.Timer.Begin(p.Name())
	span := trace.Begin(c.opts.Tracer, trace.ScopePass, p.Name(), trace.CurrentSpan(ctx))
	res, err := p.Run(trace.WithSpan(ctx, span), cur)
	if err != nil {
		span.End("failed")
		c.opts.Timer.End(idx, "failed")
		return fmt.Errorf("pass %s: %w", p.Name(), err)
	}
	next := c.commit(cur, res)
	note := "unchanged"
	version := -1
	if next != cur {
		note = res.Step.Name()
		version = next.Version()
		c.opts.Timer.Committed(idx, version)
	}
	span.End(note)
	c.opts.Timer.End(idx, note)
	c.opts.Progress.OnEvent(Event{Pass: p.Name(), Index: i, Status: StatusDone, Elapsed: time.Since(start), Version: version})
	return nil
}

// commit appends the pass's step and publishes the next snapshot. The
// previous graph is discarded; holding on to it is a bug.
func (c *Coordinator) commit(cur *Snapshot, res Result) *Snapshot {
	if res.Step == nil || res.Step.IsEmpty() {
		if res.Graph != nil {
			invariant.Failf("pipeline.commit", "", "pass produced a graph without a step")
		}
		return cur
	}
	chain := cur.Chain.Append(res.Step)
	g := res.Graph
	if g == nil {
		g = fixup.Apply(cur.Graph, chain, c.opts.Reporter)
	}
	next := NewSnapshot(g, chain, c.opts.Tracer)
	if !c.current.CompareAndSwap(cur, next) {
		invariant.Failf("pipeline.commit", "", "snapshot %d replaced concurrently", cur.Version())
	}
	cur.Graph.Discard()
	return next
}
