package resolve

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"shrinker/internal/graph"
	"shrinker/internal/trace"
	"shrinker/internal/types"
)

// Engine resolves references against one graph. Results are memoized per
// (reference, kind, context); concurrent requests for the same key share a
// single computation.
type Engine struct {
	g      *graph.Graph
	in     *types.Interner
	tracer trace.Tracer

	memo         sync.Map // memoKey -> Outcome
	flight       singleflight.Group
	computations atomic.Int64
}

// NewEngine creates an engine for g.
func NewEngine(g *graph.Graph) *Engine {
	return &Engine{g: g, in: g.Interner(), tracer: trace.Nop}
}

// WithTracer makes the engine emit a member-scope point per computed
// resolution.
func (e *Engine) WithTracer(t trace.Tracer) *Engine {
	if t != nil {
		e.tracer = t
	}
	return e
}

// Graph returns the graph the engine resolves against.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Computations returns how many resolutions were actually computed (memo
// misses).
func (e *Engine) Computations() int64 { return e.computations.Load() }

type memoKey struct {
	field  bool
	kind   Kind
	holder types.TypeID
	name   types.StringID
	sig    uint32 // ProtoID for methods, TypeID for fields
	ctx    types.TypeID
}

func (k memoKey) String() string {
	return fmt.Sprintf("%t/%d/%d/%d/%d/%d", k.field, k.kind, k.holder, k.name, k.sig, k.ctx)
}

// ResolveMethod resolves ref invoked with kind from ctx.
func (e *Engine) ResolveMethod(ref types.MethodRef, ctx Context, kind Kind) Outcome {
	key := memoKey{kind: kind, holder: ref.Holder, name: ref.Name, sig: uint32(ref.Proto), ctx: ctx.Class}
	return e.memoized(key, func() Outcome { return e.resolveMethod(ref, ctx, kind) })
}

// ResolveField resolves ref from ctx. kind is InvokeStatic for static
// accesses; any other kind means an instance access.
func (e *Engine) ResolveField(ref types.FieldRef, ctx Context, kind Kind) Outcome {
	if kind != types.InvokeStatic {
		kind = types.InvokeVirtual
	}
	key := memoKey{field: true, kind: kind, holder: ref.Holder, name: ref.Name, sig: uint32(ref.Type), ctx: ctx.Class}
	return e.memoized(key, func() Outcome { return e.resolveField(ref, ctx, kind) })
}

func (e *Engine) memoized(key memoKey, compute func() Outcome) Outcome {
	if v, ok := e.memo.Load(key); ok {
		return v.(Outcome)
	}
	v, _, _ := e.flight.Do(key.String(), func() (any, error) {
		if v, ok := e.memo.Load(key); ok {
			return v, nil
		}
		out := compute()
		e.computations.Add(1)
		e.memo.Store(key, out)
		if e.tracer.Enabled() {
			trace.Point(e.tracer, trace.ScopeMember, "resolve", key.String()+" "+out.Tag.String(), 0)
		}
		return out, nil
	})
	return v.(Outcome)
}
