package uses

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"shrinker/internal/diag"
	"shrinker/internal/dispatch"
	"shrinker/internal/facts"
	"shrinker/internal/graph"
	"shrinker/internal/resolve"
	"shrinker/internal/types"
)

// Invoke is one resolved call site.
type Invoke struct {
	Context types.MethodRef
	Kind    types.InvokeKind
	Ref     types.MethodRef
	Outcome resolve.Outcome
}

// Uses is everything a Collector gathered over a set of methods.
type Uses struct {
	Allocations *facts.Allocations
	FieldAccess *facts.FieldAccessInfoCollection
	// Invokes are ordered by calling method, then program order.
	Invokes []Invoke
}

// DispatchTargets computes the dispatch result of every invoke.
func (u *Uses) DispatchTargets(r *dispatch.Resolver) []dispatch.Result {
	out := make([]dispatch.Result, len(u.Invokes))
	for i, inv := range u.Invokes {
		out[i] = r.LookupDispatchTargets(inv.Outcome, u.Allocations)
	}
	return out
}

// Collector resolves the references of many methods against one engine.
// Methods may be collected concurrently, each through its own
// MethodCollector.
type Collector struct {
	engine   *resolve.Engine
	in       *types.Interner
	reporter diag.Reporter

	alloc  *facts.AllocationsBuilder
	fields *facts.FieldAccessBuilder

	mu      sync.Mutex
	invokes []Invoke
}

// NewCollector returns a collector reporting linking problems to r.
func NewCollector(e *resolve.Engine, r diag.Reporter) *Collector {
	if r == nil {
		r = diag.NopReporter{}
	}
	in := e.Graph().Interner()
	return &Collector{
		engine:   e,
		in:       in,
		reporter: r,
		alloc:    facts.NewAllocationsBuilder(in),
		fields:   facts.NewFieldAccessBuilder(),
	}
}

// ForMethod returns the registry for the body of m. Call Flush when the
// walk is done.
func (c *Collector) ForMethod(m *graph.MethodDef) *MethodCollector {
	return &MethodCollector{c: c, method: m, ctx: resolve.From(m.Ref.Holder)}
}

// Finish freezes the collected facts.
func (c *Collector) Finish() *Uses {
	c.mu.Lock()
	invokes := slices.Clone(c.invokes)
	c.mu.Unlock()
	slices.SortStableFunc(invokes, func(a, b Invoke) int {
		return cmp.Compare(c.in.MethodString(a.Context), c.in.MethodString(b.Context))
	})
	return &Uses{
		Allocations: c.alloc.Build(),
		FieldAccess: c.fields.Build(),
		Invokes:     invokes,
	}
}

// MethodCollector is the Registry of one method body.
type MethodCollector struct {
	c       *Collector
	method  *graph.MethodDef
	ctx     resolve.Context
	invokes []Invoke
}

var _ Registry = (*MethodCollector)(nil)

// Flush hands the method's invokes to the collector.
func (mc *MethodCollector) Flush() {
	mc.c.mu.Lock()
	mc.c.invokes = append(mc.c.invokes, mc.invokes...)
	mc.c.mu.Unlock()
	mc.invokes = nil
}

func (mc *MethodCollector) location(subject string) diag.Location {
	return diag.Location{Subject: subject, Context: mc.c.in.MethodString(mc.method.Ref)}
}

func (mc *MethodCollector) RegisterTypeReference(t types.TypeID) {
	in := mc.c.in
	base := t
	for in.IsArray(base) {
		base = in.MustLookup(base).Elem
	}
	if tt, ok := in.Lookup(base); !ok || tt.Kind != types.KindClass {
		return
	}
	if _, ok := mc.c.engine.Graph().Definition(base); !ok {
		diag.ReportWarning(mc.c.reporter, diag.LnkClassNotFound, mc.location(in.Descriptor(t)), "referenced class is not defined")
	}
}

func (mc *MethodCollector) RegisterInitClass(t types.TypeID) { mc.RegisterTypeReference(t) }

func (mc *MethodCollector) RegisterNewInstance(t types.TypeID) {
	mc.RegisterTypeReference(t)
	mc.c.alloc.RecordAllocation(t, mc.method.Ref)
}

func (mc *MethodCollector) RegisterLambda(l *graph.Lambda) {
	for _, i := range l.Interfaces {
		mc.RegisterTypeReference(i)
	}
	mc.c.alloc.RecordLambda(l)
}

func (mc *MethodCollector) RegisterStaticFieldRead(f types.FieldRef) { mc.field(f, true, false) }
func (mc *MethodCollector) RegisterStaticFieldWrite(f types.FieldRef) { mc.field(f, true, true) }
func (mc *MethodCollector) RegisterInstanceFieldRead(f types.FieldRef) {
	mc.field(f, false, false)
}
func (mc *MethodCollector) RegisterInstanceFieldWrite(f types.FieldRef) {
	mc.field(f, false, true)
}

func (mc *MethodCollector) field(f types.FieldRef, static, write bool) {
	kind := types.InvokeVirtual
	if static {
		kind = types.InvokeStatic
	}
	out := mc.c.engine.ResolveField(f, mc.ctx, kind)
	if !out.IsSuccess() {
		mc.report(out, diag.LnkNoSuchField, mc.c.in.FieldString(f))
		return
	}
	if write {
		mc.c.fields.RecordWrite(out.Field.Ref, mc.method.Ref)
	} else {
		mc.c.fields.RecordRead(out.Field.Ref, mc.method.Ref)
	}
}

func (mc *MethodCollector) RegisterInvokeStatic(m types.MethodRef) { mc.invoke(types.InvokeStatic, m) }
func (mc *MethodCollector) RegisterInvokeDirect(m types.MethodRef) { mc.invoke(types.InvokeDirect, m) }
func (mc *MethodCollector) RegisterInvokeSuper(m types.MethodRef)  { mc.invoke(types.InvokeSuper, m) }
func (mc *MethodCollector) RegisterInvokeVirtual(m types.MethodRef) {
	mc.invoke(types.InvokeVirtual, m)
}
func (mc *MethodCollector) RegisterInvokeInterface(m types.MethodRef) {
	mc.invoke(types.InvokeInterface, m)
}

func (mc *MethodCollector) invoke(kind types.InvokeKind, m types.MethodRef) {
	out := mc.c.engine.ResolveMethod(m, mc.ctx, kind)
	if !out.IsSuccess() {
		mc.report(out, diag.LnkNoSuchMethod, mc.c.in.MethodString(m))
	}
	mc.invokes = append(mc.invokes, Invoke{Context: mc.method.Ref, Kind: kind, Ref: m, Outcome: out})
}

func (mc *MethodCollector) report(out resolve.Outcome, notFound diag.Code, subject string) {
	code := notFound
	switch out.Tag {
	case resolve.NoSuchMember:
		switch out.Reason {
		case resolve.ReasonClassNotFound:
			code = diag.LnkClassNotFound
		case resolve.ReasonPrivateNestMate:
			code = diag.LnkPrivateNestMate
		}
	case resolve.IllegalAccess:
		code = diag.LnkIllegalAccess
	case resolve.IncompatibleClassChange:
		code = diag.LnkIncompatibleClassChange
	case resolve.AmbiguousDefaultMethod:
		code = diag.LnkAmbiguousDefault
	}
	msg := out.Tag.String()
	if r := out.Reason.String(); r != "" {
		msg = fmt.Sprintf("%s: %s", msg, r)
	}
	var notes []diag.Note
	for _, cand := range out.Candidates {
		notes = append(notes, diag.Note{Location: diag.Location{Subject: mc.c.in.MethodString(cand.Ref)}, Msg: "candidate"})
	}
	mc.c.reporter.Report(code, diag.SevWarning, mc.location(subject), msg, notes)
}
