package facts

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

// Allocations records the instantiated types of the program, the methods
// allocating them, and the lambdas created.
type Allocations struct {
	in      *types.Interner
	sites   map[types.TypeID]*Contexts
	lambdas []*graph.Lambda
	byIface map[types.TypeID][]*graph.Lambda
}

// IsInstantiated reports whether some method allocates exactly t.
func (a *Allocations) IsInstantiated(t types.TypeID) bool {
	_, ok := a.sites[t]
	return ok
}

// Lambdas returns the lambdas implementing iface directly.
func (a *Allocations) Lambdas(iface types.TypeID) []*graph.Lambda {
	return a.byIface[iface]
}

// AllLambdas returns every recorded lambda in recording order.
func (a *Allocations) AllLambdas() []*graph.Lambda { return a.lambdas }

// Contexts returns the methods allocating t.
func (a *Allocations) Contexts(t types.TypeID) []types.MethodRef {
	s, ok := a.sites[t]
	if !ok {
		return nil
	}
	return s.Slice()
}

// Types returns the instantiated types ordered by descriptor.
func (a *Allocations) Types() []types.TypeID {
	out := slices.Collect(maps.Keys(a.sites))
	slices.SortFunc(out, func(x, y types.TypeID) int {
		return cmp.Compare(a.in.Descriptor(x), a.in.Descriptor(y))
	})
	return out
}

// RewrittenWithLens maps allocated types, allocation contexts and lambdas
// through l. Merged types share one entry; removed ones disappear.
func (a *Allocations) RewrittenWithLens(l lens.Lens) *Allocations {
	b := NewAllocationsBuilder(a.in)
	for t, ctxs := range a.sites {
		to, ok := l.LookupType(t).Live()
		if !ok {
			continue
		}
		dst := b.contextsOf(to)
		rewriteContexts(l, ctxs, dst)
	}
	for _, lam := range a.lambdas {
		if next, ok := RewriteLambda(l, lam); ok {
			b.addLambda(next)
		}
	}
	return b.Build()
}

// RewriteLambda maps a lambda's interfaces, prototype and implementation
// through l. ok is false when the implementation or every interface was
// removed.
func RewriteLambda(l lens.Lens, lam *graph.Lambda) (*graph.Lambda, bool) {
	impl, ok := l.LookupMethod(lam.Impl, types.InvokeStatic).Live()
	if !ok {
		return nil, false
	}
	next := &graph.Lambda{Name: lam.Name, Proto: l.RewriteProto(lam.Proto), Impl: impl}
	for _, i := range lam.Interfaces {
		if to, ok := l.LookupType(i).Live(); ok && !slices.Contains(next.Interfaces, to) {
			next.Interfaces = append(next.Interfaces, to)
		}
	}
	return next, len(next.Interfaces) > 0
}

// AllocationsBuilder accumulates allocation facts from concurrent workers.
type AllocationsBuilder struct {
	mu    sync.Mutex
	in    *types.Interner
	sites map[types.TypeID]*Contexts
	lams  []*graph.Lambda
	seen  map[*graph.Lambda]bool
	done  bool
}

// NewAllocationsBuilder returns an empty builder.
func NewAllocationsBuilder(in *types.Interner) *AllocationsBuilder {
	return &AllocationsBuilder{
		in:    in,
		sites: make(map[types.TypeID]*Contexts),
		seen:  make(map[*graph.Lambda]bool),
	}
}

func (b *AllocationsBuilder) contextsOf(t types.TypeID) *Contexts {
	s, ok := b.sites[t]
	if !ok {
		s = newContexts()
		b.sites[t] = s
	}
	return s
}

func (b *AllocationsBuilder) checkOpen(op string) {
	if b.done {
		invariant.Failf(op, "", "builder used after Build")
	}
}

// RecordAllocation notes that ctx allocates t.
func (b *AllocationsBuilder) RecordAllocation(t types.TypeID, ctx types.MethodRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpen("facts.RecordAllocation")
	b.contextsOf(t).Insert(ctx)
}

// RecordLambda notes a lambda creation.
func (b *AllocationsBuilder) RecordLambda(l *graph.Lambda) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpen("facts.RecordLambda")
	b.addLambda(l)
}

func (b *AllocationsBuilder) addLambda(l *graph.Lambda) {
	if b.seen[l] {
		return
	}
	b.seen[l] = true
	b.lams = append(b.lams, l)
}

// Build freezes the builder.
func (b *AllocationsBuilder) Build() *Allocations {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpen("facts.AllocationsBuilder.Build")
	b.done = true
	slices.SortStableFunc(b.lams, compareLambdas)
	a := &Allocations{in: b.in, sites: b.sites, lambdas: b.lams, byIface: make(map[types.TypeID][]*graph.Lambda)}
	for _, l := range b.lams {
		for _, i := range l.Interfaces {
			a.byIface[i] = append(a.byIface[i], l)
		}
	}
	return a
}

func compareLambdas(x, y *graph.Lambda) int {
	if c := types.CompareMethodRefs(x.Impl, y.Impl); c != 0 {
		return c
	}
	return types.CompareMethodRefs(x.MainMethod(), y.MainMethod())
}
