package dispatch

import (
	"shrinker/internal/graph"
	"shrinker/internal/resolve"
	"shrinker/internal/types"
)

// Resolver computes dispatch targets against the graph of its engine. It
// holds no state of its own; results depend only on the arguments.
type Resolver struct {
	engine *resolve.Engine
	g      *graph.Graph
	in     *types.Interner
}

// NewResolver returns a resolver using e for default-method lookups.
func NewResolver(e *resolve.Engine) *Resolver {
	return &Resolver{engine: e, g: e.Graph(), in: e.Graph().Interner()}
}

// LookupDispatchTargets returns the target of a call whose receiver has the
// symbolic holder's type.
func (r *Resolver) LookupDispatchTargets(out resolve.Outcome, alloc AllocationInfo) Result {
	return r.LookupDispatchTargetsForReceiver(out, alloc, Receiver{})
}

// LookupDispatchTargetsForReceiver is LookupDispatchTargets with a receiver
// type known to be at least as precise as the symbolic holder.
func (r *Resolver) LookupDispatchTargetsForReceiver(out resolve.Outcome, alloc AllocationInfo, recv Receiver) Result {
	if !out.IsSuccess() || out.Method == nil {
		return unknown(out)
	}
	m := out.Method
	if m.IsStatic() || m.IsPrivate() || m.IsInitializer() {
		return single(m, out)
	}
	root := r.root(out, recv)
	if recv.Exact && root == recv.Type {
		dyn, ok := r.g.Definition(root)
		if !ok {
			return unknown(out)
		}
		target, ok := r.dispatchTarget(dyn, m)
		if !ok {
			return unknown(out)
		}
		return single(target, out)
	}

	set := r.lookupTargets(out, alloc, root)
	if !set.Complete {
		return unknown(out)
	}
	switch {
	case len(set.Lambdas) == 1 && len(set.Methods) == 0:
		l := set.Lambdas[0]
		impl, ok := r.g.MethodDefinition(l.Impl)
		if !ok || !l.MainMethod().SameSignature(m.Ref) {
			return unknown(out)
		}
		return Result{Tag: LambdaTarget, Lambda: l, Impl: impl, Outcome: out}
	case len(set.Methods) == 1 && len(set.Lambdas) == 0:
		return single(set.Methods[0], out)
	case len(set.Methods) == 0 && len(set.Lambdas) == 0 && !m.IsAbstract() && r.mayReceive(out.Holder, alloc):
		return single(m, out)
	default:
		return unknown(out)
	}
}

// mayReceive reports whether holder itself can be a receiver: it is
// instantiated or it is a concrete class. An abstract holder with no live
// subtype gives no target; an unseen subclass may override the method.
func (r *Resolver) mayReceive(holder *graph.ClassDef, alloc AllocationInfo) bool {
	if holder == nil {
		return false
	}
	return !holder.IsAbstract() || alloc.IsInstantiated(holder.Type)
}

// LookupVirtualTargets returns every target of the call for receivers of
// the symbolic holder's type.
func (r *Resolver) LookupVirtualTargets(out resolve.Outcome, alloc AllocationInfo) TargetSet {
	if !out.IsSuccess() || out.Method == nil || out.Initial == nil {
		return TargetSet{}
	}
	return r.lookupTargets(out, alloc, out.Initial.Type)
}

// root picks the type whose subtypes are enumerated.
func (r *Resolver) root(out resolve.Outcome, recv Receiver) types.TypeID {
	if out.Initial == nil {
		return types.NoTypeID
	}
	if recv.Type != types.NoTypeID && r.g.IsSubtype(recv.Type, out.Initial.Type) {
		return recv.Type
	}
	return out.Initial.Type
}

func (r *Resolver) lookupTargets(out resolve.Outcome, alloc AllocationInfo, root types.TypeID) TargetSet {
	m := out.Method
	rootDef, ok := r.g.Definition(root)
	if !ok || !rootDef.IsProgram() {
		return TargetSet{}
	}
	set := TargetSet{Complete: true}
	seenMethods := make(map[*graph.MethodDef]bool)
	seenLambdas := make(map[*graph.Lambda]bool)
	addMethod := func(t *graph.MethodDef) {
		if !seenMethods[t] {
			seenMethods[t] = true
			set.Methods = append(set.Methods, t)
		}
	}

	for _, t := range r.g.Subtypes(root) {
		def, ok := r.g.Definition(t)
		if !ok {
			continue
		}
		if !def.IsProgram() {
			// Allocation knowledge ends where non-program code may
			// override or instantiate.
			set.Complete = false
			continue
		}
		if def.IsInterface() {
			for _, l := range alloc.Lambdas(t) {
				if seenLambdas[l] {
					continue
				}
				seenLambdas[l] = true
				if l.MainMethod().SameSignature(m.Ref) {
					set.Lambdas = append(set.Lambdas, l)
					continue
				}
				// The lambda inherits the method as a default.
				def := r.engine.LookupInInterfaces(l.Interfaces, m.Ref.Name, m.Ref.Proto)
				if !def.IsSuccess() || def.Method.IsAbstract() {
					set.Complete = false
					continue
				}
				addMethod(def.Method)
			}
			continue
		}
		if !alloc.IsInstantiated(t) {
			continue
		}
		target, ok := r.dispatchTarget(def, m)
		if !ok {
			set.Complete = false
			continue
		}
		addMethod(target)
	}
	return set
}

// dispatchTarget selects the method invoked on a receiver of exactly dyn
// (JVMS 5.4.6): the nearest class-chain declaration that overrides
// resolved, then the maximally-specific default.
func (r *Resolver) dispatchTarget(dyn *graph.ClassDef, resolved *graph.MethodDef) (*graph.MethodDef, bool) {
	if dyn.IsInterface() || dyn.IsAbstract() {
		return nil, false
	}
	chain := append([]*graph.ClassDef{dyn}, r.g.SuperClasses(dyn.Type)...)
	for _, c := range chain {
		cand := c.VirtualMethod(resolved.Ref.Name, resolved.Ref.Proto)
		if cand != nil && r.overrides(cand, resolved) {
			if cand.IsAbstract() {
				return nil, false
			}
			return cand, true
		}
	}
	out := r.engine.LookupMaximallySpecific(dyn, resolved.Ref.Name, resolved.Ref.Proto)
	if !out.IsSuccess() || out.Method.IsAbstract() {
		return nil, false
	}
	return out.Method, true
}

// overrides implements JVMS 5.4.5. A package-private method is only
// overridden from its own package, unless an intermediate declaration in
// that package widened its access.
func (r *Resolver) overrides(cand, resolved *graph.MethodDef) bool {
	if cand == resolved {
		return true
	}
	if !resolved.Flags.IsPackagePrivate() {
		return true
	}
	holder := resolved.Ref.Holder
	if r.in.SamePackage(cand.Ref.Holder, holder) {
		return true
	}
	for _, c := range r.g.SuperClasses(cand.Ref.Holder) {
		if c.Type == holder {
			break
		}
		mid := c.VirtualMethod(resolved.Ref.Name, resolved.Ref.Proto)
		if mid != nil && !mid.Flags.IsPackagePrivate() && r.in.SamePackage(c.Type, holder) {
			return true
		}
	}
	return false
}
