package resolve

import (
	"slices"

	"shrinker/internal/graph"
	"shrinker/internal/types"
)

func (e *Engine) resolveMethod(ref types.MethodRef, ctx Context, kind Kind) Outcome {
	if e.in.IsArray(ref.Holder) {
		return e.resolveArrayMethod(ref, ctx, kind)
	}
	initial, ok := e.g.Definition(ref.Holder)
	if !ok {
		return failure(NoSuchMember, ReasonClassNotFound, nil)
	}
	if !e.classAccessible(initial, ctx) {
		return failure(IllegalAccess, ReasonNone, initial)
	}
	var out Outcome
	switch {
	case e.in.IsInitializer(ref), kind == types.InvokeStatic, kind == types.InvokeDirect:
		out = e.resolveOnHolder(initial, ref, kind)
	case kind == types.InvokeSuper:
		out = e.resolveSuper(initial, ref, ctx)
	default:
		out = e.resolveVirtual(initial, initial, ref, ctx)
	}
	return e.finishMethod(out, ctx, kind)
}

// resolveOnHolder handles static, direct and initializer references, which
// must name a method declared exactly on the holder.
func (e *Engine) resolveOnHolder(initial *graph.ClassDef, ref types.MethodRef, kind Kind) Outcome {
	m := initial.Method(ref.Name, ref.Proto)
	if m == nil {
		return failure(NoSuchMember, ReasonNotOnHolder, initial)
	}
	out := methodSuccess(initial, initial, m, []types.TypeID{initial.Type})
	if (kind == types.InvokeStatic) != m.IsStatic() && (kind == types.InvokeStatic || kind == types.InvokeDirect) {
		out.Tag = IncompatibleClassChange
	}
	return out
}

// resolveVirtual picks class or interface lookup by the start type, not by
// the invoke kind: DEX code does not reliably encode which one applies.
func (e *Engine) resolveVirtual(initial, start *graph.ClassDef, ref types.MethodRef, ctx Context) Outcome {
	if start.IsInterface() {
		return e.resolveOnInterface(initial, start, ref)
	}
	return e.resolveOnClass(initial, start, ref, ctx)
}

// resolveOnClass walks the class chain from start (JVMS 5.4.3.3 step 2),
// then falls back to the maximally-specific superinterface methods.
func (e *Engine) resolveOnClass(initial, start *graph.ClassDef, ref types.MethodRef, ctx Context) Outcome {
	chain := append([]*graph.ClassDef{start}, e.g.SuperClasses(start.Type)...)
	path := make([]types.TypeID, 0, len(chain)+1)
	for _, c := range chain {
		path = append(path, c.Type)
		m := c.Method(ref.Name, ref.Proto)
		if m == nil || m.IsInitializer() {
			continue
		}
		if m.IsPrivate() && c != start && ctx.Class != types.NoTypeID {
			out := Outcome{Tag: IllegalAccess, Method: m, Initial: initial, Holder: c, Path: path}
			if e.g.SameNest(ctx.Class, c.Type) {
				out.Tag, out.Reason = NoSuchMember, ReasonPrivateNestMate
			}
			return out
		}
		return methodSuccess(initial, c, m, path)
	}
	return e.maximallySpecific(initial, chain, ref.Name, ref.Proto, path)
}

// resolveOnInterface implements JVMS 5.4.3.4: the interface itself, then
// public instance methods of Object, then superinterfaces.
func (e *Engine) resolveOnInterface(initial, iface *graph.ClassDef, ref types.MethodRef) Outcome {
	if m := iface.Method(ref.Name, ref.Proto); m != nil && !m.IsInitializer() {
		return methodSuccess(initial, iface, m, []types.TypeID{iface.Type})
	}
	if obj, ok := e.g.Definition(e.in.Builtins().Object); ok && e.g.MayWalkInto(iface, obj) {
		if m := obj.Method(ref.Name, ref.Proto); m != nil && m.Flags.IsPublic() && !m.IsStatic() {
			return methodSuccess(initial, obj, m, []types.TypeID{iface.Type, obj.Type})
		}
	}
	return e.maximallySpecific(initial, []*graph.ClassDef{iface}, ref.Name, ref.Proto, []types.TypeID{iface.Type})
}

// resolveSuper starts the lookup at the context's super class when the
// symbolic holder is a class strictly above the context, and at the holder
// otherwise.
func (e *Engine) resolveSuper(initial *graph.ClassDef, ref types.MethodRef, ctx Context) Outcome {
	if ctx.Class == types.NoTypeID {
		return failure(NoSuchMember, ReasonNoContext, initial)
	}
	ctxDef, ok := e.g.Definition(ctx.Class)
	if !ok {
		return failure(NoSuchMember, ReasonClassNotFound, initial)
	}
	start := initial
	if !initial.IsInterface() && e.g.IsStrictSubtype(ctx.Class, initial.Type) {
		if ctxDef.Super == types.NoTypeID {
			return failure(NoSuchMember, ReasonNotDeclared, initial)
		}
		sup, ok := e.g.Definition(ctxDef.Super)
		if !ok {
			return failure(NoSuchMember, ReasonClassNotFound, initial)
		}
		start = sup
	}
	return e.resolveVirtual(initial, start, ref, ctx)
}

func (e *Engine) resolveArrayMethod(ref types.MethodRef, ctx Context, kind Kind) Outcome {
	if p, ok := e.in.Proto(ref.Proto); ok && ref.Name == e.in.Builtins().Clone && len(p.Params) == 0 {
		return Outcome{Tag: Success, ArrayClone: true, Path: []types.TypeID{ref.Holder}}
	}
	obj, ok := e.g.Definition(e.in.Builtins().Object)
	if !ok {
		return failure(NoSuchMember, ReasonClassNotFound, nil)
	}
	out := e.resolveOnClass(obj, obj, ref.WithHolder(obj.Type), ctx)
	return e.finishMethod(out, ctx, kind)
}

func (e *Engine) finishMethod(out Outcome, ctx Context, kind Kind) Outcome {
	if !out.IsSuccess() || out.Method == nil {
		return out
	}
	switch kind {
	case types.InvokeVirtual, types.InvokeInterface, types.InvokeSuper:
		if out.Method.IsStatic() {
			out.Tag = IncompatibleClassChange
			return out
		}
	}
	return e.checkAccess(out, out.Method.Flags, ctx)
}

type candidateSet struct {
	order  []types.TypeID
	byType map[types.TypeID]*graph.MethodDef // nil marks a shadowed interface
}

type pending struct {
	from *graph.ClassDef
	t    types.TypeID
}

// maximallySpecific collects the superinterface methods of roots with the
// given signature that no other candidate's interface overrides, visiting
// interfaces breadth-first.
func (e *Engine) maximallySpecific(initial *graph.ClassDef, roots []*graph.ClassDef, name types.StringID, proto types.ProtoID, path []types.TypeID) Outcome {
	cs := candidateSet{byType: make(map[types.TypeID]*graph.MethodDef)}
	visited := make(map[types.TypeID]bool)
	var queue []pending
	for _, r := range roots {
		for _, i := range r.Interfaces {
			queue = append(queue, pending{from: r, t: i})
		}
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if visited[p.t] {
			continue
		}
		def, ok := e.g.Definition(p.t)
		if !ok || !e.g.MayWalkInto(p.from, def) {
			continue
		}
		visited[p.t] = true
		if m := def.Method(name, proto); m != nil && !m.IsPrivate() && !m.IsStatic() {
			cs.order = append(cs.order, def.Type)
			cs.byType[def.Type] = m
			e.shadow(def, &cs, visited)
			continue
		}
		for _, i := range def.Interfaces {
			queue = append(queue, pending{from: def, t: i})
		}
	}

	var live, concrete []*graph.MethodDef
	for _, t := range cs.order {
		if m := cs.byType[t]; m != nil {
			live = append(live, m)
			if !m.IsAbstract() {
				concrete = append(concrete, m)
			}
		}
	}
	var picked *graph.MethodDef
	switch {
	case len(live) == 0:
		return failure(NoSuchMember, ReasonNotDeclared, initial)
	case len(concrete) == 1:
		picked = concrete[0]
	case len(concrete) == 0:
		picked = live[0]
	default:
		return Outcome{Tag: AmbiguousDefaultMethod, Initial: initial, Candidates: concrete, Path: path}
	}
	holder, _ := e.g.Definition(picked.Ref.Holder)
	return methodSuccess(initial, holder, picked, append(slices.Clip(path), holder.Type))
}

// shadow marks every superinterface of def as overridden.
func (e *Engine) shadow(def *graph.ClassDef, cs *candidateSet, visited map[types.TypeID]bool) {
	for _, i := range def.Interfaces {
		if m, seen := cs.byType[i]; seen && m == nil {
			continue
		}
		cs.byType[i] = nil
		visited[i] = true
		if sup, ok := e.g.Definition(i); ok && e.g.MayWalkInto(def, sup) {
			e.shadow(sup, cs, visited)
		}
	}
}

// LookupMaximallySpecific returns the default method cls inherits for the
// signature when neither cls nor its super classes declare one.
func (e *Engine) LookupMaximallySpecific(cls *graph.ClassDef, name types.StringID, proto types.ProtoID) Outcome {
	chain := append([]*graph.ClassDef{cls}, e.g.SuperClasses(cls.Type)...)
	path := make([]types.TypeID, 0, len(chain))
	for _, c := range chain {
		path = append(path, c.Type)
	}
	return e.maximallySpecific(cls, chain, name, proto, path)
}

// LookupInInterfaces returns the maximally-specific method of a set of
// interfaces, such as the functional interfaces of a lambda.
func (e *Engine) LookupInInterfaces(ifaces []types.TypeID, name types.StringID, proto types.ProtoID) Outcome {
	root := graph.NewClass(types.NoTypeID, graph.Program, 0)
	root.Interfaces = ifaces
	return e.maximallySpecific(nil, []*graph.ClassDef{root}, name, proto, nil)
}
