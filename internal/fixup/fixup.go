// Package fixup produces the graph of the next snapshot by applying the
// newest lens steps to every class definition.
package fixup

import (
	"cmp"
	"slices"

	"shrinker/internal/diag"
	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

// Apply rewrites g, which is at some earlier version of chain, to chain's
// current version. Removed classes and members disappear; classes merged
// into one another pool their surviving members. Code bodies are shared
// with g and keep their version; readers rewrite references lazily.
//
// Steps may only touch program classes. Renaming, merging or removing a
// classpath or library identity is fatal.
func Apply(g *graph.Graph, chain *lens.Chain, r diag.Reporter) *graph.Graph {
	from := g.Version()
	view := chain.Between(from, chain.Version())
	in := g.Interner()
	b := graph.NewBuilder(in).WithVersion(chain.Version()).WithReporter(r)
	if view.IsIdentity() {
		for _, c := range g.Classes() {
			b.Add(c.Clone())
		}
		return b.Build()
	}

	f := &fixer{in: in, view: view, out: make(map[types.TypeID]*target)}
	for _, c := range g.Classes() {
		if !c.IsProgram() {
			f.checkUntouched(c)
			b.Add(c.Clone())
			continue
		}
		f.fix(c)
	}
	order := make([]types.TypeID, 0, len(f.out))
	for t := range f.out {
		order = append(order, t)
	}
	slices.SortFunc(order, func(a, b types.TypeID) int {
		return cmp.Compare(in.Descriptor(a), in.Descriptor(b))
	})
	for _, t := range order {
		b.Add(f.out[t].class)
	}
	return b.Build()
}

type target struct {
	class *graph.ClassDef
	// sources records the pre-step reference of each kept method, so the
	// method that kept its identity wins a merge.
	sources map[types.MethodRef]types.MethodRef
	fields  map[types.FieldRef]bool
}

type fixer struct {
	in   *types.Interner
	view lens.View
	out  map[types.TypeID]*target
}

func (f *fixer) checkUntouched(c *graph.ClassDef) {
	desc := f.in.Descriptor(c.Type)
	if l := f.view.LookupType(c.Type); l.Removed || l.Value != c.Type {
		invariant.Failf("fixup.Apply", desc, "%s class renamed or removed", c.Provenance())
	}
	for _, m := range c.Methods {
		if l := f.view.LookupMethod(m.Ref, types.InvokeDirect); l.Removed || l.Method != m.Ref {
			invariant.Failf("fixup.Apply", f.in.MethodString(m.Ref), "%s method renamed or removed", c.Provenance())
		}
	}
	for _, fd := range c.Fields {
		if l := f.view.LookupField(fd.Ref); l.Removed || l.Value != fd.Ref {
			invariant.Failf("fixup.Apply", f.in.FieldString(fd.Ref), "%s field renamed or removed", c.Provenance())
		}
	}
}

func (f *fixer) fix(c *graph.ClassDef) {
	t, ok := f.view.LookupType(c.Type).Live()
	if !ok {
		return
	}
	dst, ok := f.out[t]
	if !ok {
		nc := graph.NewClass(t, c.Provenance(), c.Flags)
		nc.Super = f.liveType(c, c.Super)
		nc.Annotations = slices.Clone(c.Annotations)
		dst = &target{class: nc, sources: make(map[types.MethodRef]types.MethodRef), fields: make(map[types.FieldRef]bool)}
		f.out[t] = dst
	}
	nc := dst.class
	if c.Type == t {
		// The class that keeps its identity defines the merged class's
		// header.
		nc.Flags = c.Flags
		nc.Super = f.liveType(c, c.Super)
	}
	for _, i := range c.Interfaces {
		if to, ok := f.view.LookupType(i).Live(); ok && to != t && !slices.Contains(nc.Interfaces, to) {
			nc.Interfaces = append(nc.Interfaces, to)
		}
	}
	if c.NestHost != types.NoTypeID {
		if host, ok := f.view.LookupType(c.NestHost).Live(); ok && host != t {
			nc.NestHost = host
		}
	}
	for _, m := range c.NestMembers {
		if to, ok := f.view.LookupType(m).Live(); ok && to != t && !slices.Contains(nc.NestMembers, to) {
			nc.NestMembers = append(nc.NestMembers, to)
		}
	}
	for _, fd := range c.Fields {
		ref, ok := f.view.LookupField(fd.Ref).Live()
		if !ok || dst.fields[ref] {
			continue
		}
		dst.fields[ref] = true
		nc.Fields = append(nc.Fields, &graph.FieldDef{Ref: ref, Flags: fd.Flags, Annotations: slices.Clone(fd.Annotations)})
	}
	for _, m := range c.Methods {
		f.fixMethod(dst, m)
	}
}

func (f *fixer) fixMethod(dst *target, m *graph.MethodDef) {
	ref, ok := f.view.LookupMethod(m.Ref, types.InvokeDirect).Live()
	if !ok {
		return
	}
	if ref.Holder != dst.class.Type {
		invariant.Failf("fixup.Apply", f.in.MethodString(m.Ref), "moved to %s outside its class", f.in.MethodString(ref))
	}
	nm := &graph.MethodDef{Ref: ref, Flags: m.Flags, Code: m.Code, Annotations: slices.Clone(m.Annotations)}
	prev, dup := dst.sources[ref]
	if !dup {
		dst.sources[ref] = m.Ref
		dst.class.Methods = append(dst.class.Methods, nm)
		return
	}
	if prev == ref || m.Ref != ref {
		return
	}
	dst.sources[ref] = m.Ref
	for i, existing := range dst.class.Methods {
		if existing.Ref == ref {
			dst.class.Methods[i] = nm
		}
	}
}

func (f *fixer) liveType(c *graph.ClassDef, t types.TypeID) types.TypeID {
	if t == types.NoTypeID {
		return t
	}
	to, ok := f.view.LookupType(t).Live()
	if !ok {
		invariant.Failf("fixup.Apply", f.in.Descriptor(c.Type), "super type %s was removed", f.in.Descriptor(t))
	}
	return to
}
