package resolve

import (
	"slices"

	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// resolveField implements JVMS 5.4.3.2: the holder, then its
// superinterfaces recursively, then its super class.
func (e *Engine) resolveField(ref types.FieldRef, ctx Context, kind Kind) Outcome {
	initial, ok := e.g.Definition(ref.Holder)
	if !ok {
		return failure(NoSuchMember, ReasonClassNotFound, nil)
	}
	if !e.classAccessible(initial, ctx) {
		return failure(IllegalAccess, ReasonNone, initial)
	}
	holder, f, path := e.lookupField(initial, ref, nil, make(map[types.TypeID]bool))
	if f == nil {
		return failure(NoSuchMember, ReasonNotDeclared, initial)
	}
	out := fieldSuccess(initial, holder, f, path)
	if f.IsStatic() != (kind == types.InvokeStatic) {
		out.Tag = IncompatibleClassChange
		return out
	}
	return e.checkAccess(out, f.Flags, ctx)
}

func (e *Engine) lookupField(c *graph.ClassDef, ref types.FieldRef, path []types.TypeID, seen map[types.TypeID]bool) (*graph.ClassDef, *graph.FieldDef, []types.TypeID) {
	if seen[c.Type] {
		return nil, nil, nil
	}
	seen[c.Type] = true
	path = append(slices.Clip(path), c.Type)
	if f := c.Field(ref.Name, ref.Type); f != nil {
		return c, f, path
	}
	for _, i := range c.Interfaces {
		def, ok := e.g.Definition(i)
		if !ok || !e.g.MayWalkInto(c, def) {
			continue
		}
		if h, f, p := e.lookupField(def, ref, path, seen); f != nil {
			return h, f, p
		}
	}
	if c.Super != types.NoTypeID {
		if def, ok := e.g.Definition(c.Super); ok && e.g.MayWalkInto(c, def) {
			return e.lookupField(def, ref, path, seen)
		}
	}
	return nil, nil, nil
}
