package graph

import "shrinker/internal/types"

// IsSubtype reports whether sub is sup or inherits from it. Missing classes
// end the walk; every class and array type is a subtype of java/lang/Object,
// primitives are not.
func (g *Graph) IsSubtype(sub, sup types.TypeID) bool {
	if sub == sup {
		return true
	}
	if sup == g.in.Builtins().Object {
		t, ok := g.in.Lookup(sub)
		return ok && (t.Kind == types.KindClass || t.Kind == types.KindArray)
	}
	seen := make(map[types.TypeID]bool)
	stack := []types.TypeID{sub}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		c, ok := g.Definition(cur)
		if !ok {
			continue
		}
		for _, s := range c.Supertypes() {
			if s == sup {
				return true
			}
			stack = append(stack, s)
		}
	}
	return false
}

// IsStrictSubtype reports IsSubtype(sub, sup) && sub != sup.
func (g *Graph) IsStrictSubtype(sub, sup types.TypeID) bool {
	return sub != sup && g.IsSubtype(sub, sup)
}

// SuperClasses returns the class chain above t, nearest first. The walk
// stops at a missing class and, when t is a library class, at the first
// non-library super class.
func (g *Graph) SuperClasses(t types.TypeID) []*ClassDef {
	c, ok := g.Definition(t)
	if !ok {
		return nil
	}
	var out []*ClassDef
	seen := map[types.TypeID]bool{t: true}
	for c.Super != types.NoTypeID && !seen[c.Super] {
		next, ok := g.Definition(c.Super)
		if !ok || !g.MayWalkInto(c, next) {
			break
		}
		seen[next.Type] = true
		out = append(out, next)
		c = next
	}
	return out
}

// MayWalkInto reports whether a hierarchy walk currently at from may
// continue into its supertype to. Library definitions only see library
// supertypes.
func (g *Graph) MayWalkInto(from, to *ClassDef) bool {
	return !from.IsLibrary() || to.IsLibrary()
}

// NestHost returns the host of t's nest. A claimed host that is missing or
// does not list t as a member is ignored and t hosts itself.
func (g *Graph) NestHost(t types.TypeID) types.TypeID {
	c, ok := g.Definition(t)
	if !ok || c.NestHost == types.NoTypeID || c.NestHost == t {
		return t
	}
	host, ok := g.Definition(c.NestHost)
	if !ok {
		return t
	}
	for _, m := range host.NestMembers {
		if m == t {
			return host.Type
		}
	}
	return t
}

// SameNest reports whether a and b share a nest host.
func (g *Graph) SameNest(a, b types.TypeID) bool {
	return a == b || g.NestHost(a) == g.NestHost(b)
}
