package testkit

import (
	"fmt"
	"slices"

	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// CheckGraphInvariants runs the structural checks every graph must pass:
// 1) every class has a valid provenance
// 2) every member's holder is its declaring class
// 3) every defined supertype lists the class among its direct subtypes
// 4) no signature is declared twice on a class
func CheckGraphInvariants(g *graph.Graph) error {
	if g == nil {
		return fmt.Errorf("nil graph")
	}
	in := g.Interner()
	for _, c := range g.Classes() {
		desc := in.Descriptor(c.Type)
		switch c.Provenance() {
		case graph.Program, graph.Classpath, graph.Library:
		default:
			return fmt.Errorf("%s: invalid provenance %d", desc, c.Provenance())
		}
		methods := make(map[types.MethodRef]bool, len(c.Methods))
		for _, m := range c.Methods {
			if m.Ref.Holder != c.Type {
				return fmt.Errorf("%s: method %s has foreign holder", desc, in.MethodString(m.Ref))
			}
			if methods[m.Ref] {
				return fmt.Errorf("%s: method %s declared twice", desc, in.MethodString(m.Ref))
			}
			methods[m.Ref] = true
		}
		fields := make(map[types.FieldRef]bool, len(c.Fields))
		for _, f := range c.Fields {
			if f.Ref.Holder != c.Type {
				return fmt.Errorf("%s: field %s has foreign holder", desc, in.FieldString(f.Ref))
			}
			if fields[f.Ref] {
				return fmt.Errorf("%s: field %s declared twice", desc, in.FieldString(f.Ref))
			}
			fields[f.Ref] = true
		}
		for _, sup := range c.Supertypes() {
			if _, ok := g.Definition(sup); !ok {
				continue
			}
			if !slices.Contains(g.DirectSubtypes(sup), c.Type) {
				return fmt.Errorf("%s: missing from subtypes of %s", desc, in.Descriptor(sup))
			}
		}
	}
	return nil
}
