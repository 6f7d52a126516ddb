// Package testkit builds small class hierarchies for tests and checks
// structural invariants of graphs.
package testkit

import (
	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// World accumulates class definitions for one test graph. java/lang/Object
// is always present.
type World struct {
	In      *types.Interner
	classes []*graph.ClassDef
	version int
}

// NewWorld returns a world containing only java/lang/Object.
func NewWorld() *World {
	in := types.NewInterner()
	w := &World{In: in}
	w.classes = append(w.classes, graph.NewObjectClass(in))
	return w
}

// AtVersion sets the version of graphs built from w.
func (w *World) AtVersion(v int) *World {
	w.version = v
	return w
}

// Class declares a class. super "" means java/lang/Object; pass "-" for no
// super class.
func (w *World) Class(desc string, prov graph.Provenance, flags graph.AccessFlags, super string, ifaces ...string) *graph.ClassDef {
	c := graph.NewClass(w.In.MustType(desc), prov, flags)
	switch super {
	case "":
		c.Super = w.In.Builtins().Object
	case "-":
	default:
		c.Super = w.In.MustType(super)
	}
	for _, i := range ifaces {
		c.Interfaces = append(c.Interfaces, w.In.MustType(i))
	}
	w.classes = append(w.classes, c)
	return c
}

// Program declares a public program class.
func (w *World) Program(desc, super string, ifaces ...string) *graph.ClassDef {
	return w.Class(desc, graph.Program, graph.AccPublic, super, ifaces...)
}

// Interface declares a public interface with the given provenance.
func (w *World) Interface(desc string, prov graph.Provenance, ifaces ...string) *graph.ClassDef {
	return w.Class(desc, prov, graph.AccPublic|graph.AccInterface|graph.AccAbstract, "", ifaces...)
}

// Method declares a method on c.
func (w *World) Method(c *graph.ClassDef, name, proto string, flags graph.AccessFlags, ops ...graph.Op) *graph.MethodDef {
	m := &graph.MethodDef{
		Ref:   types.MethodRef{Holder: c.Type, Name: w.In.Intern(name), Proto: w.In.MustProto(proto)},
		Flags: flags,
	}
	if len(ops) > 0 {
		m.Code = &graph.Code{Version: w.version, Ops: ops}
	}
	c.Methods = append(c.Methods, m)
	return m
}

// Field declares a field on c.
func (w *World) Field(c *graph.ClassDef, name, typ string, flags graph.AccessFlags) *graph.FieldDef {
	f := &graph.FieldDef{
		Ref:   types.FieldRef{Holder: c.Type, Name: w.In.Intern(name), Type: w.In.MustType(typ)},
		Flags: flags,
	}
	c.Fields = append(c.Fields, f)
	return f
}

// Type interns a descriptor.
func (w *World) Type(desc string) types.TypeID { return w.In.MustType(desc) }

// Ref parses "LA;->m()V".
func (w *World) Ref(s string) types.MethodRef {
	ref, err := w.In.ParseMethodRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// FieldRef parses "LA;->f:I".
func (w *World) FieldRef(s string) types.FieldRef {
	ref, err := w.In.ParseFieldRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// Build adds every declared class to a fresh builder.
func (w *World) Build() *graph.Graph {
	b := graph.NewBuilder(w.In).WithVersion(w.version)
	for _, c := range w.classes {
		b.Add(c)
	}
	return b.Build()
}
