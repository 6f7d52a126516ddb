package graph

import (
	"fmt"
	"slices"

	"shrinker/internal/diag"
	"shrinker/internal/invariant"
	"shrinker/internal/types"
)

// Builder assembles a Graph. It is not safe for concurrent use.
type Builder struct {
	in       *types.Interner
	version  int
	classes  map[types.TypeID]*ClassDef
	reporter diag.Reporter
}

// NewBuilder creates a builder for a version 0 graph.
func NewBuilder(in *types.Interner) *Builder {
	return &Builder{
		in:       in,
		classes:  make(map[types.TypeID]*ClassDef),
		reporter: diag.NopReporter{},
	}
}

// WithVersion sets the lens version of the graph being built.
func (b *Builder) WithVersion(v int) *Builder {
	b.version = v
	return b
}

// WithReporter sets where model problems are reported.
func (b *Builder) WithReporter(r diag.Reporter) *Builder {
	if r != nil {
		b.reporter = r
	}
	return b
}

// Add registers c. When t is already defined the definition with the
// stronger provenance wins (program, then classpath, then library; the
// first one on a tie) and the shadowed one is reported. Add reports
// whether c was kept.
func (b *Builder) Add(c *ClassDef) bool {
	if c.provenance == 0 {
		invariant.Failf("graph.Add", b.in.Descriptor(c.Type), "class without provenance")
	}
	b.markInitializers(c)
	prev, dup := b.classes[c.Type]
	if !dup {
		b.classes[c.Type] = c
		return true
	}
	keep, drop := prev, c
	if c.provenance < prev.provenance {
		keep, drop = c, prev
	}
	b.classes[c.Type] = keep
	diag.ReportWarning(b.reporter, diag.GraphDuplicateClass,
		diag.Location{Subject: b.in.Descriptor(c.Type)},
		fmt.Sprintf("%s definition shadows %s definition", keep.provenance, drop.provenance))
	return keep == c
}

func (b *Builder) markInitializers(c *ClassDef) {
	builtins := b.in.Builtins()
	for _, m := range c.Methods {
		if m.Ref.Name == builtins.Init || m.Ref.Name == builtins.Clinit {
			m.Flags |= AccConstructor
		}
	}
}

// Build validates the classes and returns the graph. A member whose holder
// differs from its class is fatal; other problems are reported.
func (b *Builder) Build() *Graph {
	g := &Graph{
		in:      b.in,
		version: b.version,
		classes: make(map[types.TypeID]*ClassDef, len(b.classes)),
		order:   make([]types.TypeID, 0, len(b.classes)),
	}
	for t, c := range b.classes {
		b.checkMembers(c)
		g.classes[t] = c
		g.order = append(g.order, t)
	}
	slices.SortFunc(g.order, g.compareTypes)
	for _, t := range g.order {
		b.checkHierarchy(g, g.classes[t])
	}
	return g
}

func (b *Builder) checkMembers(c *ClassDef) {
	desc := b.in.Descriptor(c.Type)
	seenMethods := make(map[types.MethodRef]bool, len(c.Methods))
	methods := c.Methods[:0]
	for _, m := range c.Methods {
		if m.Ref.Holder != c.Type {
			invariant.Failf("graph.Build", desc, "method %s has holder %s", b.in.MethodString(m.Ref), b.in.Descriptor(m.Ref.Holder))
		}
		if seenMethods[m.Ref] {
			diag.ReportWarning(b.reporter, diag.GraphDuplicateMember, diag.Location{Subject: b.in.MethodString(m.Ref)}, "later declaration dropped")
			continue
		}
		seenMethods[m.Ref] = true
		methods = append(methods, m)
	}
	c.Methods = methods

	seenFields := make(map[types.FieldRef]bool, len(c.Fields))
	fields := c.Fields[:0]
	for _, f := range c.Fields {
		if f.Ref.Holder != c.Type {
			invariant.Failf("graph.Build", desc, "field %s has holder %s", b.in.FieldString(f.Ref), b.in.Descriptor(f.Ref.Holder))
		}
		if seenFields[f.Ref] {
			diag.ReportWarning(b.reporter, diag.GraphDuplicateMember, diag.Location{Subject: b.in.FieldString(f.Ref)}, "later declaration dropped")
			continue
		}
		seenFields[f.Ref] = true
		fields = append(fields, f)
	}
	c.Fields = fields
}

func (b *Builder) checkHierarchy(g *Graph, c *ClassDef) {
	desc := b.in.Descriptor(c.Type)
	if c.Super != types.NoTypeID {
		sup, ok := g.classes[c.Super]
		switch {
		case !ok:
			diag.ReportWarning(b.reporter, diag.GraphMissingSuper, diag.Location{Subject: desc}, b.in.Descriptor(c.Super))
		case c.IsLibrary() && !sup.IsLibrary():
			diag.ReportWarning(b.reporter, diag.GraphLibraryExtendsUser, diag.Location{Subject: desc}, b.in.Descriptor(c.Super))
		}
	}
	for _, i := range c.Interfaces {
		if _, ok := g.classes[i]; !ok {
			diag.ReportWarning(b.reporter, diag.GraphMissingInterface, diag.Location{Subject: desc}, b.in.Descriptor(i))
		}
	}
	if c.NestHost != types.NoTypeID && c.NestHost != c.Type && g.NestHost(c.Type) == c.Type {
		diag.ReportWarning(b.reporter, diag.GraphNestHostMismatch, diag.Location{Subject: desc}, b.in.Descriptor(c.NestHost))
	}
}
