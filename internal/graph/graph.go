package graph

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"shrinker/internal/invariant"
	"shrinker/internal/types"
)

// Graph is the immutable definition graph of one snapshot.
type Graph struct {
	in      *types.Interner
	version int
	classes map[types.TypeID]*ClassDef
	order   []types.TypeID

	subtypesOnce sync.Once
	subtypes     map[types.TypeID][]types.TypeID

	discarded atomic.Bool
}

// Interner returns the interner the graph's identities belong to.
func (g *Graph) Interner() *types.Interner { return g.in }

// Version is the lens chain version this graph corresponds to.
func (g *Graph) Version() int {
	g.checkLive("Version")
	return g.version
}

// Discard marks g superseded. Later queries are fatal.
func (g *Graph) Discard() { g.discarded.Store(true) }

// Discarded reports whether Discard was called.
func (g *Graph) Discarded() bool { return g.discarded.Load() }

func (g *Graph) checkLive(op string) {
	if g.discarded.Load() {
		invariant.Failf("graph."+op, "", "query against discarded graph of version %d", g.version)
	}
}

// Definition returns the class defined for t.
func (g *Graph) Definition(t types.TypeID) (*ClassDef, bool) {
	g.checkLive("Definition")
	c, ok := g.classes[t]
	return c, ok
}

// Len returns the number of classes.
func (g *Graph) Len() int { return len(g.order) }

// Classes returns every class ordered by descriptor.
func (g *Graph) Classes() []*ClassDef {
	g.checkLive("Classes")
	out := make([]*ClassDef, len(g.order))
	for i, t := range g.order {
		out[i] = g.classes[t]
	}
	return out
}

// ProgramClasses returns program classes ordered by descriptor.
func (g *Graph) ProgramClasses() []*ClassDef {
	g.checkLive("ProgramClasses")
	out := make([]*ClassDef, 0, len(g.order))
	for _, t := range g.order {
		if c := g.classes[t]; c.IsProgram() {
			out = append(out, c)
		}
	}
	return out
}

// MethodDefinition returns the method declared exactly at ref.
func (g *Graph) MethodDefinition(ref types.MethodRef) (*MethodDef, bool) {
	c, ok := g.Definition(ref.Holder)
	if !ok {
		return nil, false
	}
	m := c.Method(ref.Name, ref.Proto)
	return m, m != nil
}

// FieldDefinition returns the field declared exactly at ref.
func (g *Graph) FieldDefinition(ref types.FieldRef) (*FieldDef, bool) {
	c, ok := g.Definition(ref.Holder)
	if !ok {
		return nil, false
	}
	f := c.Field(ref.Name, ref.Type)
	return f, f != nil
}

// DirectSubtypes returns the classes that name t as super class or
// interface, ordered by descriptor.
func (g *Graph) DirectSubtypes(t types.TypeID) []types.TypeID {
	g.checkLive("DirectSubtypes")
	g.subtypesOnce.Do(g.indexSubtypes)
	return g.subtypes[t]
}

// Subtypes returns t (when defined) and all of its transitive subtypes in
// breadth-first order.
func (g *Graph) Subtypes(t types.TypeID) []types.TypeID {
	seen := map[types.TypeID]bool{t: true}
	var out []types.TypeID
	if _, ok := g.Definition(t); ok {
		out = append(out, t)
	}
	queue := []types.TypeID{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range g.DirectSubtypes(cur) {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
			queue = append(queue, s)
		}
	}
	return out
}

func (g *Graph) indexSubtypes() {
	g.subtypes = make(map[types.TypeID][]types.TypeID)
	for _, t := range g.order {
		for _, sup := range g.classes[t].Supertypes() {
			g.subtypes[sup] = append(g.subtypes[sup], t)
		}
	}
	for k := range g.subtypes {
		slices.SortFunc(g.subtypes[k], g.compareTypes)
	}
}

func (g *Graph) compareTypes(a, b types.TypeID) int {
	return cmp.Compare(g.in.Descriptor(a), g.in.Descriptor(b))
}
