package lens

import (
	"shrinker/internal/invariant"
	"shrinker/internal/types"
)

// StepBuilder records the identity changes of one pass. Conflicting
// records (mapping a source twice, or mapping and removing it) are
// invariant violations.
type StepBuilder struct {
	s      *Step
	merges []methodMerge
	built  bool
}

type methodMerge struct {
	into types.MethodRef
	from types.MethodRef
}

// NewStep starts a step for the named pass.
func NewStep(in *types.Interner, name string) *StepBuilder {
	return &StepBuilder{s: newStep(in, name)}
}

func (b *StepBuilder) live(op string) *Step {
	if b.built {
		invariant.Failf("lens."+op, b.s.name, "step already built")
	}
	return b.s
}

// MapType renames from to to.
func (b *StepBuilder) MapType(from, to types.TypeID) *StepBuilder {
	s := b.live("MapType")
	b.checkTypeSource("MapType", from)
	s.types[from] = to
	if _, ok := s.prevTypes[to]; !ok {
		s.prevTypes[to] = from
	}
	return b
}

// MergeTypes maps every from type onto into, which keeps its identity.
func (b *StepBuilder) MergeTypes(into types.TypeID, from ...types.TypeID) *StepBuilder {
	s := b.live("MergeTypes")
	for _, f := range from {
		if f == into {
			continue
		}
		b.checkTypeSource("MergeTypes", f)
		s.types[f] = into
	}
	s.prevTypes[into] = into
	return b
}

// RemoveType removes t and, implicitly, all of its members.
func (b *StepBuilder) RemoveType(t types.TypeID) *StepBuilder {
	s := b.live("RemoveType")
	b.checkTypeSource("RemoveType", t)
	s.removedTypes[t] = true
	return b
}

func (b *StepBuilder) checkTypeSource(op string, t types.TypeID) {
	s := b.s
	if _, ok := s.types[t]; ok || s.removedTypes[t] {
		invariant.Failf("lens."+op, s.in.Descriptor(t), "type already mapped in step %q", s.name)
	}
}

// MoveMethod renames from to to. Any prototype difference must come from
// the step's type mapping; use ChangeProto otherwise.
func (b *StepBuilder) MoveMethod(from, to types.MethodRef) *StepBuilder {
	s := b.live("MoveMethod")
	b.checkMethodSource("MoveMethod", from)
	s.methods[from] = to
	if _, ok := s.prevMethods[to]; !ok {
		s.prevMethods[to] = from
	}
	b.merges = append(b.merges, methodMerge{into: to, from: from})
	return b
}

// ChangeProto moves from to to with an explicit prototype change.
func (b *StepBuilder) ChangeProto(from, to types.MethodRef, change ProtoChange) *StepBuilder {
	b.MoveMethod(from, to)
	if !change.IsEmpty() {
		b.s.protoChanges[from] = change
	}
	return b
}

// MergeMethods maps every from method onto into. A source whose prototype
// differs from into's after type rewriting needs an entry in changes.
func (b *StepBuilder) MergeMethods(into types.MethodRef, changes map[types.MethodRef]ProtoChange, from ...types.MethodRef) *StepBuilder {
	s := b.live("MergeMethods")
	for _, f := range from {
		if f == into {
			continue
		}
		b.checkMethodSource("MergeMethods", f)
		s.methods[f] = into
		if c, ok := changes[f]; ok && !c.IsEmpty() {
			s.protoChanges[f] = c
		}
		b.merges = append(b.merges, methodMerge{into: into, from: f})
	}
	s.prevMethods[into] = into
	return b
}

// RemoveMethod removes m.
func (b *StepBuilder) RemoveMethod(m types.MethodRef) *StepBuilder {
	s := b.live("RemoveMethod")
	b.checkMethodSource("RemoveMethod", m)
	s.removedMethods[m] = true
	return b
}

func (b *StepBuilder) checkMethodSource(op string, m types.MethodRef) {
	s := b.s
	if _, ok := s.methods[m]; ok || s.removedMethods[m] {
		invariant.Failf("lens."+op, s.in.MethodString(m), "method already mapped in step %q", s.name)
	}
}

// MoveField renames from to to.
func (b *StepBuilder) MoveField(from, to types.FieldRef) *StepBuilder {
	s := b.live("MoveField")
	b.checkFieldSource("MoveField", from)
	s.fields[from] = to
	if _, ok := s.prevFields[to]; !ok {
		s.prevFields[to] = from
	}
	return b
}

// MergeFields maps every from field onto into. Field types must agree
// after type rewriting.
func (b *StepBuilder) MergeFields(into types.FieldRef, from ...types.FieldRef) *StepBuilder {
	s := b.live("MergeFields")
	for _, f := range from {
		if f == into {
			continue
		}
		b.checkFieldSource("MergeFields", f)
		s.fields[f] = into
	}
	s.prevFields[into] = into
	return b
}

// RemoveField removes f.
func (b *StepBuilder) RemoveField(f types.FieldRef) *StepBuilder {
	s := b.live("RemoveField")
	b.checkFieldSource("RemoveField", f)
	s.removedFields[f] = true
	return b
}

func (b *StepBuilder) checkFieldSource(op string, f types.FieldRef) {
	s := b.s
	if _, ok := s.fields[f]; ok || s.removedFields[f] {
		invariant.Failf("lens."+op, s.in.FieldString(f), "field already mapped in step %q", s.name)
	}
}

// SetHolderKind records that t is an interface (or a class) after this
// step. Virtual and interface invokes against t are remapped accordingly.
func (b *StepBuilder) SetHolderKind(t types.TypeID, isInterface bool) *StepBuilder {
	b.live("SetHolderKind").holderKinds[t] = isInterface
	return b
}

// SetInitClassField records the static field an InitClass of t is lowered
// to.
func (b *StepBuilder) SetInitClassField(t types.TypeID, f types.FieldRef) *StepBuilder {
	b.live("SetInitClassField").initClass[t] = f
	return b
}

// Build validates the step and returns it. The builder cannot be used
// afterwards.
func (b *StepBuilder) Build() *Step {
	s := b.live("Build")
	for _, m := range b.merges {
		got := s.rewriteProto(m.from.Proto)
		if c, ok := s.protoChanges[m.from]; ok {
			got = c.Apply(s.in, got)
		}
		if got != m.into.Proto {
			invariant.Failf("lens.Build", s.in.MethodString(m.from),
				"maps to %s with prototype %s but no prototype change explains it",
				s.in.MethodString(m.into), s.in.ProtoDescriptor(got))
		}
	}
	for from, to := range s.fields {
		if s.rewriteType(from.Type) != to.Type {
			invariant.Failf("lens.Build", s.in.FieldString(from), "merged into %s of another type", s.in.FieldString(to))
		}
	}
	b.built = true
	return s
}
