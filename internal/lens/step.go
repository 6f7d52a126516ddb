package lens

import "shrinker/internal/types"

// Step is the immutable identity mapping of one committed pass.
type Step struct {
	name string
	in   *types.Interner

	types        map[types.TypeID]types.TypeID
	removedTypes map[types.TypeID]bool
	prevTypes    map[types.TypeID]types.TypeID

	methods        map[types.MethodRef]types.MethodRef
	removedMethods map[types.MethodRef]bool
	protoChanges   map[types.MethodRef]ProtoChange
	prevMethods    map[types.MethodRef]types.MethodRef

	fields        map[types.FieldRef]types.FieldRef
	removedFields map[types.FieldRef]bool
	prevFields    map[types.FieldRef]types.FieldRef

	holderKinds map[types.TypeID]bool
	initClass   map[types.TypeID]types.FieldRef
}

func newStep(in *types.Interner, name string) *Step {
	return &Step{
		name:           name,
		in:             in,
		types:          make(map[types.TypeID]types.TypeID),
		removedTypes:   make(map[types.TypeID]bool),
		prevTypes:      make(map[types.TypeID]types.TypeID),
		methods:        make(map[types.MethodRef]types.MethodRef),
		removedMethods: make(map[types.MethodRef]bool),
		protoChanges:   make(map[types.MethodRef]ProtoChange),
		prevMethods:    make(map[types.MethodRef]types.MethodRef),
		fields:         make(map[types.FieldRef]types.FieldRef),
		removedFields:  make(map[types.FieldRef]bool),
		prevFields:     make(map[types.FieldRef]types.FieldRef),
		holderKinds:    make(map[types.TypeID]bool),
		initClass:      make(map[types.TypeID]types.FieldRef),
	}
}

// Name is the name of the pass that produced the step.
func (s *Step) Name() string { return s.name }

// IsEmpty reports whether the step maps nothing.
func (s *Step) IsEmpty() bool {
	return len(s.types) == 0 && len(s.removedTypes) == 0 &&
		len(s.methods) == 0 && len(s.removedMethods) == 0 &&
		len(s.fields) == 0 && len(s.removedFields) == 0 &&
		len(s.holderKinds) == 0 && len(s.initClass) == 0
}

// MappedTypes returns the explicit type mapping of the step.
func (s *Step) MappedTypes() map[types.TypeID]types.TypeID {
	out := make(map[types.TypeID]types.TypeID, len(s.types))
	for k, v := range s.types {
		out[k] = v
	}
	return out
}

// RemovedType reports whether the step removes t. An array type is removed
// with its element type.
func (s *Step) RemovedType(t types.TypeID) bool {
	for {
		if s.removedTypes[t] {
			return true
		}
		tt, ok := s.in.Lookup(t)
		if !ok || tt.Kind != types.KindArray {
			return false
		}
		t = tt.Elem
	}
}

func (s *Step) rewriteType(t types.TypeID) types.TypeID {
	if to, ok := s.types[t]; ok {
		return to
	}
	tt, ok := s.in.Lookup(t)
	if !ok || tt.Kind != types.KindArray {
		return t
	}
	elem := s.rewriteType(tt.Elem)
	if elem == tt.Elem {
		return t
	}
	return s.in.MustType("[" + s.in.Descriptor(elem))
}

func (s *Step) lookupType(t types.TypeID) Lookup[types.TypeID] {
	if s.RemovedType(t) {
		return Lookup[types.TypeID]{Value: t, Removed: true}
	}
	return Lookup[types.TypeID]{Value: s.rewriteType(t)}
}

func (s *Step) rewriteProto(p types.ProtoID) types.ProtoID {
	return mapProto(s.in, p, s.rewriteType)
}

func mapProto(in *types.Interner, p types.ProtoID, f func(types.TypeID) types.TypeID) types.ProtoID {
	proto, ok := in.Proto(p)
	if !ok {
		return p
	}
	changed := false
	params := make([]types.TypeID, len(proto.Params))
	for i, t := range proto.Params {
		params[i] = f(t)
		changed = changed || params[i] != t
	}
	ret := f(proto.Return)
	if !changed && ret == proto.Return {
		return p
	}
	return in.InternProto(ret, params...)
}

func (s *Step) lookupMethod(l MethodLookup) MethodLookup {
	if l.Removed {
		return l
	}
	m := l.Method
	switch {
	case s.removedMethods[m] || s.RemovedType(m.Holder):
		l.Removed = true
		return l
	case s.hasMethod(m):
		l.Method = s.methods[m]
		if c, ok := s.protoChanges[m]; ok {
			l.Changes = append(append([]ProtoChange(nil), l.Changes...), c)
		}
	default:
		l.Method = types.MethodRef{Holder: s.rewriteType(m.Holder), Name: m.Name, Proto: s.rewriteProto(m.Proto)}
	}
	if l.Kind == types.InvokeVirtual || l.Kind == types.InvokeInterface {
		if iface, ok := s.holderKinds[l.Method.Holder]; ok {
			l.Kind = types.InvokeVirtual
			if iface {
				l.Kind = types.InvokeInterface
			}
		}
	}
	return l
}

func (s *Step) hasMethod(m types.MethodRef) bool {
	_, ok := s.methods[m]
	return ok
}

func (s *Step) lookupField(l Lookup[types.FieldRef]) Lookup[types.FieldRef] {
	if l.Removed {
		return l
	}
	f := l.Value
	if s.removedFields[f] || s.removedTypes[f.Holder] {
		l.Removed = true
		return l
	}
	if to, ok := s.fields[f]; ok {
		l.Value = to
		return l
	}
	l.Value = types.FieldRef{Holder: s.rewriteType(f.Holder), Name: f.Name, Type: s.rewriteType(f.Type)}
	return l
}

func (s *Step) previousType(t types.TypeID) types.TypeID {
	if from, ok := s.prevTypes[t]; ok {
		return from
	}
	tt, ok := s.in.Lookup(t)
	if !ok || tt.Kind != types.KindArray {
		return t
	}
	elem := s.previousType(tt.Elem)
	if elem == tt.Elem {
		return t
	}
	return s.in.MustType("[" + s.in.Descriptor(elem))
}

func (s *Step) previousMethod(m types.MethodRef) types.MethodRef {
	if from, ok := s.prevMethods[m]; ok {
		return from
	}
	return types.MethodRef{Holder: s.previousType(m.Holder), Name: m.Name, Proto: mapProto(s.in, m.Proto, s.previousType)}
}

func (s *Step) previousField(f types.FieldRef) types.FieldRef {
	if from, ok := s.prevFields[f]; ok {
		return from
	}
	return types.FieldRef{Holder: s.previousType(f.Holder), Name: f.Name, Type: s.previousType(f.Type)}
}
