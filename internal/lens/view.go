package lens

import (
	"shrinker/internal/invariant"
	"shrinker/internal/types"
)

// Lens is the rewrite function facts are brought forward with.
type Lens interface {
	IsIdentity() bool
	LookupType(t types.TypeID) Lookup[types.TypeID]
	LookupMethod(m types.MethodRef, kind types.InvokeKind) MethodLookup
	LookupField(f types.FieldRef) Lookup[types.FieldRef]
	RewriteProto(p types.ProtoID) types.ProtoID
}

// View rewrites identities from version From to version To by applying the
// steps in between in order.
type View struct {
	steps    []*Step
	from, to int
}

var _ Lens = View{}

func (v View) From() int { return v.from }
func (v View) To() int   { return v.to }

// IsIdentity reports whether the view spans no step.
func (v View) IsIdentity() bool { return len(v.steps) == 0 }

// Then composes v with next, which must start where v ends.
func (v View) Then(next View) View {
	if v.to != next.from {
		invariant.Failf("lens.Then", "", "cannot compose (%d, %d] with (%d, %d]", v.from, v.to, next.from, next.to)
	}
	steps := make([]*Step, 0, len(v.steps)+len(next.steps))
	steps = append(steps, v.steps...)
	steps = append(steps, next.steps...)
	return View{steps: steps, from: v.from, to: next.to}
}

func (v View) LookupType(t types.TypeID) Lookup[types.TypeID] {
	l := Lookup[types.TypeID]{Value: t}
	for _, s := range v.steps {
		if l.Removed {
			break
		}
		l = s.lookupType(l.Value)
	}
	return l
}

func (v View) LookupMethod(m types.MethodRef, kind types.InvokeKind) MethodLookup {
	l := MethodLookup{Method: m, Kind: kind}
	for _, s := range v.steps {
		if l.Removed {
			break
		}
		l = s.lookupMethod(l)
	}
	return l
}

func (v View) LookupField(f types.FieldRef) Lookup[types.FieldRef] {
	l := Lookup[types.FieldRef]{Value: f}
	for _, s := range v.steps {
		if l.Removed {
			break
		}
		l = s.lookupField(l)
	}
	return l
}

// RewriteProto rewrites the types of p through every step.
func (v View) RewriteProto(p types.ProtoID) types.ProtoID {
	for _, s := range v.steps {
		p = s.rewriteProto(p)
	}
	return p
}

// InitClassField returns the field an InitClass of t (a type at version To)
// is lowered to. Only a step in the view can have recorded one; asking the
// identity view is an invariant violation.
func (v View) InitClassField(t types.TypeID) (types.FieldRef, bool) {
	if v.IsIdentity() {
		invariant.Failf("lens.InitClassField", "", "identity lens has no init-class fields (version %d)", v.to)
	}
	for i := len(v.steps) - 1; i >= 0; i-- {
		s := v.steps[i]
		if f, ok := s.initClass[t]; ok {
			rest := View{steps: v.steps[i+1:], from: v.from + i + 1, to: v.to}
			l := rest.LookupField(f)
			return l.Value, !l.Removed
		}
		t = s.previousType(t)
	}
	return types.FieldRef{}, false
}
