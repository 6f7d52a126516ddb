package graph

import "shrinker/internal/types"

// MethodDef is a declared method. Ref.Holder always equals the declaring
// class type.
type MethodDef struct {
	Ref         types.MethodRef
	Flags       AccessFlags
	Code        *Code
	Annotations []string
}

func (m *MethodDef) AccessFlags() AccessFlags { return m.Flags }

func (m *MethodDef) IsStatic() bool   { return m.Flags.IsStatic() }
func (m *MethodDef) IsPrivate() bool  { return m.Flags.IsPrivate() }
func (m *MethodDef) IsAbstract() bool { return m.Flags.IsAbstract() }

// IsInitializer reports constructors and class initializers.
func (m *MethodDef) IsInitializer() bool { return m.Flags.Has(AccConstructor) }

// IsVirtual reports whether calls to m dispatch on the receiver.
func (m *MethodDef) IsVirtual() bool {
	return !m.IsStatic() && !m.IsPrivate() && !m.IsInitializer()
}

// clone copies m so a fixer can rewrite it without touching the previous
// graph.
func (m *MethodDef) clone() *MethodDef {
	cp := *m
	cp.Annotations = append([]string(nil), m.Annotations...)
	return &cp
}

// FieldDef is a declared field.
type FieldDef struct {
	Ref         types.FieldRef
	Flags       AccessFlags
	Annotations []string
}

func (f *FieldDef) AccessFlags() AccessFlags { return f.Flags }

func (f *FieldDef) IsStatic() bool { return f.Flags.IsStatic() }

func (f *FieldDef) clone() *FieldDef {
	cp := *f
	cp.Annotations = append([]string(nil), f.Annotations...)
	return &cp
}
