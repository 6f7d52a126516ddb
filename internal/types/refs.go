package types

import (
	"cmp"
	"fmt"
	"strings"
)

// MethodRef is a symbolic method reference. It may name a method that no
// definition declares.
type MethodRef struct {
	Holder TypeID
	Name   StringID
	Proto  ProtoID
}

// WithHolder returns the same signature on another holder.
func (m MethodRef) WithHolder(h TypeID) MethodRef {
	m.Holder = h
	return m
}

// SameSignature reports whether m and o agree on name and prototype.
func (m MethodRef) SameSignature(o MethodRef) bool {
	return m.Name == o.Name && m.Proto == o.Proto
}

// FieldRef is a symbolic field reference.
type FieldRef struct {
	Holder TypeID
	Name   StringID
	Type   TypeID
}

// WithHolder returns the same field signature on another holder.
func (f FieldRef) WithHolder(h TypeID) FieldRef {
	f.Holder = h
	return f
}

// CompareMethodRefs orders references by interned ids. The order is stable
// within one interner, which is all determinism needs.
func CompareMethodRefs(a, b MethodRef) int {
	if c := cmp.Compare(a.Holder, b.Holder); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Proto, b.Proto)
}

// CompareFieldRefs orders field references by interned ids.
func CompareFieldRefs(a, b FieldRef) int {
	if c := cmp.Compare(a.Holder, b.Holder); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Type, b.Type)
}

// IsInitializer reports whether m names an instance or class initializer.
func (in *Interner) IsInitializer(m MethodRef) bool {
	return m.Name == in.builtins.Init || m.Name == in.builtins.Clinit
}

// Method builds a reference from textual parts.
func (in *Interner) Method(holder, name, proto string) (MethodRef, error) {
	h, err := in.ParseType(holder)
	if err != nil {
		return MethodRef{}, err
	}
	p, err := in.ParseProto(proto)
	if err != nil {
		return MethodRef{}, err
	}
	if name == "" {
		return MethodRef{}, fmt.Errorf("empty method name on %s", holder)
	}
	return MethodRef{Holder: h, Name: in.Intern(name), Proto: p}, nil
}

// Field builds a field reference from textual parts.
func (in *Interner) Field(holder, name, typ string) (FieldRef, error) {
	h, err := in.ParseType(holder)
	if err != nil {
		return FieldRef{}, err
	}
	t, err := in.ParseType(typ)
	if err != nil {
		return FieldRef{}, err
	}
	if t == in.builtins.Void {
		return FieldRef{}, fmt.Errorf("field %s of type void", name)
	}
	if name == "" {
		return FieldRef{}, fmt.Errorf("empty field name on %s", holder)
	}
	return FieldRef{Holder: h, Name: in.Intern(name), Type: t}, nil
}

// ParseMethodRef parses "LHolder;->name(params)ret".
func (in *Interner) ParseMethodRef(s string) (MethodRef, error) {
	holder, rest, ok := strings.Cut(strings.TrimSpace(s), "->")
	if !ok {
		return MethodRef{}, fmt.Errorf("method reference %q: missing ->", s)
	}
	i := strings.IndexByte(rest, '(')
	if i < 0 {
		return MethodRef{}, fmt.Errorf("method reference %q: missing prototype", s)
	}
	ref, err := in.Method(holder, rest[:i], rest[i:])
	if err != nil {
		return MethodRef{}, fmt.Errorf("method reference %q: %w", s, err)
	}
	return ref, nil
}

// ParseFieldRef parses "LHolder;->name:type".
func (in *Interner) ParseFieldRef(s string) (FieldRef, error) {
	holder, rest, ok := strings.Cut(strings.TrimSpace(s), "->")
	if !ok {
		return FieldRef{}, fmt.Errorf("field reference %q: missing ->", s)
	}
	name, typ, ok := strings.Cut(rest, ":")
	if !ok {
		return FieldRef{}, fmt.Errorf("field reference %q: missing type", s)
	}
	ref, err := in.Field(holder, name, typ)
	if err != nil {
		return FieldRef{}, fmt.Errorf("field reference %q: %w", s, err)
	}
	return ref, nil
}

// MethodString renders m in the same syntax ParseMethodRef accepts.
func (in *Interner) MethodString(m MethodRef) string {
	return in.Descriptor(m.Holder) + "->" + in.String(m.Name) + in.ProtoDescriptor(m.Proto)
}

// FieldString renders f in the same syntax ParseFieldRef accepts.
func (in *Interner) FieldString(f FieldRef) string {
	return in.Descriptor(f.Holder) + "->" + in.String(f.Name) + ":" + in.Descriptor(f.Type)
}
