package graph

import "shrinker/internal/types"

// Provenance tags where a class definition came from.
type Provenance uint8

const (
	Program Provenance = iota + 1
	Classpath
	Library
)

func (p Provenance) String() string {
	switch p {
	case Program:
		return "program"
	case Classpath:
		return "classpath"
	case Library:
		return "library"
	default:
		return "invalid"
	}
}

// ParseProvenance maps "program", "classpath" or "library".
func ParseProvenance(s string) (Provenance, bool) {
	switch s {
	case "program", "":
		return Program, true
	case "classpath":
		return Classpath, true
	case "library":
		return Library, true
	default:
		return 0, false
	}
}

// ClassDef is one class of the graph. Its provenance is fixed at creation.
type ClassDef struct {
	Type        types.TypeID
	Flags       AccessFlags
	Super       types.TypeID
	Interfaces  []types.TypeID
	NestHost    types.TypeID
	NestMembers []types.TypeID
	Fields      []*FieldDef
	Methods     []*MethodDef
	Annotations []string

	provenance Provenance
}

// NewClass creates an empty definition of t.
func NewClass(t types.TypeID, prov Provenance, flags AccessFlags) *ClassDef {
	return &ClassDef{Type: t, Flags: flags, provenance: prov}
}

func (c *ClassDef) Provenance() Provenance   { return c.provenance }
func (c *ClassDef) AccessFlags() AccessFlags { return c.Flags }
func (c *ClassDef) IsInterface() bool        { return c.Flags.IsInterface() }
func (c *ClassDef) IsAbstract() bool         { return c.Flags.IsAbstract() }
func (c *ClassDef) IsProgram() bool          { return c.provenance == Program }
func (c *ClassDef) IsLibrary() bool          { return c.provenance == Library }

// Method returns the method declared on c with the given signature.
func (c *ClassDef) Method(name types.StringID, proto types.ProtoID) *MethodDef {
	for _, m := range c.Methods {
		if m.Ref.Name == name && m.Ref.Proto == proto {
			return m
		}
	}
	return nil
}

// VirtualMethod returns the declared method with the signature if it
// participates in dispatch.
func (c *ClassDef) VirtualMethod(name types.StringID, proto types.ProtoID) *MethodDef {
	if m := c.Method(name, proto); m != nil && m.IsVirtual() {
		return m
	}
	return nil
}

// Field returns the field declared on c with the given name and type.
func (c *ClassDef) Field(name types.StringID, typ types.TypeID) *FieldDef {
	for _, f := range c.Fields {
		if f.Ref.Name == name && f.Ref.Type == typ {
			return f
		}
	}
	return nil
}

// Nest returns the nest host of c; a class without attributes hosts itself.
func (c *ClassDef) Nest() types.TypeID {
	if c.NestHost != types.NoTypeID {
		return c.NestHost
	}
	return c.Type
}

// Supertypes returns the super class (if any) followed by the interfaces.
func (c *ClassDef) Supertypes() []types.TypeID {
	out := make([]types.TypeID, 0, len(c.Interfaces)+1)
	if c.Super != types.NoTypeID {
		out = append(out, c.Super)
	}
	return append(out, c.Interfaces...)
}

// Clone returns a deep copy with the same provenance.
func (c *ClassDef) Clone() *ClassDef {
	cp := *c
	cp.Interfaces = append([]types.TypeID(nil), c.Interfaces...)
	cp.NestMembers = append([]types.TypeID(nil), c.NestMembers...)
	cp.Annotations = append([]string(nil), c.Annotations...)
	cp.Fields = make([]*FieldDef, len(c.Fields))
	for i, f := range c.Fields {
		cp.Fields[i] = f.clone()
	}
	cp.Methods = make([]*MethodDef, len(c.Methods))
	for i, m := range c.Methods {
		cp.Methods[i] = m.clone()
	}
	return &cp
}
