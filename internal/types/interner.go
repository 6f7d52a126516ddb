package types

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores ids for the identities every graph needs.
type Builtins struct {
	Void   TypeID
	Int    TypeID
	Bool   TypeID
	Object TypeID
	String TypeID

	Init   StringID
	Clinit StringID
	Clone  StringID
}

// Interner hands out stable ids for names, type descriptors and prototypes.
// It is safe for concurrent use: passes intern new identities while other
// workers read existing ones.
type Interner struct {
	mu sync.RWMutex

	strings     []string
	stringIndex map[string]StringID

	types     []Type
	typeIndex map[string]TypeID

	protos     []Proto
	protoIndex map[string]ProtoID

	builtins Builtins
}

// NewInterner constructs an interner seeded with the well-known identities.
func NewInterner() *Interner {
	in := &Interner{
		strings:     []string{""},
		stringIndex: map[string]StringID{"": NoStringID},
		types:       []Type{{Kind: KindInvalid}},
		typeIndex:   make(map[string]TypeID, 64),
		protos:      []Proto{{}},
		protoIndex:  make(map[string]ProtoID, 64),
	}
	in.builtins.Void = in.MustType("V")
	in.builtins.Int = in.MustType("I")
	in.builtins.Bool = in.MustType("Z")
	in.builtins.Object = in.MustType("Ljava/lang/Object;")
	in.builtins.String = in.MustType("Ljava/lang/String;")
	in.builtins.Init = in.Intern("<init>")
	in.builtins.Clinit = in.Intern("<clinit>")
	in.builtins.Clone = in.Intern("clone")
	return in
}

// Builtins returns the well-known identities.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern returns the id of s, adding it if needed.
func (in *Interner) Intern(s string) StringID {
	in.mu.RLock()
	id, ok := in.stringIndex[s]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.stringIndex[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.strings))
	if err != nil {
		panic(fmt.Errorf("len(strings) overflow: %w", err))
	}
	cpy := strings.Clone(s)
	id = StringID(n)
	in.strings = append(in.strings, cpy)
	in.stringIndex[cpy] = id
	return id
}

// String returns the text behind id; unknown ids yield "".
func (in *Interner) String(id StringID) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.strings) {
		return ""
	}
	return in.strings[id]
}

// ParseType interns a JVM field descriptor.
func (in *Interner) ParseType(desc string) (TypeID, error) {
	in.mu.RLock()
	id, ok := in.typeIndex[desc]
	in.mu.RUnlock()
	if ok {
		return id, nil
	}
	t, err := in.classify(desc)
	if err != nil {
		return NoTypeID, err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.internTypeLocked(t), nil
}

// MustType is ParseType for descriptors known to be well formed.
func (in *Interner) MustType(desc string) TypeID {
	id, err := in.ParseType(desc)
	if err != nil {
		panic(err)
	}
	return id
}

// ClassType interns the class with the given binary name ("a/b/C").
func (in *Interner) ClassType(binaryName string) TypeID {
	return in.MustType("L" + binaryName + ";")
}

// classify validates desc and resolves the element of arrays. It runs
// without the lock because interning the element may take it.
func (in *Interner) classify(desc string) (Type, error) {
	if desc == "" {
		return Type{}, fmt.Errorf("empty type descriptor")
	}
	switch desc[0] {
	case 'V':
		if len(desc) != 1 {
			return Type{}, fmt.Errorf("malformed type descriptor %q", desc)
		}
		return Type{Kind: KindVoid, Descriptor: desc}, nil
	case 'Z', 'B', 'S', 'C', 'I', 'J', 'F', 'D':
		if len(desc) != 1 {
			return Type{}, fmt.Errorf("malformed type descriptor %q", desc)
		}
		return Type{Kind: KindPrimitive, Descriptor: desc}, nil
	case 'L':
		if len(desc) < 3 || desc[len(desc)-1] != ';' || strings.ContainsAny(desc[1:len(desc)-1], ";[.") {
			return Type{}, fmt.Errorf("malformed class descriptor %q", desc)
		}
		return Type{Kind: KindClass, Descriptor: desc}, nil
	case '[':
		if desc[1:] == "V" {
			return Type{}, fmt.Errorf("array of void in %q", desc)
		}
		elem, err := in.ParseType(desc[1:])
		if err != nil {
			return Type{}, fmt.Errorf("array element of %q: %w", desc, err)
		}
		return Type{Kind: KindArray, Descriptor: desc, Elem: elem}, nil
	default:
		return Type{}, fmt.Errorf("malformed type descriptor %q", desc)
	}
}

func (in *Interner) internTypeLocked(t Type) TypeID {
	if id, ok := in.typeIndex[t.Descriptor]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.typeIndex[t.Descriptor] = id
	return id
}

// Lookup returns the record for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Descriptor renders id; unknown ids render as "?".
func (in *Interner) Descriptor(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "?"
	}
	return tt.Descriptor
}

// IsArray reports whether id is an array type.
func (in *Interner) IsArray(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindArray
}

// Package returns the runtime package of a class type. Arrays and
// primitives live in the unnamed package.
func (in *Interner) Package(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClass {
		return ""
	}
	return packageOf(tt.Descriptor)
}

// SamePackage reports whether two class types share a runtime package.
func (in *Interner) SamePackage(a, b TypeID) bool {
	return in.Package(a) == in.Package(b)
}

// ParseProto interns a method descriptor such as "(ILjava/lang/String;)V".
func (in *Interner) ParseProto(desc string) (ProtoID, error) {
	in.mu.RLock()
	id, ok := in.protoIndex[desc]
	in.mu.RUnlock()
	if ok {
		return id, nil
	}
	if len(desc) < 3 || desc[0] != '(' {
		return NoProtoID, fmt.Errorf("malformed method descriptor %q", desc)
	}
	end := strings.IndexByte(desc, ')')
	if end < 0 {
		return NoProtoID, fmt.Errorf("malformed method descriptor %q", desc)
	}
	var params []TypeID
	rest := desc[1:end]
	for rest != "" {
		n := descriptorLen(rest)
		if n <= 0 {
			return NoProtoID, fmt.Errorf("malformed parameter list in %q", desc)
		}
		p, err := in.ParseType(rest[:n])
		if err != nil {
			return NoProtoID, fmt.Errorf("parameter of %q: %w", desc, err)
		}
		if p == in.builtins.Void && in.builtins.Void != NoTypeID {
			return NoProtoID, fmt.Errorf("void parameter in %q", desc)
		}
		params = append(params, p)
		rest = rest[n:]
	}
	ret, err := in.ParseType(desc[end+1:])
	if err != nil {
		return NoProtoID, fmt.Errorf("return of %q: %w", desc, err)
	}
	return in.InternProto(ret, params...), nil
}

// MustProto is ParseProto for descriptors known to be well formed.
func (in *Interner) MustProto(desc string) ProtoID {
	id, err := in.ParseProto(desc)
	if err != nil {
		panic(err)
	}
	return id
}

// InternProto interns a prototype from its components.
func (in *Interner) InternProto(ret TypeID, params ...TypeID) ProtoID {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(in.Descriptor(p))
	}
	sb.WriteByte(')')
	sb.WriteString(in.Descriptor(ret))
	desc := sb.String()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.protoIndex[desc]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.protos))
	if err != nil {
		panic(fmt.Errorf("len(protos) overflow: %w", err))
	}
	id := ProtoID(n)
	in.protos = append(in.protos, Proto{Return: ret, Params: append([]TypeID(nil), params...), Descriptor: desc})
	in.protoIndex[desc] = id
	return id
}

// Proto returns the record behind id.
func (in *Interner) Proto(id ProtoID) (Proto, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoProtoID || int(id) >= len(in.protos) {
		return Proto{}, false
	}
	return in.protos[id], true
}

// ProtoDescriptor renders id; unknown ids render as "?".
func (in *Interner) ProtoDescriptor(id ProtoID) string {
	p, ok := in.Proto(id)
	if !ok {
		return "?"
	}
	return p.Descriptor
}

// descriptorLen returns the length of the first field descriptor in s.
func descriptorLen(s string) int {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return -1
	}
	switch s[i] {
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return -1
		}
		return i + end + 1
	case 'Z', 'B', 'S', 'C', 'I', 'J', 'F', 'D', 'V':
		return i + 1
	default:
		return -1
	}
}
