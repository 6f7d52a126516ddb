package types

import "strings"

// TypeID uniquely identifies an interned type descriptor.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// ProtoID identifies an interned method prototype.
type ProtoID uint32

// NoProtoID marks the absence of a prototype.
const NoProtoID ProtoID = 0

// StringID identifies an interned name.
type StringID uint32

// NoStringID is the empty name.
const NoStringID StringID = 0

// Kind enumerates descriptor categories.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindPrimitive
	KindClass
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindPrimitive:
		return "primitive"
	case KindClass:
		return "class"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Type is the interned record behind a TypeID.
type Type struct {
	Kind       Kind
	Descriptor string
	// Elem is the component type of an array.
	Elem TypeID
}

// Proto is the interned record behind a ProtoID.
type Proto struct {
	Return     TypeID
	Params     []TypeID
	Descriptor string
}

// InvokeKind is the kind of a symbolic invoke or field access.
type InvokeKind uint8

const (
	InvokeStatic InvokeKind = iota + 1
	InvokeDirect
	InvokeVirtual
	InvokeInterface
	InvokeSuper
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeStatic:
		return "static"
	case InvokeDirect:
		return "direct"
	case InvokeVirtual:
		return "virtual"
	case InvokeInterface:
		return "interface"
	case InvokeSuper:
		return "super"
	default:
		return "invalid"
	}
}

// ParseInvokeKind maps a user supplied name to an InvokeKind.
func ParseInvokeKind(s string) (InvokeKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return InvokeStatic, true
	case "direct":
		return InvokeDirect, true
	case "virtual":
		return InvokeVirtual, true
	case "interface":
		return InvokeInterface, true
	case "super":
		return InvokeSuper, true
	default:
		return 0, false
	}
}

// packageOf returns the binary package of a class descriptor ("La/b/C;" -> "a/b").
func packageOf(desc string) string {
	if len(desc) < 2 || desc[0] != 'L' {
		return ""
	}
	body := strings.TrimSuffix(desc[1:], ";")
	if i := strings.LastIndexByte(body, '/'); i >= 0 {
		return body[:i]
	}
	return ""
}
