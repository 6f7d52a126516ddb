package graph

import "shrinker/internal/types"

// OpKind enumerates the instructions the graph keeps from a code body.
// Only instructions that reference identities are modelled.
type OpKind uint8

const (
	OpConstClass OpKind = iota + 1
	OpCheckCast
	OpInstanceOf
	OpStaticGet
	OpStaticPut
	OpInstanceGet
	OpInstancePut
	OpInvokeStatic
	OpInvokeDirect
	OpInvokeSuper
	OpInvokeVirtual
	OpInvokeInterface
	OpInitClass
	OpNewInstance
	OpLambda
)

var opNames = map[OpKind]string{
	OpConstClass:      "const-class",
	OpCheckCast:       "check-cast",
	OpInstanceOf:      "instance-of",
	OpStaticGet:       "sget",
	OpStaticPut:       "sput",
	OpInstanceGet:     "iget",
	OpInstancePut:     "iput",
	OpInvokeStatic:    "invoke-static",
	OpInvokeDirect:    "invoke-direct",
	OpInvokeSuper:     "invoke-super",
	OpInvokeVirtual:   "invoke-virtual",
	OpInvokeInterface: "invoke-interface",
	OpInitClass:       "init-class",
	OpNewInstance:     "new-instance",
	OpLambda:          "lambda",
}

func (k OpKind) String() string {
	if s, ok := opNames[k]; ok {
		return s
	}
	return "invalid"
}

// ParseOpKind maps a mnemonic to an OpKind.
func ParseOpKind(s string) (OpKind, bool) {
	for k, name := range opNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// InvokeKind returns the symbolic invoke kind of an invoke op.
func (k OpKind) InvokeKind() (types.InvokeKind, bool) {
	switch k {
	case OpInvokeStatic:
		return types.InvokeStatic, true
	case OpInvokeDirect:
		return types.InvokeDirect, true
	case OpInvokeSuper:
		return types.InvokeSuper, true
	case OpInvokeVirtual:
		return types.InvokeVirtual, true
	case OpInvokeInterface:
		return types.InvokeInterface, true
	default:
		return 0, false
	}
}

// Lambda describes a lambda creation site: the functional interfaces the
// lambda object implements, the erased signature of their single abstract
// method and the method that implements it.
type Lambda struct {
	Interfaces []types.TypeID
	Name       types.StringID
	Proto      types.ProtoID
	Impl       types.MethodRef
}

// MainMethod returns the interface method the lambda implements, holder
// set to its first interface.
func (l *Lambda) MainMethod() types.MethodRef {
	var holder types.TypeID
	if len(l.Interfaces) > 0 {
		holder = l.Interfaces[0]
	}
	return types.MethodRef{Holder: holder, Name: l.Name, Proto: l.Proto}
}

// Op is one identity-referencing instruction. Exactly one of the operand
// fields is meaningful, selected by Kind.
type Op struct {
	Kind   OpKind
	Type   types.TypeID
	Method types.MethodRef
	Field  types.FieldRef
	Lambda *Lambda
}

// Code is a method body reduced to the ops above, in program order.
// References inside it are expressed in the identities of lens version
// Version; readers rewrite them forward before resolving.
type Code struct {
	Version int
	Ops     []Op
}
