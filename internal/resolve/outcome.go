package resolve

import (
	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// Kind is the kind of a symbolic reference.
type Kind = types.InvokeKind

// Context is the class a reference is resolved from. The zero Context
// skips access checks.
type Context struct {
	Class types.TypeID
}

// From returns the context of class t.
func From(t types.TypeID) Context { return Context{Class: t} }

// Tag discriminates Outcome.
type Tag uint8

const (
	Success Tag = iota + 1
	NoSuchMember
	IllegalAccess
	IncompatibleClassChange
	AmbiguousDefaultMethod
)

func (t Tag) String() string {
	switch t {
	case Success:
		return "success"
	case NoSuchMember:
		return "no-such-member"
	case IllegalAccess:
		return "illegal-access"
	case IncompatibleClassChange:
		return "incompatible-class-change"
	case AmbiguousDefaultMethod:
		return "ambiguous-default-method"
	default:
		return "invalid"
	}
}

// Reason refines NoSuchMember.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonClassNotFound
	ReasonNotDeclared
	ReasonNotOnHolder
	ReasonPrivateNestMate
	ReasonNoContext
)

func (r Reason) String() string {
	switch r {
	case ReasonClassNotFound:
		return "class not found"
	case ReasonNotDeclared:
		return "not declared"
	case ReasonNotOnHolder:
		return "not declared on holder"
	case ReasonPrivateNestMate:
		return "private member of nest mate on another holder"
	case ReasonNoContext:
		return "no context"
	default:
		return ""
	}
}

// Outcome is the result of resolving one reference. Expected linking
// failures are outcomes, not errors.
type Outcome struct {
	Tag    Tag
	Reason Reason

	// Method or Field is the resolved definition on Success. IllegalAccess
	// keeps the inaccessible definition for reporting.
	Method *graph.MethodDef
	Field  *graph.FieldDef

	// Initial is the definition of the symbolic holder; Holder declares
	// the resolved member.
	Initial *graph.ClassDef
	Holder  *graph.ClassDef

	// Path lists the types visited from the symbolic holder to Holder.
	Path []types.TypeID

	// Candidates lists the competing defaults of AmbiguousDefaultMethod.
	Candidates []*graph.MethodDef

	// ArrayClone marks the synthetic clone() of array types, which has no
	// definition.
	ArrayClone bool
}

// IsSuccess reports Tag == Success.
func (o Outcome) IsSuccess() bool { return o.Tag == Success }

// IsVirtual reports whether the resolved method dispatches on the receiver.
func (o Outcome) IsVirtual() bool {
	return o.IsSuccess() && o.Method != nil && o.Method.IsVirtual()
}

func failure(tag Tag, reason Reason, initial *graph.ClassDef) Outcome {
	return Outcome{Tag: tag, Reason: reason, Initial: initial}
}

func methodSuccess(initial, holder *graph.ClassDef, m *graph.MethodDef, path []types.TypeID) Outcome {
	return Outcome{Tag: Success, Method: m, Initial: initial, Holder: holder, Path: path}
}

func fieldSuccess(initial, holder *graph.ClassDef, f *graph.FieldDef, path []types.TypeID) Outcome {
	return Outcome{Tag: Success, Field: f, Initial: initial, Holder: holder, Path: path}
}
