// Package dispatch computes the methods a virtual or interface call can
// reach at runtime given whole-program allocation knowledge.
package dispatch

import (
	"shrinker/internal/graph"
	"shrinker/internal/resolve"
	"shrinker/internal/types"
)

// AllocationInfo answers which types are instantiated in the program.
type AllocationInfo interface {
	// IsInstantiated reports whether objects of exactly t are allocated.
	IsInstantiated(t types.TypeID) bool
	// Lambdas returns the lambdas whose interfaces include iface.
	Lambdas(iface types.TypeID) []*graph.Lambda
}

// ResultTag discriminates Result.
type ResultTag uint8

const (
	SingleTarget ResultTag = iota + 1
	UnknownTarget
	LambdaTarget
)

func (t ResultTag) String() string {
	switch t {
	case SingleTarget:
		return "single"
	case UnknownTarget:
		return "unknown"
	case LambdaTarget:
		return "lambda"
	default:
		return "invalid"
	}
}

// Result is the dispatch answer for one resolved call.
type Result struct {
	Tag ResultTag
	// Method is the only target of SingleTarget.
	Method *graph.MethodDef
	// Lambda and Impl describe the only target of LambdaTarget.
	Lambda *graph.Lambda
	Impl   *graph.MethodDef
	// Outcome is the resolution the result was computed from.
	Outcome resolve.Outcome
}

// Receiver refines the static type of the call's receiver.
type Receiver struct {
	Type types.TypeID
	// Exact means the receiver is known to be exactly Type, not a subtype.
	Exact bool
}

// TargetSet is every runtime target of a virtual call.
type TargetSet struct {
	Methods []*graph.MethodDef
	Lambdas []*graph.Lambda
	// Complete is false when some receiver type is outside what the
	// program knows about; Methods and Lambdas are then a lower bound.
	Complete bool
}

func single(m *graph.MethodDef, out resolve.Outcome) Result {
	return Result{Tag: SingleTarget, Method: m, Outcome: out}
}

func unknown(out resolve.Outcome) Result {
	return Result{Tag: UnknownTarget, Outcome: out}
}
