// Package uses walks method bodies and reports every identity they
// reference to a Registry, in program order.
package uses

import (
	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// Registry receives the references of one method body. References are
// already expressed in the identities of the walked chain version.
type Registry interface {
	RegisterTypeReference(t types.TypeID)
	RegisterStaticFieldRead(f types.FieldRef)
	RegisterStaticFieldWrite(f types.FieldRef)
	RegisterInstanceFieldRead(f types.FieldRef)
	RegisterInstanceFieldWrite(f types.FieldRef)
	RegisterInvokeStatic(m types.MethodRef)
	RegisterInvokeDirect(m types.MethodRef)
	RegisterInvokeSuper(m types.MethodRef)
	RegisterInvokeVirtual(m types.MethodRef)
	RegisterInvokeInterface(m types.MethodRef)
	RegisterInitClass(t types.TypeID)
	RegisterNewInstance(t types.TypeID)
	RegisterLambda(l *graph.Lambda)
}

// NopRegistry ignores every reference. Embed it to implement only the
// callbacks of interest.
type NopRegistry struct{}

func (NopRegistry) RegisterTypeReference(types.TypeID)        {}
func (NopRegistry) RegisterStaticFieldRead(types.FieldRef)    {}
func (NopRegistry) RegisterStaticFieldWrite(types.FieldRef)   {}
func (NopRegistry) RegisterInstanceFieldRead(types.FieldRef)  {}
func (NopRegistry) RegisterInstanceFieldWrite(types.FieldRef) {}
func (NopRegistry) RegisterInvokeStatic(types.MethodRef)      {}
func (NopRegistry) RegisterInvokeDirect(types.MethodRef)      {}
func (NopRegistry) RegisterInvokeSuper(types.MethodRef)       {}
func (NopRegistry) RegisterInvokeVirtual(types.MethodRef)     {}
func (NopRegistry) RegisterInvokeInterface(types.MethodRef)   {}
func (NopRegistry) RegisterInitClass(types.TypeID)            {}
func (NopRegistry) RegisterNewInstance(types.TypeID)          {}
func (NopRegistry) RegisterLambda(*graph.Lambda)              {}
