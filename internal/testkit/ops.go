package testkit

import (
	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// Invoke builds an invoke op of kind for "LA;->m()V".
func (w *World) Invoke(kind graph.OpKind, ref string) graph.Op {
	return graph.Op{Kind: kind, Method: w.Ref(ref)}
}

// New builds a new-instance op.
func (w *World) New(desc string) graph.Op {
	return graph.Op{Kind: graph.OpNewInstance, Type: w.Type(desc)}
}

// Get builds an instance or static field read.
func (w *World) Get(static bool, ref string) graph.Op {
	kind := graph.OpInstanceGet
	if static {
		kind = graph.OpStaticGet
	}
	return graph.Op{Kind: kind, Field: w.FieldRef(ref)}
}

// Put builds an instance or static field write.
func (w *World) Put(static bool, ref string) graph.Op {
	kind := graph.OpInstancePut
	if static {
		kind = graph.OpStaticPut
	}
	return graph.Op{Kind: kind, Field: w.FieldRef(ref)}
}

// Lambda builds a lambda creation op implementing iface's name+proto with impl.
func (w *World) Lambda(iface, name, proto, impl string) graph.Op {
	return graph.Op{Kind: graph.OpLambda, Lambda: &graph.Lambda{
		Interfaces: []types.TypeID{w.Type(iface)},
		Name:       w.In.Intern(name),
		Proto:      w.In.MustProto(proto),
		Impl:       w.Ref(impl),
	}}
}
