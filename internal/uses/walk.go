package uses

import (
	"shrinker/internal/facts"
	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

// Walk reports the references of m's code to r. The code is rewritten from
// its own version to the current version of chain first; references to
// identities removed since then are skipped. Methods without code report
// nothing.
func Walk(m *graph.MethodDef, chain *lens.Chain, r Registry) {
	if m.Code == nil {
		return
	}
	view := chain.View(m.Code.Version)
	for _, op := range m.Code.Ops {
		walkOp(view, op, r)
	}
}

func walkOp(view lens.View, op graph.Op, r Registry) {
	switch op.Kind {
	case graph.OpConstClass, graph.OpCheckCast, graph.OpInstanceOf:
		if t, ok := view.LookupType(op.Type).Live(); ok {
			r.RegisterTypeReference(t)
		}
	case graph.OpNewInstance:
		if t, ok := view.LookupType(op.Type).Live(); ok {
			r.RegisterNewInstance(t)
		}
	case graph.OpInitClass:
		if t, ok := view.LookupType(op.Type).Live(); ok {
			r.RegisterInitClass(t)
		}
	case graph.OpStaticGet, graph.OpStaticPut, graph.OpInstanceGet, graph.OpInstancePut:
		f, ok := view.LookupField(op.Field).Live()
		if !ok {
			return
		}
		switch op.Kind {
		case graph.OpStaticGet:
			r.RegisterStaticFieldRead(f)
		case graph.OpStaticPut:
			r.RegisterStaticFieldWrite(f)
		case graph.OpInstanceGet:
			r.RegisterInstanceFieldRead(f)
		default:
			r.RegisterInstanceFieldWrite(f)
		}
	case graph.OpInvokeStatic, graph.OpInvokeDirect, graph.OpInvokeSuper, graph.OpInvokeVirtual, graph.OpInvokeInterface:
		kind, _ := op.Kind.InvokeKind()
		res := view.LookupMethod(op.Method, kind)
		if res.Removed {
			return
		}
		registerInvoke(r, res.Kind, res.Method)
	case graph.OpLambda:
		l := op.Lambda
		if !view.IsIdentity() {
			var ok bool
			if l, ok = facts.RewriteLambda(view, l); !ok {
				return
			}
		}
		r.RegisterLambda(l)
	default:
		invariant.Failf("uses.Walk", op.Kind.String(), "unknown op kind %d", op.Kind)
	}
}

func registerInvoke(r Registry, kind types.InvokeKind, m types.MethodRef) {
	switch kind {
	case types.InvokeStatic:
		r.RegisterInvokeStatic(m)
	case types.InvokeDirect:
		r.RegisterInvokeDirect(m)
	case types.InvokeSuper:
		r.RegisterInvokeSuper(m)
	case types.InvokeVirtual:
		r.RegisterInvokeVirtual(m)
	case types.InvokeInterface:
		r.RegisterInvokeInterface(m)
	}
}
