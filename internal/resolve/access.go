package resolve

import (
	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// classAccessible reports whether ctx may name cls at all.
func (e *Engine) classAccessible(cls *graph.ClassDef, ctx Context) bool {
	if ctx.Class == types.NoTypeID || cls.Flags.IsPublic() {
		return true
	}
	return e.in.SamePackage(cls.Type, ctx.Class) || e.g.SameNest(cls.Type, ctx.Class)
}

// checkAccess downgrades a successful outcome to IllegalAccess when ctx may
// not access the resolved member.
func (e *Engine) checkAccess(out Outcome, flags graph.AccessFlags, ctx Context) Outcome {
	if ctx.Class == types.NoTypeID || out.Holder == nil {
		return out
	}
	if !e.memberAccessible(flags, out.Holder.Type, ctx.Class) {
		out.Tag = IllegalAccess
	}
	return out
}

func (e *Engine) memberAccessible(flags graph.AccessFlags, holder, ctx types.TypeID) bool {
	switch {
	case flags.IsPublic():
		return true
	case flags.IsPrivate():
		return holder == ctx || e.g.SameNest(holder, ctx)
	case flags.IsProtected():
		return e.in.SamePackage(holder, ctx) || e.g.IsSubtype(ctx, holder)
	default:
		return e.in.SamePackage(holder, ctx)
	}
}
