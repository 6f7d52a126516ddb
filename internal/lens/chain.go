package lens

import (
	"slices"

	"shrinker/internal/invariant"
	"shrinker/internal/types"
)

// Chain is the append-only history of steps. A Chain value never changes;
// Append returns a new chain sharing the existing steps.
type Chain struct {
	steps []*Step
}

// Identity returns the version 0 chain.
func Identity() *Chain { return &Chain{} }

// Version is the number of appended steps.
func (c *Chain) Version() int { return len(c.steps) }

// Append returns the chain extended by s.
func (c *Chain) Append(s *Step) *Chain {
	if s == nil {
		invariant.Failf("lens.Append", "", "nil step")
	}
	return &Chain{steps: append(slices.Clip(c.steps), s)}
}

// Step returns the step that produced version v (1-based).
func (c *Chain) Step(v int) *Step {
	if v < 1 || v > len(c.steps) {
		invariant.Failf("lens.Step", "", "version %d outside 1..%d", v, len(c.steps))
	}
	return c.steps[v-1]
}

// Between returns the view rewriting identities of version from into
// identities of version to.
func (c *Chain) Between(from, to int) View {
	if from < 0 || from > to || to > len(c.steps) {
		invariant.Failf("lens.Between", "", "invalid range (%d, %d] on chain of version %d", from, to, len(c.steps))
	}
	return View{steps: c.steps[from:to:to], from: from, to: to}
}

// View returns the view from origin to the current version.
func (c *Chain) View(origin int) View { return c.Between(origin, len(c.steps)) }

// LookupType rewrites t from version origin to the current version.
func (c *Chain) LookupType(t types.TypeID, origin int) Lookup[types.TypeID] {
	return c.View(origin).LookupType(t)
}

// LookupMethod rewrites m (invoked with kind) from version origin.
func (c *Chain) LookupMethod(m types.MethodRef, kind types.InvokeKind, origin int) MethodLookup {
	return c.View(origin).LookupMethod(m, kind)
}

// LookupField rewrites f from version origin.
func (c *Chain) LookupField(f types.FieldRef, origin int) Lookup[types.FieldRef] {
	return c.View(origin).LookupField(f)
}

// OriginalType maps t as known at version at back to version 0. For merged
// types the surviving type is its own original.
func (c *Chain) OriginalType(t types.TypeID, at int) types.TypeID {
	c.Between(0, at)
	for v := at; v > 0; v-- {
		t = c.steps[v-1].previousType(t)
	}
	return t
}

// OriginalMethod maps m as known at version at back to version 0.
func (c *Chain) OriginalMethod(m types.MethodRef, at int) types.MethodRef {
	c.Between(0, at)
	for v := at; v > 0; v-- {
		m = c.steps[v-1].previousMethod(m)
	}
	return m
}

// OriginalField maps f as known at version at back to version 0.
func (c *Chain) OriginalField(f types.FieldRef, at int) types.FieldRef {
	c.Between(0, at)
	for v := at; v > 0; v-- {
		f = c.steps[v-1].previousField(f)
	}
	return f
}
