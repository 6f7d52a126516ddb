package lens

import (
	"slices"

	"shrinker/internal/types"
)

// Lookup is the result of rewriting one identity. A removed identity keeps
// the last value it had and stays removed through later steps.
type Lookup[T comparable] struct {
	Value   T
	Removed bool
}

// Live returns the value and whether it is still present.
func (l Lookup[T]) Live() (T, bool) { return l.Value, !l.Removed }

// ProtoChange describes how a method prototype changed in one step. It is
// applied to the source prototype after its types were rewritten.
type ProtoChange struct {
	// RemovedParams are indices into the source parameters.
	RemovedParams []int
	// ExtraParams are appended after the remaining parameters.
	ExtraParams []types.TypeID
	// Return replaces the return type; NoTypeID keeps it.
	Return types.TypeID
}

// IsEmpty reports whether c changes nothing.
func (c ProtoChange) IsEmpty() bool {
	return len(c.RemovedParams) == 0 && len(c.ExtraParams) == 0 && c.Return == types.NoTypeID
}

// Apply returns the prototype produced by applying c to p.
func (c ProtoChange) Apply(in *types.Interner, p types.ProtoID) types.ProtoID {
	proto, ok := in.Proto(p)
	if !ok {
		return p
	}
	params := make([]types.TypeID, 0, len(proto.Params)+len(c.ExtraParams))
	for i, t := range proto.Params {
		if !slices.Contains(c.RemovedParams, i) {
			params = append(params, t)
		}
	}
	params = append(params, c.ExtraParams...)
	ret := proto.Return
	if c.Return != types.NoTypeID {
		ret = c.Return
	}
	return in.InternProto(ret, params...)
}

// MethodLookup is the result of rewriting a method reference. Changes
// accumulates the prototype changes of every step on the way, oldest
// first; Kind is the invoke kind to use against the rewritten holder.
type MethodLookup struct {
	Method  types.MethodRef
	Kind    types.InvokeKind
	Removed bool
	Changes []ProtoChange
}

// Live returns the method and whether it is still present.
func (l MethodLookup) Live() (types.MethodRef, bool) { return l.Method, !l.Removed }

// Equal compares two lookups including their prototype changes.
func (l MethodLookup) Equal(o MethodLookup) bool {
	if l.Method != o.Method || l.Kind != o.Kind || l.Removed != o.Removed || len(l.Changes) != len(o.Changes) {
		return false
	}
	for i := range l.Changes {
		a, b := l.Changes[i], o.Changes[i]
		if a.Return != b.Return || !slices.Equal(a.RemovedParams, b.RemovedParams) || !slices.Equal(a.ExtraParams, b.ExtraParams) {
			return false
		}
	}
	return true
}
