package facts

import (
	"slices"
	"sync"

	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

// FieldAccessInfo lists the methods reading and writing one field.
type FieldAccessInfo struct {
	Field  types.FieldRef
	reads  *Contexts
	writes *Contexts
}

// Readers returns the methods reading the field in reference order.
func (f *FieldAccessInfo) Readers() []types.MethodRef { return f.reads.Slice() }

// Writers returns the methods writing the field in reference order.
func (f *FieldAccessInfo) Writers() []types.MethodRef { return f.writes.Slice() }

// IsRead reports whether any method reads the field.
func (f *FieldAccessInfo) IsRead() bool { return !f.reads.Empty() }

// IsWritten reports whether any method writes the field.
func (f *FieldAccessInfo) IsWritten() bool { return !f.writes.Empty() }

// IsWrittenOnlyIn reports whether every write happens in a method
// accepted by keep.
func (f *FieldAccessInfo) IsWrittenOnlyIn(keep func(types.MethodRef) bool) bool {
	for m := range f.writes.Items() {
		if !keep(m) {
			return false
		}
	}
	return true
}

func newFieldAccessInfo(f types.FieldRef) *FieldAccessInfo {
	return &FieldAccessInfo{Field: f, reads: newContexts(), writes: newContexts()}
}

// FieldAccessInfoCollection holds the access info of every accessed
// field, keyed by the resolved field.
type FieldAccessInfoCollection struct {
	infos map[types.FieldRef]*FieldAccessInfo
}

// Get returns the info of f.
func (c *FieldAccessInfoCollection) Get(f types.FieldRef) (*FieldAccessInfo, bool) {
	info, ok := c.infos[f]
	return info, ok
}

// Len returns the number of accessed fields.
func (c *FieldAccessInfoCollection) Len() int { return len(c.infos) }

// All returns every info ordered by field reference.
func (c *FieldAccessInfoCollection) All() []*FieldAccessInfo {
	out := make([]*FieldAccessInfo, 0, len(c.infos))
	for _, info := range c.infos {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b *FieldAccessInfo) int { return types.CompareFieldRefs(a.Field, b.Field) })
	return out
}

// RewrittenWithLens maps fields and their contexts through l. Fields merged
// into one another share a single info holding the union of contexts.
func (c *FieldAccessInfoCollection) RewrittenWithLens(l lens.Lens) *FieldAccessInfoCollection {
	out := &FieldAccessInfoCollection{infos: make(map[types.FieldRef]*FieldAccessInfo, len(c.infos))}
	for f, info := range c.infos {
		to, ok := l.LookupField(f).Live()
		if !ok {
			continue
		}
		dst, ok := out.infos[to]
		if !ok {
			dst = newFieldAccessInfo(to)
			out.infos[to] = dst
		}
		rewriteContexts(l, info.reads, dst.reads)
		rewriteContexts(l, info.writes, dst.writes)
	}
	return out
}

// FieldAccessBuilder collects field accesses from concurrent workers.
type FieldAccessBuilder struct {
	mu    sync.Mutex
	infos map[types.FieldRef]*FieldAccessInfo
	done  bool
}

// NewFieldAccessBuilder returns an empty builder.
func NewFieldAccessBuilder() *FieldAccessBuilder {
	return &FieldAccessBuilder{infos: make(map[types.FieldRef]*FieldAccessInfo)}
}

func (b *FieldAccessBuilder) info(f types.FieldRef) *FieldAccessInfo {
	if b.done {
		invariant.Failf("facts.FieldAccessBuilder", "", "builder used after Build")
	}
	info, ok := b.infos[f]
	if !ok {
		info = newFieldAccessInfo(f)
		b.infos[f] = info
	}
	return info
}

// RecordRead notes that ctx reads f.
func (b *FieldAccessBuilder) RecordRead(f types.FieldRef, ctx types.MethodRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info(f).reads.Insert(ctx)
}

// RecordWrite notes that ctx writes f.
func (b *FieldAccessBuilder) RecordWrite(f types.FieldRef, ctx types.MethodRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info(f).writes.Insert(ctx)
}

// Build freezes the builder.
func (b *FieldAccessBuilder) Build() *FieldAccessInfoCollection {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		invariant.Failf("facts.FieldAccessBuilder.Build", "", "built twice")
	}
	b.done = true
	return &FieldAccessInfoCollection{infos: b.infos}
}
