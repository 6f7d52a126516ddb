package facts

import (
	"sync"

	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

// Rekey maps a summary key through a lens; ok is false when the key was
// removed.
type Rekey[K comparable] func(l lens.Lens, k K) (K, bool)

// Summaries is an immutable per-key summary table published by one pass
// for the passes after it. Readers never observe a table being filled.
type Summaries[K comparable, V any] struct {
	values map[K]V
	rekey  Rekey[K]
	merge  func(a, b V) V
}

// Get returns the summary of k.
func (s *Summaries[K, V]) Get(k K) (V, bool) {
	v, ok := s.values[k]
	return v, ok
}

// Len returns the number of keys.
func (s *Summaries[K, V]) Len() int { return len(s.values) }

// Keys returns every key in unspecified order.
func (s *Summaries[K, V]) Keys() []K {
	out := make([]K, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	return out
}

// RewrittenWithLens rekeys the table. Keys that collapse into one are
// combined with the table's merge function.
func (s *Summaries[K, V]) RewrittenWithLens(l lens.Lens) *Summaries[K, V] {
	out := &Summaries[K, V]{values: make(map[K]V, len(s.values)), rekey: s.rekey, merge: s.merge}
	for k, v := range s.values {
		to, ok := s.rekey(l, k)
		if !ok {
			continue
		}
		if prev, dup := out.values[to]; dup {
			v = s.merge(prev, v)
		}
		out.values[to] = v
	}
	return out
}

// SummariesBuilder is the single writer of a Summaries table. Publish is
// the only point where the table becomes visible.
type SummariesBuilder[K comparable, V any] struct {
	mu        sync.Mutex
	values    map[K]V
	rekey     Rekey[K]
	merge     func(a, b V) V
	published bool
}

// NewSummariesBuilder returns a builder; merge combines values whose keys
// collide on Set or after rewriting.
func NewSummariesBuilder[K comparable, V any](rekey Rekey[K], merge func(a, b V) V) *SummariesBuilder[K, V] {
	return &SummariesBuilder[K, V]{values: make(map[K]V), rekey: rekey, merge: merge}
}

// Set records v for k, merging with an earlier value.
func (b *SummariesBuilder[K, V]) Set(k K, v V) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published {
		invariant.Failf("facts.Summaries.Set", "", "write after Publish")
	}
	if prev, ok := b.values[k]; ok {
		v = b.merge(prev, v)
	}
	b.values[k] = v
}

// Publish freezes the table.
func (b *SummariesBuilder[K, V]) Publish() *Summaries[K, V] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published {
		invariant.Failf("facts.Summaries.Publish", "", "published twice")
	}
	b.published = true
	return &Summaries[K, V]{values: b.values, rekey: b.rekey, merge: b.merge}
}

// FieldKey rekeys field summaries.
func FieldKey(l lens.Lens, f types.FieldRef) (types.FieldRef, bool) {
	return l.LookupField(f).Live()
}

// MethodKey rekeys method summaries.
func MethodKey(l lens.Lens, m types.MethodRef) (types.MethodRef, bool) {
	return l.LookupMethod(m, types.InvokeDirect).Live()
}

// FieldSummary is the optimization info of one field. Readers and Writers
// count distinct methods when the summary is derived from access info; after
// a field merge they are upper bounds, since a method touching several of
// the merged fields is counted once per field. SummarizeFields over the
// rewritten access info gives exact counts.
type FieldSummary struct {
	Readers int
	Writers int
	// WrittenOnlyInInitializers holds when every write is in an
	// initializer of the field's holder.
	WrittenOnlyInInitializers bool
}

// MergeFieldSummaries combines the summaries of merged fields. Counts add
// up without deduplicating contexts.
func MergeFieldSummaries(a, b FieldSummary) FieldSummary {
	return FieldSummary{
		Readers:                   a.Readers + b.Readers,
		Writers:                   a.Writers + b.Writers,
		WrittenOnlyInInitializers: a.WrittenOnlyInInitializers && b.WrittenOnlyInInitializers,
	}
}

// SummarizeFields derives field summaries from access info.
func SummarizeFields(in *types.Interner, c *FieldAccessInfoCollection) *Summaries[types.FieldRef, FieldSummary] {
	b := NewSummariesBuilder[types.FieldRef, FieldSummary](FieldKey, MergeFieldSummaries)
	for _, info := range c.All() {
		holder := info.Field.Holder
		b.Set(info.Field, FieldSummary{
			Readers: len(info.Readers()),
			Writers: len(info.Writers()),
			WrittenOnlyInInitializers: info.IsWrittenOnlyIn(func(m types.MethodRef) bool {
				return m.Holder == holder && in.IsInitializer(m)
			}),
		})
	}
	return b.Publish()
}
