// Package facts holds whole-program facts derived from code: which types
// are allocated and where, which methods read and write each field, and
// per-field summaries published for later passes.
//
// Facts are immutable once built. Each implements RewrittenWithLens so a
// fact computed at one chain version can be brought forward with
// lens.Rewrite or kept pinned in a lens.Versioned.
package facts
