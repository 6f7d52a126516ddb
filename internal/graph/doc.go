// Package graph is the definition graph of one snapshot: every class seen
// by the tool, tagged by provenance, with its members and code bodies.
//
// A Graph is immutable once built. Passes never edit it; they produce the
// next Graph (see internal/fixup) and the coordinator discards the old one.
// Any query against a discarded graph is an invariant violation.
//
// Provenance decides what a pass may do with a class:
//
//   - Program classes are optimized and may be renamed, merged or removed.
//   - Classpath classes are visible for linking but never rewritten.
//   - Library classes are provided by the runtime; walks that start on a
//     library class never escape into non-library supertypes.
package graph
