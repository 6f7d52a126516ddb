// Package diag is the boundary to the diagnostics collaborator.
//
// The graph, resolution and use-collection code report findings that are
// expected in real inputs (a missing library class, a duplicate definition,
// a call that fails to link) as Diagnostic values. Rendering them is the
// caller's job; this package only stores and orders them.
//
// A Diagnostic carries:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier with a stable string form (codes.go).
//   - Location: the member identity the finding is about, plus the context
//     method or class it was observed from.
//   - Message: a short technical detail such as the resolution outcome.
//   - Notes: optional secondary locations.
//
// Producers emit through a Reporter. BagReporter stores into a Bag, which
// is safe for concurrent use by pipeline workers and can be sorted and
// deduplicated for deterministic output.
package diag
