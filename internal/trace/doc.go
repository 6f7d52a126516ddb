// Package trace records what the shrinker is doing while it runs: driver
// commands, pass boundaries, per-class worker tasks and, at debug level,
// individual member resolutions.
//
// # Usage
//
//	shrink dispatch model.toml --trace=- --trace-level=detail 'LBase;->m()V'
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: last N events in memory, dumped when a run aborts on an
//     invariant violation
//   - MultiTracer: fan-out to several tracers
//
// # Levels and scopes
//
// LevelPhase emits ScopeDriver and ScopePass events, LevelDetail adds
// ScopeClass, LevelDebug adds ScopeMember. LevelError records nothing
// until a crash dump is requested.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "pass:inline", parentID)
//	defer span.End("")
package trace
