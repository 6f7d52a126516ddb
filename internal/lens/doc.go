// Package lens tracks how identities change across passes.
//
// Each committed pass appends one Step to the Chain. A Step maps types,
// methods and fields that the pass renamed, merged or removed; everything
// else passes through unchanged, except that methods and fields are
// rewritten structurally when their holder or signature types move.
//
// Chain versions count appended steps; version 0 is the identity chain.
// A View rewrites identities from one version to a later one by applying
// the steps in between in order. Facts computed at an older version
// implement Rewritable and are brought forward with Rewrite; Versioned pins
// a fact to its version so it cannot be read stale.
package lens
