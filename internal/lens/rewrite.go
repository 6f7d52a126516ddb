package lens

import "shrinker/internal/invariant"

// Rewritable is implemented by facts that can be brought forward through a
// lens. RewrittenWithLens must not modify the receiver.
type Rewritable[F any] interface {
	RewrittenWithLens(l Lens) F
}

// Rewrite brings fact, computed at version origin, to the current version
// of c.
func Rewrite[F Rewritable[F]](c *Chain, fact F, origin int) F {
	if origin > c.Version() {
		invariant.Failf("lens.Rewrite", "", "fact from version %d is newer than chain version %d", origin, c.Version())
	}
	v := c.View(origin)
	if v.IsIdentity() {
		return fact
	}
	return fact.RewrittenWithLens(v)
}

// Versioned pins a fact to the version it was computed at.
type Versioned[F Rewritable[F]] struct {
	fact    F
	version int
}

// Pin records that fact was computed at version.
func Pin[F Rewritable[F]](fact F, version int) Versioned[F] {
	return Versioned[F]{fact: fact, version: version}
}

// Version is the version the fact is expressed in.
func (v Versioned[F]) Version() int { return v.version }

// At returns the fact, which must already be at c's version.
func (v Versioned[F]) At(c *Chain) F {
	if v.version != c.Version() {
		invariant.Failf("lens.Versioned.At", "", "fact pinned at version %d read at version %d without rewriting", v.version, c.Version())
	}
	return v.fact
}

// Rewritten brings the fact to c's version.
func (v Versioned[F]) Rewritten(c *Chain) Versioned[F] {
	if v.version == c.Version() {
		return v
	}
	return Pin(Rewrite(c, v.fact, v.version), c.Version())
}

// Get is Rewritten(c).At(c).
func (v Versioned[F]) Get(c *Chain) F { return v.Rewritten(c).fact }
