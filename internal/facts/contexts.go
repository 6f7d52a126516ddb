package facts

import (
	"github.com/hashicorp/go-set/v3"

	"shrinker/internal/lens"
	"shrinker/internal/types"
)

// Contexts is an ordered set of methods in which something happens.
type Contexts = set.TreeSet[types.MethodRef]

func newContexts() *Contexts {
	return set.NewTreeSet[types.MethodRef](types.CompareMethodRefs)
}

// rewriteContexts maps every context through l, dropping removed methods.
func rewriteContexts(l lens.Lens, src *Contexts, dst *Contexts) {
	for m := range src.Items() {
		if to, ok := l.LookupMethod(m, types.InvokeDirect).Live(); ok {
			dst.Insert(to)
		}
	}
}
