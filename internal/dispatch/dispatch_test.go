package dispatch_test

import (
	"testing"

	"shrinker/internal/dispatch"
	"shrinker/internal/facts"
	"shrinker/internal/graph"
	"shrinker/internal/resolve"
	"shrinker/internal/testkit"
	"shrinker/internal/types"
)

const pub = graph.AccPublic

type setup struct {
	w      *testkit.World
	engine *resolve.Engine
	r      *dispatch.Resolver
	alloc  *facts.AllocationsBuilder
	built  *facts.Allocations
}

func newSetup(w *testkit.World) *setup {
	e := resolve.NewEngine(w.Build())
	return &setup{w: w, engine: e, r: dispatch.NewResolver(e), alloc: facts.NewAllocationsBuilder(w.In)}
}

func (s *setup) instantiate(desc string) {
	s.alloc.RecordAllocation(s.w.Type(desc), s.w.Ref("LMain;->main()V"))
}

func (s *setup) allocations() *facts.Allocations {
	if s.built == nil {
		s.built = s.alloc.Build()
	}
	return s.built
}

func (s *setup) lookup(ref string) dispatch.Result {
	out := s.engine.ResolveMethod(s.w.Ref(ref), resolve.Context{}, types.InvokeVirtual)
	return s.r.LookupDispatchTargets(out, s.allocations())
}

func TestSingleTargetAfterOverride(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	w.Method(base, "m", "()V", pub)
	sub := w.Program("La/Sub;", "La/Base;")
	subM := w.Method(sub, "m", "()V", pub)
	s := newSetup(w)
	s.instantiate("La/Sub;")

	out := s.engine.ResolveMethod(w.Ref("La/Base;->m()V"), resolve.Context{}, types.InvokeVirtual)
	if !out.IsSuccess() || out.Holder.Type != base.Type {
		t.Fatalf("expected Base.m, got %v", out.Tag)
	}
	res := s.r.LookupDispatchTargets(out, s.allocations())
	if res.Tag != dispatch.SingleTarget || res.Method != subM {
		t.Fatalf("expected single target Sub.m, got %v", res.Tag)
	}
}

func TestTwoInstantiatedOverridesAreUnknown(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	w.Method(base, "m", "()V", pub)
	w.Method(w.Program("La/Sub;", "La/Base;"), "m", "()V", pub)
	s := newSetup(w)
	s.instantiate("La/Base;")
	s.instantiate("La/Sub;")

	if res := s.lookup("La/Base;->m()V"); res.Tag != dispatch.UnknownTarget {
		t.Fatalf("expected unknown, got %v", res.Tag)
	}
}

func TestInheritedTargetIsShared(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	baseM := w.Method(base, "m", "()V", pub)
	w.Program("La/Sub1;", "La/Base;")
	w.Program("La/Sub2;", "La/Base;")
	s := newSetup(w)
	s.instantiate("La/Sub1;")
	s.instantiate("La/Sub2;")

	res := s.lookup("La/Base;->m()V")
	if res.Tag != dispatch.SingleTarget || res.Method != baseM {
		t.Fatalf("both receivers dispatch to Base.m, got %v", res.Tag)
	}
}

func TestNothingInstantiated(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	concrete := w.Method(base, "m", "()V", pub)
	abs := w.Class("La/Abs;", graph.Program, pub|graph.AccAbstract, "")
	w.Method(abs, "n", "()V", pub|graph.AccAbstract)
	s := newSetup(w)

	if res := s.lookup("La/Base;->m()V"); res.Tag != dispatch.SingleTarget || res.Method != concrete {
		t.Fatalf("vacuous single target expected, got %v", res.Tag)
	}
	if res := s.lookup("La/Abs;->n()V"); res.Tag != dispatch.UnknownTarget {
		t.Fatalf("abstract method with no receivers is unknown, got %v", res.Tag)
	}
}

func TestAbstractHolderWithoutReceiversIsUnknown(t *testing.T) {
	w := testkit.NewWorld()
	abs := w.Class("La/Shape;", graph.Program, pub|graph.AccAbstract, "")
	w.Method(abs, "draw", "()V", pub)
	circle := w.Program("La/Circle;", "La/Shape;")
	circleDraw := w.Method(circle, "draw", "()V", pub)

	s := newSetup(w)
	if res := s.lookup("La/Shape;->draw()V"); res.Tag != dispatch.UnknownTarget {
		t.Fatalf("concrete method on an abstract holder with no receivers is unknown, got %v", res.Tag)
	}

	live := newSetup(w)
	live.instantiate("La/Circle;")
	if res := live.lookup("La/Shape;->draw()V"); res.Tag != dispatch.SingleTarget || res.Method != circleDraw {
		t.Fatalf("expected Circle.draw once Circle is instantiated, got %v", res.Tag)
	}
}

func TestFailedResolutionIsUnknown(t *testing.T) {
	w := testkit.NewWorld()
	w.Program("La/Base;", "")
	s := newSetup(w)
	res := s.lookup("La/Base;->missing()V")
	if res.Tag != dispatch.UnknownTarget || res.Outcome.Tag != resolve.NoSuchMember {
		t.Fatalf("expected unknown carrying the failure, got %v / %v", res.Tag, res.Outcome.Tag)
	}
}

func TestNonProgramRootIsUnknown(t *testing.T) {
	w := testkit.NewWorld()
	lib := w.Class("Ljava/util/AbstractList;", graph.Library, pub, "")
	w.Method(lib, "size", "()I", pub)
	w.Program("La/MyList;", "Ljava/util/AbstractList;")
	s := newSetup(w)
	s.instantiate("La/MyList;")

	if res := s.lookup("Ljava/util/AbstractList;->size()I"); res.Tag != dispatch.UnknownTarget {
		t.Fatalf("library receivers have unknown allocations, got %v", res.Tag)
	}
}

func TestClasspathSubtypeMakesTargetsIncomplete(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	w.Method(base, "m", "()V", pub)
	sub := w.Program("La/Sub;", "La/Base;")
	w.Method(sub, "m", "()V", pub)
	w.Method(w.Class("Lcp/Ext;", graph.Classpath, pub, "La/Base;"), "m", "()V", pub)
	s := newSetup(w)
	s.instantiate("La/Sub;")

	if res := s.lookup("La/Base;->m()V"); res.Tag != dispatch.UnknownTarget {
		t.Fatalf("a classpath subtype may override m, got %v", res.Tag)
	}
	out := s.engine.ResolveMethod(w.Ref("La/Base;->m()V"), resolve.Context{}, types.InvokeVirtual)
	set := s.r.LookupVirtualTargets(out, s.allocations())
	if set.Complete {
		t.Fatalf("target set with a classpath subtype must be incomplete")
	}
	if len(set.Methods) != 1 || set.Methods[0].Ref.Holder != sub.Type {
		t.Fatalf("expected Sub.m among the known targets, got %d methods", len(set.Methods))
	}
}

func TestPrivateAndStaticAreSingle(t *testing.T) {
	w := testkit.NewWorld()
	c := w.Program("La/C;", "")
	st := w.Method(c, "s", "()V", pub|graph.AccStatic)
	s := newSetup(w)
	out := s.engine.ResolveMethod(w.Ref("La/C;->s()V"), resolve.Context{}, types.InvokeStatic)
	res := s.r.LookupDispatchTargets(out, s.allocations())
	if res.Tag != dispatch.SingleTarget || res.Method != st {
		t.Fatalf("static call is a single target, got %v", res.Tag)
	}
}

func TestPackagePrivateIsNotOverriddenFromOtherPackage(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	baseM := w.Method(base, "m", "()V", 0)
	w.Method(w.Program("Lb/Sub;", "La/Base;"), "m", "()V", pub)
	s := newSetup(w)
	s.instantiate("Lb/Sub;")

	res := s.lookup("La/Base;->m()V")
	if res.Tag != dispatch.SingleTarget || res.Method != baseM {
		t.Fatalf("b/Sub.m does not override package-private a/Base.m, got %v", res.Tag)
	}
}

func TestWideningOverride(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	w.Method(base, "m", "()V", 0)
	mid := w.Program("La/Mid;", "La/Base;")
	w.Method(mid, "m", "()V", pub)
	leaf := w.Program("Lb/Leaf;", "La/Mid;")
	leafM := w.Method(leaf, "m", "()V", pub)
	s := newSetup(w)
	s.instantiate("Lb/Leaf;")

	res := s.lookup("La/Base;->m()V")
	if res.Tag != dispatch.SingleTarget || res.Method != leafM {
		t.Fatalf("a/Mid widens m so b/Leaf overrides it, got %v", res.Tag)
	}
}

func TestDefaultMethodTarget(t *testing.T) {
	w := testkit.NewWorld()
	i := w.Interface("La/I;", graph.Program)
	def := w.Method(i, "f", "()V", pub)
	w.Program("La/C;", "", "La/I;")
	s := newSetup(w)
	s.instantiate("La/C;")

	out := s.engine.ResolveMethod(w.Ref("La/I;->f()V"), resolve.Context{}, types.InvokeInterface)
	res := s.r.LookupDispatchTargets(out, s.allocations())
	if res.Tag != dispatch.SingleTarget || res.Method != def {
		t.Fatalf("expected the default method, got %v", res.Tag)
	}
}

func TestLambdaTarget(t *testing.T) {
	w := testkit.NewWorld()
	fn := w.Interface("La/Fn;", graph.Program)
	w.Method(fn, "run", "()V", pub|graph.AccAbstract)
	main := w.Program("LMain;", "")
	impl := w.Method(main, "lambda$0", "()V", graph.AccPrivate|graph.AccStatic|graph.AccSynthetic)
	s := newSetup(w)
	op := w.Lambda("La/Fn;", "run", "()V", "LMain;->lambda$0()V")
	s.alloc.RecordLambda(op.Lambda)

	out := s.engine.ResolveMethod(w.Ref("La/Fn;->run()V"), resolve.Context{}, types.InvokeInterface)
	res := s.r.LookupDispatchTargets(out, s.allocations())
	if res.Tag != dispatch.LambdaTarget || res.Impl != impl || res.Lambda != op.Lambda {
		t.Fatalf("expected lambda target, got %v", res.Tag)
	}
}

func TestExactReceiver(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	w.Method(base, "m", "()V", pub)
	sub := w.Program("La/Sub;", "La/Base;")
	subM := w.Method(sub, "m", "()V", pub)
	w.Method(w.Program("La/Other;", "La/Base;"), "m", "()V", pub)
	s := newSetup(w)
	s.instantiate("La/Sub;")
	s.instantiate("La/Other;")

	out := s.engine.ResolveMethod(w.Ref("La/Base;->m()V"), resolve.Context{}, types.InvokeVirtual)
	res := s.r.LookupDispatchTargetsForReceiver(out, s.allocations(), dispatch.Receiver{Type: sub.Type, Exact: true})
	if res.Tag != dispatch.SingleTarget || res.Method != subM {
		t.Fatalf("exact receiver Sub dispatches to Sub.m, got %v", res.Tag)
	}
}

// Every instantiated receiver's actual target must be in the target set.
func TestTargetSetIsSound(t *testing.T) {
	w := testkit.NewWorld()
	i := w.Interface("La/I;", graph.Program)
	w.Method(i, "f", "()V", pub)
	a := w.Program("La/A;", "", "La/I;")
	aF := w.Method(a, "f", "()V", pub)
	w.Program("La/B;", "La/A;")
	w.Program("La/C;", "", "La/I;")
	d := w.Program("La/D;", "La/C;")
	dF := w.Method(d, "f", "()V", pub)
	s := newSetup(w)
	for _, desc := range []string{"La/B;", "La/C;", "La/D;"} {
		s.instantiate(desc)
	}

	out := s.engine.ResolveMethod(w.Ref("La/I;->f()V"), resolve.Context{}, types.InvokeInterface)
	set := s.r.LookupVirtualTargets(out, s.allocations())
	if !set.Complete {
		t.Fatalf("program-only hierarchy should give a complete set")
	}
	want := map[*graph.MethodDef]bool{aF: true, dF: true, out.Method: true}
	if len(set.Methods) != len(want) {
		t.Fatalf("expected %d targets, got %d", len(want), len(set.Methods))
	}
	for _, m := range set.Methods {
		if !want[m] {
			t.Fatalf("unexpected target %s", w.In.MethodString(m.Ref))
		}
	}
}
