package facts_test

import (
	"sync"
	"testing"

	"shrinker/internal/facts"
	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

type fixture struct{ in *types.Interner }

func (f fixture) m(s string) types.MethodRef {
	ref, err := f.in.ParseMethodRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

func (f fixture) fl(s string) types.FieldRef {
	ref, err := f.in.ParseFieldRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

func TestFieldAccessContextFollowsFieldMerge(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	ax, bx := f.fl("LA;->x:I"), f.fl("LB;->x:I")
	user := f.m("LUser;->run()V")

	b := facts.NewFieldAccessBuilder()
	b.RecordRead(bx, user)
	pinned := lens.Pin(b.Build(), 0)

	chain := lens.Identity().Append(lens.NewStep(f.in, "merge-fields").MergeFields(ax, ax, bx).Build())
	got := pinned.Get(chain)
	info, ok := got.Get(ax)
	if !ok {
		t.Fatalf("access recorded against B.x must be reported against A.x")
	}
	if readers := info.Readers(); len(readers) != 1 || readers[0] != user {
		t.Fatalf("unexpected readers %v", readers)
	}
	if _, ok := got.Get(bx); ok {
		t.Fatalf("B.x should no longer have an entry")
	}
}

func TestFieldAccessMergeUnionsContexts(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	ax, bx := f.fl("LA;->x:I"), f.fl("LB;->x:I")
	r1, r2 := f.m("LR1;->run()V"), f.m("LR2;->run()V")

	b := facts.NewFieldAccessBuilder()
	b.RecordRead(ax, r1)
	b.RecordWrite(bx, r2)
	b.RecordRead(bx, r1)
	c := b.Build()

	chain := lens.Identity().Append(lens.NewStep(f.in, "merge").MergeFields(ax, bx).Build())
	got := lens.Rewrite(chain, c, 0)
	if got.Len() != 1 {
		t.Fatalf("expected one merged field, got %d", got.Len())
	}
	info, _ := got.Get(ax)
	if len(info.Readers()) != 1 || len(info.Writers()) != 1 {
		t.Fatalf("expected union of contexts, got readers %v writers %v", info.Readers(), info.Writers())
	}
	if orig, _ := c.Get(bx); orig == nil || !orig.IsWritten() {
		t.Fatalf("rewriting must not modify the source collection")
	}
}

func TestRemovedContextsDisappear(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	x := f.fl("LA;->x:I")
	dead := f.m("LDead;->run()V")
	b := facts.NewFieldAccessBuilder()
	b.RecordWrite(x, dead)
	chain := lens.Identity().Append(lens.NewStep(f.in, "tree-shake").RemoveType(f.in.MustType("LDead;")).Build())
	info, ok := lens.Rewrite(chain, b.Build(), 0).Get(x)
	if !ok || info.IsWritten() {
		t.Fatalf("write from removed method should be gone")
	}
}

func TestAllocationsRewriteMergesTypes(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	a, bt := f.in.MustType("LA;"), f.in.MustType("LB;")
	main := f.m("LMain;->main()V")

	b := facts.NewAllocationsBuilder(f.in)
	b.RecordAllocation(bt, main)
	b.RecordLambda(&graph.Lambda{
		Interfaces: []types.TypeID{f.in.MustType("LB;")},
		Name:       f.in.Intern("run"),
		Proto:      f.in.MustProto("()V"),
		Impl:       f.m("LMain;->lambda$0()V"),
	})
	alloc := b.Build()
	if !alloc.IsInstantiated(bt) || alloc.IsInstantiated(a) {
		t.Fatalf("unexpected instantiation before rewrite")
	}

	chain := lens.Identity().Append(lens.NewStep(f.in, "merge").MergeTypes(a, bt).Build())
	got := lens.Rewrite(chain, alloc, 0)
	if !got.IsInstantiated(a) || got.IsInstantiated(bt) {
		t.Fatalf("allocation of B should now be an allocation of A")
	}
	if ctx := got.Contexts(a); len(ctx) != 1 || ctx[0] != main {
		t.Fatalf("unexpected contexts %v", ctx)
	}
	if lams := got.Lambdas(a); len(lams) != 1 {
		t.Fatalf("lambda interfaces should be rewritten, got %d lambdas for A", len(lams))
	}
}

func TestAllocationsBuilderConcurrent(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	ty := f.in.MustType("LA;")
	b := facts.NewAllocationsBuilder(f.in)
	ctxs := []types.MethodRef{f.m("LM;->a()V"), f.m("LM;->b()V"), f.m("LM;->c()V")}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.RecordAllocation(ty, ctxs[i%len(ctxs)])
		}(i)
	}
	wg.Wait()
	alloc := b.Build()
	if got := alloc.Contexts(ty); len(got) != 3 {
		t.Fatalf("expected 3 distinct contexts, got %d", len(got))
	}
	if tys := alloc.Types(); len(tys) != 1 || tys[0] != ty {
		t.Fatalf("unexpected types %v", tys)
	}
}

func TestSummariesArePublishedOnce(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	x := f.fl("LA;->x:I")
	init := f.m("LA;-><init>()V")
	other := f.m("LB;->set()V")

	b := facts.NewFieldAccessBuilder()
	b.RecordWrite(x, init)
	b.RecordRead(x, other)
	s := facts.SummarizeFields(f.in, b.Build())
	sum, ok := s.Get(x)
	if !ok || !sum.WrittenOnlyInInitializers || sum.Readers != 1 || sum.Writers != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	sb := facts.NewSummariesBuilder[types.FieldRef, facts.FieldSummary](facts.FieldKey, facts.MergeFieldSummaries)
	sb.Set(x, facts.FieldSummary{Readers: 1})
	sb.Publish()
	var err error
	func() {
		defer invariant.Recover(&err)
		sb.Set(x, facts.FieldSummary{})
	}()
	if _, ok := invariant.As(err); !ok {
		t.Fatalf("writing after Publish must be fatal, got %v", err)
	}
}

func TestSummariesMergeOnRewrite(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	ax, bx := f.fl("LA;->x:I"), f.fl("LB;->x:I")
	sb := facts.NewSummariesBuilder[types.FieldRef, facts.FieldSummary](facts.FieldKey, facts.MergeFieldSummaries)
	sb.Set(ax, facts.FieldSummary{Readers: 1, WrittenOnlyInInitializers: true})
	sb.Set(bx, facts.FieldSummary{Readers: 2, Writers: 1})
	s := sb.Publish()

	chain := lens.Identity().Append(lens.NewStep(f.in, "merge").MergeFields(ax, bx).Build())
	got := lens.Rewrite(chain, s, 0)
	sum, ok := got.Get(ax)
	if !ok || sum.Readers != 3 || sum.Writers != 1 || sum.WrittenOnlyInInitializers {
		t.Fatalf("unexpected merged summary %+v", sum)
	}
	if s.Len() != 2 {
		t.Fatalf("published table must stay unchanged")
	}
}

func TestMergedSummaryCountsAreUpperBounds(t *testing.T) {
	f := fixture{in: types.NewInterner()}
	ax, bx := f.fl("LA;->x:I"), f.fl("LB;->x:I")
	both := f.m("LUser;->both()V")

	b := facts.NewFieldAccessBuilder()
	b.RecordRead(ax, both)
	b.RecordRead(bx, both)
	access := b.Build()
	chain := lens.Identity().Append(lens.NewStep(f.in, "merge").MergeFields(ax, bx).Build())

	merged, ok := lens.Rewrite(chain, facts.SummarizeFields(f.in, access), 0).Get(ax)
	if !ok || merged.Readers != 2 {
		t.Fatalf("merged summary counts the reader once per field, got %+v", merged)
	}
	exact, ok := facts.SummarizeFields(f.in, lens.Rewrite(chain, access, 0)).Get(ax)
	if !ok || exact.Readers != 1 {
		t.Fatalf("summary of rewritten access info counts distinct readers, got %+v", exact)
	}
}
