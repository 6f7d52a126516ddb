package uses_test

import (
	"testing"

	"shrinker/internal/diag"
	"shrinker/internal/dispatch"
	"shrinker/internal/graph"
	"shrinker/internal/lens"
	"shrinker/internal/resolve"
	"shrinker/internal/testkit"
	"shrinker/internal/types"
	"shrinker/internal/uses"
)

const pub = graph.AccPublic

type event struct {
	what string
	ref  string
}

type recorder struct {
	uses.NopRegistry
	in     *types.Interner
	events []event
}

func (r *recorder) RegisterInvokeVirtual(m types.MethodRef) {
	r.events = append(r.events, event{"virtual", r.in.MethodString(m)})
}

func (r *recorder) RegisterInvokeInterface(m types.MethodRef) {
	r.events = append(r.events, event{"interface", r.in.MethodString(m)})
}

func (r *recorder) RegisterNewInstance(t types.TypeID) {
	r.events = append(r.events, event{"new", r.in.Descriptor(t)})
}

func (r *recorder) RegisterStaticFieldWrite(f types.FieldRef) {
	r.events = append(r.events, event{"sput", r.in.FieldString(f)})
}

func TestWalkReportsInProgramOrder(t *testing.T) {
	w := testkit.NewWorld()
	main := w.Program("LMain;", "")
	m := w.Method(main, "main", "()V", pub|graph.AccStatic,
		w.New("La/B;"),
		w.Invoke(graph.OpInvokeVirtual, "La/B;->m()V"),
		w.Put(true, "LMain;->count:I"),
	)
	rec := &recorder{in: w.In}
	uses.Walk(m, lens.Identity(), rec)

	want := []event{{"new", "La/B;"}, {"virtual", "La/B;->m()V"}, {"sput", "LMain;->count:I"}}
	if len(rec.events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("event %d: got %v, want %v", i, rec.events[i], want[i])
		}
	}
}

func TestWalkRewritesOldCode(t *testing.T) {
	w := testkit.NewWorld()
	main := w.Program("LMain;", "")
	m := w.Method(main, "main", "()V", pub|graph.AccStatic,
		w.Invoke(graph.OpInvokeVirtual, "La/B;->m()V"),
		w.Invoke(graph.OpInvokeVirtual, "La/Gone;->m()V"),
	)
	step := lens.NewStep(w.In, "rename").
		MoveMethod(w.Ref("La/B;->m()V"), w.Ref("La/B;->renamed()V")).
		SetHolderKind(w.Type("La/B;"), true).
		RemoveType(w.Type("La/Gone;")).
		Build()
	chain := lens.Identity().Append(step)

	rec := &recorder{in: w.In}
	uses.Walk(m, chain, rec)
	if len(rec.events) != 1 {
		t.Fatalf("removed references must be skipped, got %v", rec.events)
	}
	if got := rec.events[0]; got.what != "interface" || got.ref != "La/B;->renamed()V" {
		t.Fatalf("expected interface call of the renamed method, got %v", got)
	}
}

func TestCollectorGathersFacts(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	w.Method(base, "m", "()V", pub)
	w.Field(base, "count", "I", pub)
	sub := w.Program("La/Sub;", "La/Base;")
	subM := w.Method(sub, "m", "()V", pub)
	main := w.Program("LMain;", "")
	run := w.Method(main, "run", "()V", pub|graph.AccStatic,
		w.New("La/Sub;"),
		w.Invoke(graph.OpInvokeVirtual, "La/Base;->m()V"),
		w.Put(false, "La/Sub;->count:I"),
		w.Invoke(graph.OpInvokeVirtual, "La/Base;->missing()V"),
	)
	g := w.Build()
	engine := resolve.NewEngine(g)
	bag := diag.NewBag(0)
	c := uses.NewCollector(engine, diag.BagReporter{Bag: bag})

	mc := c.ForMethod(run)
	uses.Walk(run, lens.Identity(), mc)
	mc.Flush()
	u := c.Finish()

	if !u.Allocations.IsInstantiated(sub.Type) {
		t.Fatalf("Sub should be instantiated")
	}
	info, ok := u.FieldAccess.Get(w.FieldRef("La/Base;->count:I"))
	if !ok || len(info.Writers()) != 1 || info.Writers()[0] != run.Ref {
		t.Fatalf("write through Sub should be recorded against the resolved Base.count")
	}
	if len(u.Invokes) != 2 {
		t.Fatalf("expected 2 invokes, got %d", len(u.Invokes))
	}
	targets := u.DispatchTargets(dispatch.NewResolver(engine))
	if targets[0].Tag != dispatch.SingleTarget || targets[0].Method != subM {
		t.Fatalf("expected Sub.m as the single target, got %v", targets[0].Tag)
	}
	if targets[1].Tag != dispatch.UnknownTarget {
		t.Fatalf("unresolved call has unknown target, got %v", targets[1].Tag)
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.LnkNoSuchMethod {
		t.Fatalf("expected one no-such-method diagnostic, got %v", items)
	}
	if items[0].Primary.Context != "LMain;->run()V" {
		t.Fatalf("diagnostic context = %q", items[0].Primary.Context)
	}
}

func TestCollectorReportsMissingClasses(t *testing.T) {
	w := testkit.NewWorld()
	main := w.Program("LMain;", "")
	run := w.Method(main, "run", "()V", pub|graph.AccStatic,
		graph.Op{Kind: graph.OpCheckCast, Type: w.Type("[[La/Missing;")},
		graph.Op{Kind: graph.OpInstanceOf, Type: w.Type("[I")},
	)
	engine := resolve.NewEngine(w.Build())
	bag := diag.NewBag(0)
	c := uses.NewCollector(engine, diag.BagReporter{Bag: bag})
	mc := c.ForMethod(run)
	uses.Walk(run, lens.Identity(), mc)
	mc.Flush()

	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.LnkClassNotFound {
		t.Fatalf("expected one class-not-found diagnostic, got %v", items)
	}
}
