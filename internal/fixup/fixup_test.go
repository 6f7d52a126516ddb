package fixup_test

import (
	"testing"

	"shrinker/internal/fixup"
	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/resolve"
	"shrinker/internal/testkit"
	"shrinker/internal/types"
	"shrinker/internal/uses"
)

const pub = graph.AccPublic

func TestRenameClassAndMembers(t *testing.T) {
	w := testkit.NewWorld()
	a := w.Program("La/Long;", "")
	w.Method(a, "compute", "(La/Long;)V", pub)
	w.Field(a, "value", "La/Long;", pub)
	g := w.Build()

	step := lens.NewStep(w.In, "minify").MapType(a.Type, w.Type("La/a;")).Build()
	chain := lens.Identity().Append(step)
	next := fixup.Apply(g, chain, nil)

	if next.Version() != 1 {
		t.Fatalf("expected version 1, got %d", next.Version())
	}
	if _, ok := next.Definition(a.Type); ok {
		t.Fatalf("old name should be gone")
	}
	if _, ok := next.MethodDefinition(w.Ref("La/a;->compute(La/a;)V")); !ok {
		t.Fatalf("method should be rewritten structurally")
	}
	if _, ok := next.FieldDefinition(w.FieldRef("La/a;->value:La/a;")); !ok {
		t.Fatalf("field should be rewritten structurally")
	}
	if err := testkit.CheckGraphInvariants(next); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestMergeKeepsTargetMethod(t *testing.T) {
	w := testkit.NewWorld()
	base := w.Program("La/Base;", "")
	baseM := w.Method(base, "m", "()V", pub)
	sub := w.Program("La/Sub;", "La/Base;")
	w.Method(sub, "m", "()V", pub)
	w.Method(sub, "extra", "()V", pub)
	g := w.Build()

	step := lens.NewStep(w.In, "merge").
		MergeTypes(base.Type, sub.Type).
		MergeMethods(baseM.Ref, nil, w.Ref("La/Sub;->m()V")).
		Build()
	next := fixup.Apply(g, lens.Identity().Append(step), nil)

	merged, ok := next.Definition(base.Type)
	if !ok || next.Len() != 2 {
		t.Fatalf("expected Object and Base, got %d classes", next.Len())
	}
	if merged.Super != w.In.Builtins().Object {
		t.Fatalf("merged class keeps Base's header")
	}
	if len(merged.Methods) != 2 || merged.Method(w.In.Intern("extra"), w.In.MustProto("()V")) == nil {
		t.Fatalf("expected m and extra on the merged class, got %d methods", len(merged.Methods))
	}
}

func TestRemovedMembersDisappear(t *testing.T) {
	w := testkit.NewWorld()
	c := w.Program("La/C;", "")
	dead := w.Method(c, "dead", "()V", pub)
	w.Method(c, "live", "()V", pub)
	w.Program("La/Unused;", "")
	g := w.Build()

	step := lens.NewStep(w.In, "shake").RemoveMethod(dead.Ref).RemoveType(w.Type("La/Unused;")).Build()
	next := fixup.Apply(g, lens.Identity().Append(step), nil)
	if _, ok := next.MethodDefinition(dead.Ref); ok {
		t.Fatalf("removed method still defined")
	}
	if _, ok := next.Definition(w.Type("La/Unused;")); ok {
		t.Fatalf("removed class still defined")
	}
}

func TestRenamingLibraryIsFatal(t *testing.T) {
	w := testkit.NewWorld()
	w.Class("Ljava/util/List;", graph.Library, pub|graph.AccInterface|graph.AccAbstract, "")
	g := w.Build()
	step := lens.NewStep(w.In, "bad").MapType(w.Type("Ljava/util/List;"), w.Type("La/L;")).Build()

	var err error
	func() {
		defer invariant.Recover(&err)
		fixup.Apply(g, lens.Identity().Append(step), nil)
	}()
	if _, ok := invariant.As(err); !ok {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

// Code keeps its version; walking it against the new chain resolves in the
// new graph.
func TestOldCodeResolvesAfterFixup(t *testing.T) {
	w := testkit.NewWorld()
	helper := w.Program("La/Helper;", "")
	w.Method(helper, "help", "()V", pub|graph.AccStatic)
	main := w.Program("LMain;", "")
	w.Method(main, "main", "()V", pub|graph.AccStatic, w.Invoke(graph.OpInvokeStatic, "La/Helper;->help()V"))
	g := w.Build()

	step := lens.NewStep(w.In, "minify").
		MapType(helper.Type, w.Type("La/h;")).
		MoveMethod(w.Ref("La/Helper;->help()V"), w.Ref("La/h;->a()V")).
		Build()
	chain := lens.Identity().Append(step)
	next := fixup.Apply(g, chain, nil)
	g.Discard()

	mainDef, _ := next.MethodDefinition(w.Ref("LMain;->main()V"))
	if mainDef.Code.Version != 0 {
		t.Fatalf("code should keep its version")
	}
	engine := resolve.NewEngine(next)
	var got []resolve.Outcome
	rec := &staticRecorder{resolve: func(m types.MethodRef) {
		got = append(got, engine.ResolveMethod(m, resolve.From(mainDef.Ref.Holder), types.InvokeStatic))
	}}
	uses.Walk(mainDef, chain, rec)
	if len(got) != 1 || !got[0].IsSuccess() || got[0].Method.Ref != w.Ref("La/h;->a()V") {
		t.Fatalf("expected the renamed helper to resolve")
	}
}

type staticRecorder struct {
	uses.NopRegistry
	resolve func(types.MethodRef)
}

func (r *staticRecorder) RegisterInvokeStatic(m types.MethodRef) { r.resolve(m) }
