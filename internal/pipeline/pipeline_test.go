package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"shrinker/internal/diag"
	"shrinker/internal/graph"
	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/pipeline"
	"shrinker/internal/testkit"
	"shrinker/internal/trace"
)

const pub = graph.AccPublic

func program() *testkit.World {
	w := testkit.NewWorld()
	a := w.Program("La/A;", "")
	w.Field(a, "x", "I", pub)
	b := w.Program("La/B;", "")
	w.Field(b, "x", "I", pub)
	main := w.Program("LMain;", "")
	w.Method(main, "main", "()V", pub|graph.AccStatic,
		w.New("La/B;"),
		w.Put(false, "La/B;->x:I"),
		w.Get(false, "La/A;->x:I"),
	)
	return w
}

func TestRunCommitsStepsAndDiscardsOldGraph(t *testing.T) {
	w := program()
	g := w.Build()
	coord := pipeline.NewCoordinator(pipeline.NewSnapshot(g, lens.Identity(), nil), pipeline.Options{Jobs: 2})

	merge := pipeline.StepPass{PassName: "merge", Build: func(s *pipeline.Snapshot) *lens.Step {
		in := s.Graph.Interner()
		return lens.NewStep(in, "merge").
			MergeTypes(w.Type("La/A;"), w.Type("La/B;")).
			MergeFields(w.FieldRef("La/A;->x:I"), w.FieldRef("La/B;->x:I")).
			Build()
	}}
	noop := pipeline.StepPass{PassName: "noop", Build: func(*pipeline.Snapshot) *lens.Step { return nil }}
	if err := coord.Run(context.Background(), merge, noop); err != nil {
		t.Fatalf("run: %v", err)
	}
	cur := coord.Current()
	if cur.Version() != 1 || cur.Graph.Version() != 1 {
		t.Fatalf("expected version 1, got %d", cur.Version())
	}
	if _, ok := cur.Graph.Definition(w.Type("La/B;")); ok {
		t.Fatalf("B should be merged away")
	}
	if !g.Discarded() {
		t.Fatalf("the superseded graph must be discarded")
	}
	var err error
	func() {
		defer invariant.Recover(&err)
		g.Definition(w.Type("La/A;"))
	}()
	if _, ok := invariant.As(err); !ok {
		t.Fatalf("querying a discarded graph must be fatal, got %v", err)
	}

	report := coord.Timer().Report()
	if len(report.Phases) != 2 || report.Phases[0].Version != 1 || report.Phases[1].Version != -1 {
		t.Fatalf("unexpected timer phases %+v", report.Phases)
	}
}

func TestAnalysisFollowsLaterSteps(t *testing.T) {
	w := program()
	s := pipeline.NewSnapshot(w.Build(), lens.Identity(), nil)
	analysis, err := pipeline.Analyze(context.Background(), s, 4, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := analysis.FieldAccess.At(s.Chain).Len(); got != 2 {
		t.Fatalf("expected A.x and B.x, got %d fields", got)
	}

	coord := pipeline.NewCoordinator(s, pipeline.Options{})
	err = coord.Run(context.Background(), pipeline.StepPass{PassName: "merge", Build: func(s *pipeline.Snapshot) *lens.Step {
		return lens.NewStep(s.Graph.Interner(), "merge").
			MergeTypes(w.Type("La/A;"), w.Type("La/B;")).
			MergeFields(w.FieldRef("La/A;->x:I"), w.FieldRef("La/B;->x:I")).
			Build()
	}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	chain := coord.Current().Chain

	access := analysis.FieldAccess.Get(chain)
	info, ok := access.Get(w.FieldRef("La/A;->x:I"))
	if !ok || !info.IsRead() || !info.IsWritten() {
		t.Fatalf("merged field should carry both the read and the write")
	}
	if !analysis.Allocations.Get(chain).IsInstantiated(w.Type("La/A;")) {
		t.Fatalf("allocation of B should be reported as A")
	}
	sum, ok := analysis.FieldSummaries.Get(chain).Get(w.FieldRef("La/A;->x:I"))
	if !ok || sum.Readers != 1 || sum.Writers != 1 {
		t.Fatalf("unexpected merged summary %+v", sum)
	}

	var violation error
	func() {
		defer invariant.Recover(&violation)
		analysis.FieldAccess.At(chain)
	}()
	if _, ok := invariant.As(violation); !ok {
		t.Fatalf("reading a stale fact without rewriting must be fatal")
	}
}

func TestViolationInWorkerStopsRun(t *testing.T) {
	w := program()
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	var dump bytes.Buffer
	coord := pipeline.NewCoordinator(pipeline.NewSnapshot(w.Build(), lens.Identity(), ring), pipeline.Options{
		Jobs:      2,
		Tracer:    ring,
		CrashDump: &dump,
	})
	broken := brokenPass{}
	err := coord.Run(context.Background(), broken)
	v, ok := invariant.As(err)
	if !ok {
		t.Fatalf("expected violation, got %v", err)
	}
	if v.Op != "test.broken" {
		t.Fatalf("unexpected violation %v", v)
	}
	if !strings.Contains(dump.String(), "broken") {
		t.Fatalf("ring dump should include the pass span, got %q", dump.String())
	}
	if coord.Current().Version() != 0 {
		t.Fatalf("failed pass must not commit")
	}
}

type brokenPass struct{}

func (brokenPass) Name() string { return "broken" }

func (brokenPass) Run(ctx context.Context, s *pipeline.Snapshot) (pipeline.Result, error) {
	err := pipeline.ForEachClass(ctx, s, 2, func(context.Context, *graph.ClassDef) error {
		invariant.Failf("test.broken", "", "boom")
		return nil
	})
	return pipeline.Result{}, err
}

func TestPassErrorIsWrapped(t *testing.T) {
	w := program()
	coord := pipeline.NewCoordinator(pipeline.NewSnapshot(w.Build(), lens.Identity(), nil), pipeline.Options{})
	sentinel := errors.New("nope")
	err := coord.Run(context.Background(), failingPass{err: sentinel})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

type failingPass struct{ err error }

func (failingPass) Name() string { return "failing" }

func (p failingPass) Run(context.Context, *pipeline.Snapshot) (pipeline.Result, error) {
	return pipeline.Result{}, p.err
}

func TestReportTimings(t *testing.T) {
	w := program()
	coord := pipeline.NewCoordinator(pipeline.NewSnapshot(w.Build(), lens.Identity(), nil), pipeline.Options{})
	if err := coord.Run(context.Background(), pipeline.StepPass{PassName: "noop", Build: func(*pipeline.Snapshot) *lens.Step { return nil }}); err != nil {
		t.Fatalf("run: %v", err)
	}
	bag := diag.NewBag(0)
	coord.ReportTimings(diag.BagReporter{Bag: bag})
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.ObsTimings || len(items[0].Notes) != 1 {
		t.Fatalf("expected one timing diagnostic, got %v", items)
	}
	if !strings.Contains(items[0].Notes[0].Msg, `"name":"noop"`) {
		t.Fatalf("timing note should carry the JSON report: %s", items[0].Notes[0].Msg)
	}
}

func TestProgressEvents(t *testing.T) {
	w := program()
	events := make(chan pipeline.Event, 16)
	coord := pipeline.NewCoordinator(pipeline.NewSnapshot(w.Build(), lens.Identity(), nil), pipeline.Options{
		Progress: pipeline.ChannelSink{Ch: events},
	})
	noop := pipeline.StepPass{PassName: "noop", Build: func(*pipeline.Snapshot) *lens.Step { return nil }}
	err := coord.Run(context.Background(), noop, failingPass{err: errors.New("nope")}, noop)
	if err == nil {
		t.Fatalf("expected the failing pass to stop the run")
	}
	close(events)
	var got []string
	for ev := range events {
		got = append(got, ev.Pass+":"+string(ev.Status))
	}
	want := []string{
		"noop:queued", "failing:queued", "noop:queued",
		"noop:working", "noop:done",
		"failing:working", "failing:error",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("events = %v, want %v", got, want)
	}
}
