package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shrinker/internal/diag"
	"shrinker/internal/graph"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

const sample = `
[[class]]
type = "La/I;"
flags = ["public", "interface"]

  [[class.method]]
  name = "m"
  proto = "()V"
  flags = ["public", "abstract"]

[[class]]
type = "La/A;"
flags = ["public"]
interfaces = ["La/I;"]
nest_members = ["La/A$Inner;"]

  [[class.field]]
  name = "count"
  type = "I"
  flags = ["private", "static"]

  [[class.method]]
  name = "m"
  proto = "()V"
  flags = ["public"]
  code = [
    "new-instance La/A;",
    "sget La/A;->count:I",
    "invoke-interface La/I;->m()V",
    "lambda La/I; m()V La/A;->lambda$0()V",
  ]

[[class]]
type = "La/A$Inner;"
nest_host = "La/A;"

[[class]]
type = "Ljava/util/List;"
provenance = "library"
flags = ["public", "interface"]
`

func TestParseProgram(t *testing.T) {
	in := types.NewInterner()
	p, err := ParseProgram(in, sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bag := diag.NewBag(0)
	g := p.Build(diag.BagReporter{Bag: bag})
	if len(bag.Items()) != 0 {
		t.Fatalf("unexpected model diagnostics %v", bag.Items())
	}
	if g.Len() != 5 {
		t.Fatalf("expected 4 classes plus Object, got %d", g.Len())
	}

	iface, ok := g.Definition(in.MustType("La/I;"))
	if !ok || !iface.IsInterface() || !iface.IsAbstract() {
		t.Fatalf("interfaces are implicitly abstract")
	}
	list, _ := g.Definition(in.MustType("Ljava/util/List;"))
	if !list.IsLibrary() {
		t.Fatalf("provenance not decoded")
	}
	if !g.SameNest(in.MustType("La/A;"), in.MustType("La/A$Inner;")) {
		t.Fatalf("nest not decoded")
	}

	m, ok := g.MethodDefinition(mustRef(t, in, "La/A;->m()V"))
	if !ok || m.Code == nil || len(m.Code.Ops) != 4 {
		t.Fatalf("code not decoded: %+v", m)
	}
	want := []string{
		"new-instance La/A;",
		"sget La/A;->count:I",
		"invoke-interface La/I;->m()V",
		"lambda La/I; m()V La/A;->lambda$0()V",
	}
	for i, op := range m.Code.Ops {
		if got := graph.FormatOp(in, op); got != want[i] {
			t.Fatalf("op %d = %q, want %q", i, got, want[i])
		}
	}
}

func mustRef(t *testing.T, in *types.Interner, s string) types.MethodRef {
	t.Helper()
	ref, err := in.ParseMethodRef(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return ref
}

func TestParseProgramErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown key", "[[class]]\ntype = \"LA;\"\nsupper = \"LB;\"", "unknown keys"},
		{"bad provenance", "[[class]]\ntype = \"LA;\"\nprovenance = \"jar\"", "unknown provenance"},
		{"array class", "[[class]]\ntype = \"[LA;\"", "not a class type"},
		{"bad flag", "[[class]]\ntype = \"LA;\"\nflags = [\"sealed\"]", "unknown access flag"},
		{"bad op", "[[class]]\ntype = \"LA;\"\n[[class.method]]\nname = \"m\"\nproto = \"()V\"\ncode = [\"jump LA;\"]", "unknown instruction"},
		{"abstract code", "[[class]]\ntype = \"LA;\"\n[[class.method]]\nname = \"m\"\nproto = \"()V\"\nflags = [\"abstract\"]\ncode = [\"new-instance LA;\"]", "method with code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram(types.NewInterner(), tt.text)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseOp(t *testing.T) {
	in := types.NewInterner()
	tests := []struct {
		line string
		ok   bool
	}{
		{"invoke-super La/B;->m(I)V", true},
		{"check-cast [La/B;", true},
		{"iput La/B;->x:J", true},
		{"lambda La/F; La/G; apply()V La/B;->impl()V", true},
		{"invoke-virtual", false},
		{"new-instance La/B; La/C;", false},
		{"lambda apply()V La/B;->impl()V", false},
		{"lambda La/F; apply La/B;->impl()V", false},
		{"", false},
	}
	for _, tt := range tests {
		op, err := ParseOp(in, tt.line)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseOp(%q) error = %v, want ok=%v", tt.line, err, tt.ok)
		}
		if tt.ok && graph.FormatOp(in, op) != tt.line {
			t.Fatalf("ParseOp(%q) formats back as %q", tt.line, graph.FormatOp(in, op))
		}
	}
}

func TestLoadStepsBuildsChain(t *testing.T) {
	in := types.NewInterner()
	dir := t.TempDir()
	path := filepath.Join(dir, "steps.toml")
	err := os.WriteFile(path, []byte(`
[[step]]
name = "merge"
remove_fields = ["La/C;->dead:I"]

  [[step.merge_types]]
  into = "La/A;"
  from = ["La/B;"]

  [[step.move_method]]
  from = "La/B;->m(I)V"
  to = "La/A;->m$b()V"
  removed_params = [0]

  [[step.holder_kind]]
  type = "La/C;"
  interface = true

[[step]]
  [[step.map_type]]
  from = "La/A;"
  to = "La/Z;"
`), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	steps, err := LoadSteps(in, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(steps) != 2 || steps[0].Name() != "merge" || steps[1].Name() != "step-2" {
		t.Fatalf("unexpected steps")
	}
	chain := lens.Identity()
	for _, s := range steps {
		chain = chain.Append(s)
	}
	got := chain.LookupMethod(mustRef(t, in, "La/B;->m(I)V"), types.InvokeVirtual, 0)
	if m, ok := got.Live(); !ok || in.MethodString(m) != "La/Z;->m$b()V" {
		t.Fatalf("lookup through both steps = %s", in.MethodString(got.Method))
	}
	if got := chain.LookupMethod(mustRef(t, in, "La/C;->n()V"), types.InvokeVirtual, 0); got.Kind != types.InvokeInterface {
		t.Fatalf("holder kind change should remap the invoke kind, got %v", got.Kind)
	}
	dead, _ := in.ParseFieldRef("La/C;->dead:I")
	if _, ok := chain.LookupField(dead, 0).Live(); ok {
		t.Fatalf("removed field should be reported removed")
	}
}

func TestParseStepsRejectsConflicts(t *testing.T) {
	_, err := ParseSteps(types.NewInterner(), `
[[step]]
name = "twice"
remove_types = ["La/B;"]
  [[step.map_type]]
  from = "La/B;"
  to = "La/C;"
`)
	if err == nil || !strings.Contains(err.Error(), "already mapped") {
		t.Fatalf("expected conflict error, got %v", err)
	}
	_, err = ParseSteps(types.NewInterner(), `
[[step]]
  [[step.move_method]]
  from = "La/B;->m(I)V"
  to = "La/A;->m()V"
`)
	if err == nil || !strings.Contains(err.Error(), "no prototype change explains it") {
		t.Fatalf("expected prototype error, got %v", err)
	}
}
