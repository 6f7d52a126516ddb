package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testModel = `
[[class]]
type = "La/Base;"
flags = ["public"]
  [[class.method]]
  name = "m"
  proto = "()V"
  flags = ["public"]

[[class]]
type = "La/Sub;"
flags = ["public"]
super = "La/Base;"
  [[class.method]]
  name = "m"
  proto = "()V"
  flags = ["public"]
  [[class.field]]
  name = "count"
  type = "I"
  flags = ["public"]

[[class]]
type = "La/Main;"
flags = ["public"]
  [[class.method]]
  name = "main"
  proto = "()V"
  flags = ["public", "static"]
  code = [
    "new-instance La/Sub;",
    "invoke-virtual La/Base;->m()V",
    "iput La/Sub;->count:I",
  ]
`

const testSteps = `
[[step]]
name = "rename"
  [[step.map_type]]
  from = "La/Sub;"
  to = "La/Impl;"
`

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"app.toml":    testModel,
		"steps.toml":  testSteps,
		"shrink.toml": "jobs = 2\n[program]\nmodel = \"app.toml\"\nsteps = [\"steps.toml\"]\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, "shrink.toml")
}

func execute(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfg, "--color", "off"}, args...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("shrink %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCommands(t *testing.T) {
	cfg := setupProject(t)
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"resolve", []string{"resolve", "La/Sub;->m()V", "--kind", "virtual"},
			[]string{"outcome success", "La/Sub;->m()V [public]"}},
		{"resolve field", []string{"resolve", "La/Sub;->count:I", "--kind", "virtual", "--context", "La/Main;"},
			[]string{"outcome success", "La/Sub;->count:I"}},
		{"resolve missing", []string{"resolve", "La/Base;->n()V"},
			[]string{"no-such-member (not declared)"}},
		{"dispatch", []string{"dispatch", "La/Base;->m()V"},
			[]string{"target  single La/Sub;->m()V"}},
		{"lens", []string{"lens", "La/Sub;->m()V", "La/Sub;"},
			[]string{"step 1 rename", "    La/Sub; -> La/Impl;", "La/Sub;->m()V => La/Impl;->m()V (virtual)", "La/Sub; => La/Impl;"}},
		{"lens original", []string{"lens", "--original", "La/Impl;->count:I"},
			[]string{"La/Impl;->count:I <= La/Sub;->count:I"}},
		{"classes", []string{"classes", "--program"},
			[]string{"La/Base;", "La/Sub;", "4 classes (3 program), version 0, fingerprint"}},
		{"run", []string{"run", "--ui", "off"},
			[]string{"instantiated", "La/Impl;", "La/Impl;->count:I", "write only", "final version 1"}},
		{"version", []string{"version", "--format", "json"},
			[]string{`"tool": "shrink"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := execute(t, cfg, tt.args...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Fatalf("output of %v lacks %q:\n%s", tt.args, w, out)
				}
			}
		})
	}
}

func TestClassesApplySteps(t *testing.T) {
	cfg := setupProject(t)
	out := execute(t, cfg, "classes", "--apply", "--program")
	if !strings.Contains(out, "La/Impl;") || strings.Contains(out, "La/Sub;") {
		t.Fatalf("renamed class expected after applying steps:\n%s", out)
	}
	if !strings.Contains(out, "version 1") {
		t.Fatalf("graph should be at version 1:\n%s", out)
	}
}

func TestLensNamesRemovingStep(t *testing.T) {
	cfg := setupProject(t)
	drop := filepath.Join(filepath.Dir(cfg), "drop.toml")
	content := "[[step]]\nname = \"drop\"\nremove_types = [\"La/Main;\"]\n"
	if err := os.WriteFile(drop, []byte(content), 0o600); err != nil {
		t.Fatalf("write steps: %v", err)
	}
	out := execute(t, cfg, "lens", "--original=false", "--steps", drop, "La/Main;", "[La/Main;", "La/Sub;")
	for _, want := range []string{
		"La/Main; => removed (step 1 drop)",
		"[La/Main; => removed (step 1 drop)",
		"La/Sub; => La/Sub;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("lens output lacks %q:\n%s", want, out)
		}
	}
}

func TestIsFieldRef(t *testing.T) {
	if !isFieldRef("La/A;->f:I") || isFieldRef("La/A;->m()V") || isFieldRef("La/A;") {
		t.Fatalf("isFieldRef misclassifies references")
	}
}
