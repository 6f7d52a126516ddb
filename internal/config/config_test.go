package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shrinker/internal/trace"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
jobs = 3
timings = true

[program]
model = "model/app.toml"
steps = ["steps/merge.toml"]

[trace]
level = "detail"
mode = "both"
output = "trace.ndjson"
heartbeat = "250ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Jobs != 3 || !cfg.Timings {
		t.Fatalf("unexpected top level settings %+v", cfg)
	}
	if cfg.MaxDiagnostics != 100 || cfg.Trace.RingSize != 4096 {
		t.Fatalf("unset keys should keep defaults, got %+v", cfg)
	}
	if got := cfg.Resolve(cfg.Program.Model); got != filepath.Join(dir, "model", "app.toml") {
		t.Fatalf("model path resolved to %q", got)
	}

	tc, err := cfg.Trace.Tracer()
	if err != nil {
		t.Fatalf("tracer config: %v", err)
	}
	if tc.Level != trace.LevelDetail || tc.Mode != trace.ModeBoth || tc.Heartbeat != 250*time.Millisecond {
		t.Fatalf("unexpected tracer config %+v", tc)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "jobs = ", "failed to parse TOML"},
		{"unknown key", "jobz = 2", "unknown keys: jobz"},
		{"negative jobs", "jobs = -1", "jobs must not be negative"},
		{"bad level", "[trace]\nlevel = \"loud\"", "trace.level"},
		{"bad heartbeat", "[trace]\nheartbeat = \"soon\"", "trace.heartbeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "max_diagnostics = 7\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if cfg.MaxDiagnostics != 7 || cfg.Path != filepath.Join(root, FileName) {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Resolve("x.toml") != "x.toml" {
		t.Fatalf("defaults have no base directory")
	}
}
