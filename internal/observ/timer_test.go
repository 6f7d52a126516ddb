package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("analyze")
	tm.End(a, "42 methods")
	b := tm.Begin("pass:merge")
	tm.Committed(b, 1)
	tm.End(b, "")
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(r.Phases))
	}
	if r.Phases[0].Version != -1 || r.Phases[1].Version != 1 {
		t.Fatalf("unexpected versions %+v", r.Phases)
	}
	s := tm.Summary()
	if !strings.Contains(s, "pass:merge") || !strings.Contains(s, "v1") || !strings.Contains(s, "// 42 methods") {
		t.Fatalf("unexpected summary:\n%s", s)
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("expected empty report, got %+v", r)
	}
}
