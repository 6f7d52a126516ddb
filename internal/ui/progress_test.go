package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"shrinker/internal/pipeline"
)

func TestProgressModelTracksPasses(t *testing.T) {
	m := NewProgressModel("shrink", nil).(*progressModel)
	events := []pipeline.Event{
		{Pass: "analyze", Index: 0, Status: pipeline.StatusQueued, Version: -1},
		{Pass: "merge", Index: 1, Status: pipeline.StatusQueued, Version: -1},
		{Pass: "analyze", Index: 0, Status: pipeline.StatusWorking, Version: -1},
		{Pass: "analyze", Index: 0, Status: pipeline.StatusDone, Elapsed: 2 * time.Millisecond, Version: -1},
		{Pass: "merge", Index: 1, Status: pipeline.StatusWorking, Version: -1},
		{Pass: "merge", Index: 1, Status: pipeline.StatusError, Err: errors.New("boom"), Version: -1},
	}
	for _, ev := range events {
		m.Update(eventMsg(ev))
	}
	if len(m.items) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(m.items))
	}
	if m.items[0].status != pipeline.StatusDone || m.items[0].detail != "2.0 ms" {
		t.Fatalf("unexpected first item %+v", m.items[0])
	}
	if m.items[1].status != pipeline.StatusError || m.items[1].detail != "boom" {
		t.Fatalf("unexpected second item %+v", m.items[1])
	}
	m.Update(doneMsg{})
	view := m.View()
	if !strings.Contains(view, "done: shrink") || !strings.Contains(view, "merge (boom)") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := Truncate("La/very/long/Name;", 10); got != "La/very..." {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("短い名前", 5); got != "短..." {
		t.Fatalf("wide runes should count double, got %q", got)
	}
	if got := Pad("ab", 4); got != "ab  " {
		t.Fatalf("Pad = %q", got)
	}
}
