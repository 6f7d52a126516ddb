package diag

import (
	"sync"
	"testing"
)

func TestBagLimitAndErrors(t *testing.T) {
	b := NewBag(2)
	rep := BagReporter{Bag: b}
	ReportWarning(rep, LnkNoSuchMethod, Location{Subject: "LA;->m()V"}, "not declared")
	ReportError(rep, GraphDuplicateClass, Location{Subject: "LA;"}, "program beats library")
	ReportInfo(rep, LnkInfo, Location{Subject: "LB;"}, "dropped")
	if b.Len() != 2 || b.Dropped() != 1 {
		t.Fatalf("expected 2 kept and 1 dropped, got %d/%d", b.Len(), b.Dropped())
	}
	if !b.HasErrors() {
		t.Fatalf("expected errors")
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	b := NewBag(0)
	var wg sync.WaitGroup
	subjects := []string{"LC;", "LA;", "LB;", "LA;"}
	for _, s := range subjects {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			b.Add(New(SevWarning, LnkClassNotFound, Location{Subject: s, Context: "LMain;->main()V"}, "missing"))
		}(s)
	}
	wg.Wait()
	b.Sort()
	b.Dedup()
	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 unique diagnostics, got %d", len(items))
	}
	for i, want := range []string{"LA;", "LB;", "LC;"} {
		if items[i].Primary.Subject != want {
			t.Fatalf("item %d subject = %s, want %s", i, items[i].Primary.Subject, want)
		}
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: b})
	loc := Location{Subject: "LA;->f:I", Context: "LMain;->main()V"}
	r.Report(LnkNoSuchField, SevWarning, loc, "not declared", nil)
	r.Report(LnkNoSuchField, SevWarning, loc, "not declared", nil)
	r.Report(LnkNoSuchField, SevWarning, Location{Subject: "LA;->f:I"}, "not declared", nil)
	if b.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", b.Len())
	}
}

func TestCodeIDs(t *testing.T) {
	if LnkNoSuchMethod.ID() != "LNK1002" || GraphDuplicateClass.ID() != "GRF2001" {
		t.Fatalf("unexpected ids %s %s", LnkNoSuchMethod.ID(), GraphDuplicateClass.ID())
	}
	if Code(9999).Title() != "Unknown error" {
		t.Fatalf("unknown codes fall back to the generic title")
	}
}
