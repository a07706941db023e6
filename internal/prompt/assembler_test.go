package prompt

import (
	"strings"
	"testing"
)

func TestAssembleOrdering(t *testing.T) {
	a := NewAssembler(4000, 6)
	history := []Turn{
		{Role: "user", Content: "who is struggling?"},
		{Role: "assistant", Content: "Three students are below 70%."},
	}
	analytics := MarshalAnalytics("class_overview", []map[string]any{
		{"class_average": 81.4, "total_students": 24},
	})
	memory := "=== RELEVANT PAST CONTEXT ===\nYou previously discussed related topics:\n\n[Past user message]: earlier question\n\nUse this context if relevant to the current question.\n================================\n\n"

	got := a.Assemble(7, analytics, memory, history, "what about assignment 3?")

	idxSystem := strings.Index(got, "teaching assistant for teacher #7")
	idxDB := strings.Index(got, "=== Database Query Results ===")
	idxMem := strings.Index(got, "=== RELEVANT PAST CONTEXT ===")
	idxHist := strings.Index(got, "USER: who is struggling?")
	idxTail := strings.Index(got, "USER: what about assignment 3?")
	for name, idx := range map[string]int{
		"system": idxSystem, "db": idxDB, "memory": idxMem, "history": idxHist, "tail": idxTail,
	} {
		if idx < 0 {
			t.Fatalf("section %s missing from prompt:\n%s", name, got)
		}
	}
	if !(idxSystem < idxDB && idxDB < idxMem && idxMem < idxHist && idxHist < idxTail) {
		t.Fatalf("sections out of order: system=%d db=%d mem=%d hist=%d tail=%d",
			idxSystem, idxDB, idxMem, idxHist, idxTail)
	}
	if !strings.HasSuffix(got, "ASSISTANT: ") {
		t.Fatalf("prompt must end with assistant cue, got %q", got[len(got)-30:])
	}
}

func TestAssembleHistoryCap(t *testing.T) {
	a := NewAssembler(4000, 2)
	history := []Turn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
	}
	got := a.Assemble(1, "", "", history, "now")
	if strings.Contains(got, "USER: first") {
		t.Fatal("oldest turn should be dropped by the turn cap")
	}
	if !strings.Contains(got, "ASSISTANT: second") || !strings.Contains(got, "USER: third") {
		t.Fatalf("recent turns missing:\n%s", got)
	}
}

func TestAssembleBudgetTrimsOldestFirst(t *testing.T) {
	a := NewAssembler(160, 6)
	long := strings.Repeat("x", 2000)
	history := []Turn{
		{Role: "user", Content: long},
		{Role: "assistant", Content: "short answer"},
	}
	got := a.Assemble(1, "", "", history, "next question")
	if strings.Contains(got, long) {
		t.Fatal("oversized oldest turn should be evicted by the token budget")
	}
	if !strings.Contains(got, "ASSISTANT: short answer") {
		t.Fatalf("newest turn should survive trimming:\n%s", got)
	}
}

func TestMarshalAnalyticsEmpty(t *testing.T) {
	if got := MarshalAnalytics("missing_assignments", nil); got != "" {
		t.Fatalf("expected empty block for no records, got %q", got)
	}
}
