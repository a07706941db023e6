package vectormem

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubSearcher struct {
	matches []Match
	err     error
	gotK    int
}

func (s *stubSearcher) Search(_ context.Context, _ string, k int, _ map[string]string) ([]Match, error) {
	s.gotK = k
	return s.matches, s.err
}

func TestGetContextFiltersAndFormats(t *testing.T) {
	stub := &stubSearcher{matches: []Match{
		{ConversationID: "current", Role: "user", Content: "from this conversation", Distance: 0.1},
		{ConversationID: "old-1", Role: "user", Content: "relevant memory", Distance: 0.2},
		{ConversationID: "old-2", Role: "assistant", Content: "relevant memory", Distance: 0.25},
		{ConversationID: "old-3", Role: "assistant", Content: "barely related", Distance: 0.9},
		{ConversationID: "old-4", Role: "", Content: "second relevant memory", Distance: 0.3},
	}}
	r := NewRetriever(stub, 0.7, 2)

	block, err := r.GetContext(context.Background(), "grades", 3, "current")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}

	if stub.gotK != 6 {
		t.Fatalf("over-fetch k = %d, want 6", stub.gotK)
	}
	if strings.Contains(block, "from this conversation") {
		t.Fatal("excluded conversation leaked into context")
	}
	if strings.Count(block, "relevant memory") != 2 { // "relevant memory" + "second relevant memory"
		t.Fatalf("dedup failed:\n%s", block)
	}
	if strings.Contains(block, "barely related") {
		t.Fatal("candidate beyond distance cutoff included")
	}
	if !strings.Contains(block, "[Past unknown message]: second relevant memory") {
		t.Fatalf("missing-role fallback absent:\n%s", block)
	}
	if !strings.HasPrefix(block, "=== RELEVANT PAST CONTEXT ===\n") {
		t.Fatalf("bad block header:\n%s", block)
	}
	if !strings.Contains(block, "Use this context if relevant to the current question.") {
		t.Fatalf("bad block footer:\n%s", block)
	}
}

func TestGetContextTruncatesExcerpts(t *testing.T) {
	long := strings.Repeat("a", 200)
	stub := &stubSearcher{matches: []Match{
		{ConversationID: "old", Role: "user", Content: long, Distance: 0.1},
	}}
	r := NewRetriever(stub, 0.7, 2)

	block, err := r.GetContext(context.Background(), "q", 1, "current")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	want := strings.Repeat("a", 150) + "..."
	if !strings.Contains(block, want) {
		t.Fatal("excerpt not truncated at 150 chars")
	}
	if strings.Contains(block, long) {
		t.Fatal("full content leaked into excerpt")
	}
}

func TestGetContextCapsAtN(t *testing.T) {
	stub := &stubSearcher{matches: []Match{
		{ConversationID: "a", Role: "user", Content: "one", Distance: 0.1},
		{ConversationID: "b", Role: "user", Content: "two", Distance: 0.2},
		{ConversationID: "c", Role: "user", Content: "three", Distance: 0.3},
	}}
	r := NewRetriever(stub, 0.7, 2)

	block, err := r.GetContext(context.Background(), "q", 2, "")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got := strings.Count(block, "[Past "); got != 2 {
		t.Fatalf("got %d excerpts, want 2:\n%s", got, block)
	}
}

func TestGetContextEmptyCases(t *testing.T) {
	r := NewRetriever(&stubSearcher{}, 0.7, 2)

	for _, tc := range []struct {
		name  string
		query string
		n     int
	}{
		{"empty query", "", 3},
		{"whitespace query", "   ", 3},
		{"zero n", "q", 0},
	} {
		block, err := r.GetContext(context.Background(), tc.query, tc.n, "")
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if block != "" {
			t.Fatalf("%s: expected empty block, got %q", tc.name, block)
		}
	}

	// Nothing survives filtering.
	stub := &stubSearcher{matches: []Match{
		{ConversationID: "current", Role: "user", Content: "excluded", Distance: 0.1},
	}}
	r = NewRetriever(stub, 0.7, 2)
	block, err := r.GetContext(context.Background(), "q", 3, "current")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if block != "" {
		t.Fatalf("expected empty block, got %q", block)
	}
}

func TestGetContextPropagatesSearchError(t *testing.T) {
	stub := &stubSearcher{err: errors.New("store offline")}
	r := NewRetriever(stub, 0.7, 2)

	if _, err := r.GetContext(context.Background(), "q", 3, ""); err == nil {
		t.Fatal("expected error from failing searcher")
	}
}
