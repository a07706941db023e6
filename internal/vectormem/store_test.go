package vectormem

import (
	"context"
	"testing"

	"github.com/gradeinsight/assistant/internal/embedding"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("", embedding.NewMockProvider())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestInsertAndSelfQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, "conv-1", "user", "unit test message", "2025-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected a record id")
	}

	matches, err := s.Search(ctx, "unit test message", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Content != "unit test message" {
		t.Fatalf("content = %q", matches[0].Content)
	}
	// Self-similarity is maximal: distance ≈ 0.
	if matches[0].Distance > 0.001 {
		t.Fatalf("self-query distance = %f, want ≈ 0", matches[0].Distance)
	}
}

func TestInsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.Insert(ctx, "conv-1", "user", "same turn", "2025-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	id2, err := s.Insert(ctx, "conv-1", "user", "same turn", "2025-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %q vs %q", id1, id2)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
}

func TestInsertWhitespaceNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, "conv-1", "user", "   ", "")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != "" {
		t.Fatalf("whitespace insert returned id %q", id)
	}
	if got := s.Count(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}

func TestQueryClampsToCollectionSize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, "conv-1", "user", "only record", ""); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	matches, err := s.Search(ctx, "only record", 10, nil)
	if err != nil {
		t.Fatalf("Search with oversized k: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
}

func TestMetadataFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, "conv-1", "user", "grades question", ""); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, "conv-2", "assistant", "grades answer", ""); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	matches, err := s.Search(ctx, "grades", 2, map[string]string{"role": "assistant"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, m := range matches {
		if m.Role != "assistant" {
			t.Fatalf("filter leaked role %q", m.Role)
		}
	}
}

func TestClearResetsStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, "conv-1", "user", "to be cleared", ""); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := s.Count(); got != 0 {
		t.Fatalf("count after clear = %d, want 0", got)
	}
	stats := s.Stats()
	if stats.TotalMessages != 0 || stats.Dimensions != 0 {
		t.Fatalf("stats after clear = %+v", stats)
	}

	// The store stays usable after a clear.
	if _, err := s.Insert(ctx, "conv-1", "user", "fresh start", ""); err != nil {
		t.Fatalf("Insert after clear: %v", err)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
}
