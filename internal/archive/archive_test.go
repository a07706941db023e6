package archive

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RecordExchange(ctx, "conv-1", 7, "who is failing?", "Three students are."); err != nil {
		t.Fatalf("RecordExchange: %v", err)
	}
	if err := s.RecordExchange(ctx, "conv-1", 7, "and missing work?", "Two have gaps."); err != nil {
		t.Fatalf("RecordExchange: %v", err)
	}

	msgs, err := s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "who is failing?" {
		t.Fatalf("first turn = %+v", msgs[0])
	}
	if msgs[3].Role != "assistant" {
		t.Fatalf("last turn role = %q, want assistant", msgs[3].Role)
	}
}

func TestListTitlesAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	long := "this first question is deliberately much longer than the fifty character title cutoff"
	if err := s.RecordExchange(ctx, "conv-1", 7, long, "ok"); err != nil {
		t.Fatalf("RecordExchange: %v", err)
	}
	if err := s.RecordExchange(ctx, "conv-2", 7, "short", "ok"); err != nil {
		t.Fatalf("RecordExchange: %v", err)
	}
	if err := s.RecordExchange(ctx, "other", 8, "not mine", "ok"); err != nil {
		t.Fatalf("RecordExchange: %v", err)
	}

	convs, err := s.List(ctx, 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	for _, c := range convs {
		if c.ID == "conv-1" {
			if len(c.Title) != 53 { // 50 chars + "..."
				t.Fatalf("title not truncated: %q (%d)", c.Title, len(c.Title))
			}
			if c.Messages != 2 {
				t.Fatalf("message count = %d, want 2", c.Messages)
			}
		}
	}
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RecordExchange(ctx, "conv-1", 7, "hello", "hi"); err != nil {
		t.Fatalf("RecordExchange: %v", err)
	}
	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	msgs, err := s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("messages survived delete: %v", msgs)
	}
}
