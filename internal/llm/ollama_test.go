package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gradeinsight/assistant/internal/config"
)

func TestOllamaStreamForwardsChunks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"response":"Hello","done":false}`)
		fmt.Fprintln(w, `not valid json, should be skipped`)
		fmt.Fprintln(w, `{"response":" world","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer ts.Close()

	s := NewOllamaStreamer(ts.URL, "test-model")
	var chunks []string
	full, err := s.Stream(context.Background(), Request{Prompt: "hi", MaxTokens: 100}, func(c string) error {
		chunks = append(chunks, c)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if full != "Hello world" {
		t.Fatalf("accumulated = %q", full)
	}
	if len(chunks) != 2 || chunks[0] != "Hello" || chunks[1] != " world" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestOllamaStreamUnavailable(t *testing.T) {
	s := NewOllamaStreamer("http://127.0.0.1:1", "test-model")
	_, err := s.Stream(context.Background(), Request{Prompt: "hi"}, func(string) error { return nil })
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestOllamaStreamBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	s := NewOllamaStreamer(ts.URL, "missing-model")
	_, err := s.Stream(context.Background(), Request{Prompt: "hi"}, func(string) error { return nil })
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestOllamaStreamMidStreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"response":"partial","done":false}`)
		fmt.Fprintln(w, `{"error":"out of memory"}`)
	}))
	defer ts.Close()

	s := NewOllamaStreamer(ts.URL, "test-model")
	full, err := s.Stream(context.Background(), Request{Prompt: "hi"}, func(string) error { return nil })
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
	if full != "partial" {
		t.Fatalf("partial text = %q", full)
	}
}

func TestOllamaStreamCallbackAborts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"response":"a","done":false}`)
		fmt.Fprintln(w, `{"response":"b","done":false}`)
	}))
	defer ts.Close()

	stop := errors.New("client gone")
	s := NewOllamaStreamer(ts.URL, "test-model")
	var calls int
	_, err := s.Stream(context.Background(), Request{Prompt: "hi"}, func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want callback error", err)
	}
	if calls != 1 {
		t.Fatalf("callback called %d times after abort, want 1", calls)
	}
}

func TestFactorySelectsProvider(t *testing.T) {
	for provider, want := range map[string]any{
		"ollama":    &OllamaStreamer{},
		"anthropic": &AnthropicStreamer{},
		"mock":      &MockStreamer{},
	} {
		s, err := New(&config.Config{LLMProvider: provider})
		if err != nil {
			t.Fatalf("New(%s): %v", provider, err)
		}
		if fmt.Sprintf("%T", s) != fmt.Sprintf("%T", want) {
			t.Fatalf("New(%s) = %T, want %T", provider, s, want)
		}
	}
	if _, err := New(&config.Config{LLMProvider: "gpt4all"}); err == nil {
		t.Fatal("unknown provider accepted")
	}
}
