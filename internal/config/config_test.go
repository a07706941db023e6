package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BindAddr != ":8090" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.LLMProvider != "ollama" {
		t.Fatalf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.MemoryMaxDistance != 0.7 {
		t.Fatalf("MemoryMaxDistance = %f", cfg.MemoryMaxDistance)
	}
	if cfg.MemoryOverfetch != 2 {
		t.Fatalf("MemoryOverfetch = %d", cfg.MemoryOverfetch)
	}
	if cfg.RateLimitMaxRequests != 60 || cfg.RateLimitWindow != 60*time.Second {
		t.Fatalf("rate limit defaults = %d/%s", cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}
	if cfg.AnalyticsDatabaseURL != "" {
		t.Fatalf("analytics should default to disabled, got %q", cfg.AnalyticsDatabaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("MEMORY_MAX_DISTANCE", "0.5")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMProvider != "mock" {
		t.Fatalf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.MemoryMaxDistance != 0.5 {
		t.Fatalf("MemoryMaxDistance = %f", cfg.MemoryMaxDistance)
	}
	if cfg.RateLimitMaxRequests != 10 || cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("rate limit = %d/%s", cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatal("AllowAnyOrigin should be true")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown llm provider", "LLM_PROVIDER", "gpt4all"},
		{"unknown embedding provider", "EMBEDDING_PROVIDER", "openai"},
		{"bad duration", "LLM_STREAM_TIMEOUT", "soon"},
		{"bad int", "MEMORY_RESULTS", "three"},
		{"zero memory results", "MEMORY_RESULTS", "0"},
		{"distance out of range", "MEMORY_MAX_DISTANCE", "3.0"},
		{"threshold out of range", "GRADE_THRESHOLD", "150"},
		{"bad bool", "APP_ALLOW_ANY_ORIGIN", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}
