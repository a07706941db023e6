package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	LLMProvider     string
	OllamaBaseURL   string
	OllamaModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	StreamTimeout   time.Duration

	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingCacheItems int
	MemoryPath          string
	MemoryResults       int
	MemoryOverfetch     int
	MemoryMaxDistance   float64
	ContextTokenBudget  int
	HistoryTurns        int

	AnalyticsDatabaseURL string
	GradeThreshold       float64

	ArchivePath string

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8090"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "gradeinsight"),
		AllowAnyOrigin:    false,
		LLMProvider:       envOrDefault("LLM_PROVIDER", "ollama"),
		OllamaBaseURL:     envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       envOrDefault("OLLAMA_MODEL", "llama3.2:3b"),
		AnthropicAPIKey:   trimmedEnv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOrDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		EmbeddingProvider: envOrDefault("EMBEDDING_PROVIDER", "ollama"),
		EmbeddingModel:    envOrDefault("EMBEDDING_MODEL", "nomic-embed-text"),
		MemoryPath:        trimmedEnv("MEMORY_PATH"),
		ArchivePath:       trimmedEnv("ARCHIVE_PATH"),
		// Analytics is an optional capability: empty URL disables it.
		AnalyticsDatabaseURL: trimmedEnv("DATABASE_URL"),
		GradeThreshold:       70.0,
		StreamTimeout:        120 * time.Second,
		ShutdownTimeout:      15 * time.Second,
		EmbeddingCacheItems:  10000,
		MemoryResults:        3,
		MemoryOverfetch:      2,
		MemoryMaxDistance:    0.7,
		ContextTokenBudget:   4000,
		HistoryTurns:         6,
		RateLimitMaxRequests: 60,
		RateLimitWindow:      60 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.StreamTimeout, err = durationFromEnv("LLM_STREAM_TIMEOUT", cfg.StreamTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitWindow, err = durationFromEnv("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitMaxRequests, err = intFromEnv("RATE_LIMIT_MAX_REQUESTS", cfg.RateLimitMaxRequests)
	if err != nil {
		return Config{}, err
	}
	cfg.EmbeddingCacheItems, err = intFromEnv("EMBEDDING_CACHE_ITEMS", cfg.EmbeddingCacheItems)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryResults, err = intFromEnv("MEMORY_RESULTS", cfg.MemoryResults)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryOverfetch, err = intFromEnv("MEMORY_OVERFETCH_FACTOR", cfg.MemoryOverfetch)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryMaxDistance, err = floatFromEnv("MEMORY_MAX_DISTANCE", cfg.MemoryMaxDistance)
	if err != nil {
		return Config{}, err
	}
	cfg.ContextTokenBudget, err = intFromEnv("CONTEXT_TOKEN_BUDGET", cfg.ContextTokenBudget)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryTurns, err = intFromEnv("HISTORY_TURNS", cfg.HistoryTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.GradeThreshold, err = floatFromEnv("GRADE_THRESHOLD", cfg.GradeThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "ollama", "anthropic", "mock":
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER must be one of ollama|anthropic|mock, got %q", cfg.LLMProvider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider)) {
	case "ollama", "mock":
	default:
		return Config{}, fmt.Errorf("EMBEDDING_PROVIDER must be one of ollama|mock, got %q", cfg.EmbeddingProvider)
	}
	if cfg.RateLimitMaxRequests <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if cfg.RateLimitWindow < time.Second {
		return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	if cfg.MemoryResults <= 0 {
		return Config{}, fmt.Errorf("MEMORY_RESULTS must be positive")
	}
	if cfg.MemoryOverfetch < 1 {
		return Config{}, fmt.Errorf("MEMORY_OVERFETCH_FACTOR must be at least 1")
	}
	if cfg.MemoryMaxDistance <= 0 || cfg.MemoryMaxDistance > 2 {
		return Config{}, fmt.Errorf("MEMORY_MAX_DISTANCE must be in (0, 2]")
	}
	if cfg.ContextTokenBudget <= 0 {
		return Config{}, fmt.Errorf("CONTEXT_TOKEN_BUDGET must be positive")
	}
	if cfg.HistoryTurns <= 0 {
		return Config{}, fmt.Errorf("HISTORY_TURNS must be positive")
	}
	if cfg.GradeThreshold <= 0 || cfg.GradeThreshold > 100 {
		return Config{}, fmt.Errorf("GRADE_THRESHOLD must be in (0, 100]")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
