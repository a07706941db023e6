package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gradeinsight/assistant/internal/analytics"
	"github.com/gradeinsight/assistant/internal/archive"
	"github.com/gradeinsight/assistant/internal/chat"
	"github.com/gradeinsight/assistant/internal/config"
	"github.com/gradeinsight/assistant/internal/embedding"
	"github.com/gradeinsight/assistant/internal/httpapi"
	"github.com/gradeinsight/assistant/internal/llm"
	"github.com/gradeinsight/assistant/internal/observability"
	"github.com/gradeinsight/assistant/internal/prompt"
	"github.com/gradeinsight/assistant/internal/ratelimit"
	"github.com/gradeinsight/assistant/internal/vectormem"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	var embedder embedding.Provider
	switch strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider)) {
	case "mock":
		embedder = embedding.NewMockProvider()
		log.Printf("embedding provider: mock")
	default:
		embedder = embedding.NewOllamaProvider(cfg.OllamaBaseURL, cfg.EmbeddingModel)
		log.Printf("embedding provider: ollama (%s)", cfg.EmbeddingModel)
	}
	cached, err := embedding.NewCachedProvider(embedder, cfg.EmbeddingCacheItems)
	if err != nil {
		log.Fatalf("embedding cache init failed: %v", err)
	}
	defer cached.Close()

	memoryStore, err := vectormem.NewStore(cfg.MemoryPath, cached)
	if err != nil {
		log.Fatalf("vector memory init failed: %v", err)
	}
	if cfg.MemoryPath == "" {
		log.Printf("vector memory: in-process (no persistence path set)")
	} else {
		log.Printf("vector memory: persisted at %s (%d messages)", cfg.MemoryPath, memoryStore.Count())
	}
	retriever := vectormem.NewRetriever(memoryStore, cfg.MemoryMaxDistance, cfg.MemoryOverfetch)

	ctx := context.Background()

	var analyticsProvider *analytics.Provider
	if cfg.AnalyticsDatabaseURL != "" {
		analyticsProvider, err = analytics.NewProvider(ctx, cfg.AnalyticsDatabaseURL, cfg.GradeThreshold)
		if err != nil {
			log.Fatalf("analytics db init failed: %v", err)
		}
		defer analyticsProvider.Close()
		log.Printf("analytics: grade database connected")
	} else {
		log.Printf("analytics: disabled (DATABASE_URL not set)")
	}

	var archiveStore *archive.Store
	if cfg.ArchivePath != "" {
		archiveStore, err = archive.NewStore(cfg.ArchivePath)
		if err != nil {
			log.Fatalf("archive init failed: %v", err)
		}
		defer archiveStore.Close()
		log.Printf("archive: transcripts at %s", cfg.ArchivePath)
	} else {
		log.Printf("archive: disabled (ARCHIVE_PATH not set)")
	}

	streamer, err := llm.New(&cfg)
	if err != nil {
		log.Fatalf("llm init failed: %v", err)
	}
	log.Printf("llm provider: %s", cfg.LLMProvider)

	limiter := ratelimit.NewLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)

	orchestrator := &chat.Orchestrator{
		Limiter:       limiter,
		Retriever:     retriever,
		Memory:        memoryStore,
		Assembler:     prompt.NewAssembler(cfg.ContextTokenBudget, cfg.HistoryTurns),
		Streamer:      streamer,
		Metrics:       metrics,
		MemoryResults: cfg.MemoryResults,
		StreamTimeout: cfg.StreamTimeout,
	}
	if analyticsProvider != nil {
		orchestrator.Analytics = analyticsProvider
	}
	if archiveStore != nil {
		orchestrator.Archive = archiveStore
	}

	api := httpapi.New(cfg, orchestrator, memoryStore, archiveStore, analyticsProvider, metrics)
	if prober, ok := streamer.(httpapi.HealthProber); ok {
		api.SetLLMProber(prober)
	}
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				limiter.Prune()
			}
		}
	}()

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
