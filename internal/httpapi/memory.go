package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleMemorySearch(w http.ResponseWriter, r *http.Request) {
	if s.memory == nil {
		respondError(w, http.StatusServiceUnavailable, "memory_disabled", "vector memory is not enabled")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 50 {
			respondError(w, http.StatusBadRequest, "invalid_n", "n must be between 1 and 50")
			return
		}
		n = v
	}

	matches, err := s.memory.Search(r.Context(), query, n, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.MemoryOps.WithLabelValues("search", "ok").Inc()
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": matches,
	})
}

func (s *Server) handleMemoryStats(w http.ResponseWriter, _ *http.Request) {
	if s.memory == nil {
		respondError(w, http.StatusServiceUnavailable, "memory_disabled", "vector memory is not enabled")
		return
	}
	respondJSON(w, http.StatusOK, s.memory.Stats())
}

func (s *Server) handleMemoryClear(w http.ResponseWriter, _ *http.Request) {
	if s.memory == nil {
		respondError(w, http.StatusServiceUnavailable, "memory_disabled", "vector memory is not enabled")
		return
	}
	if err := s.memory.Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, "clear_failed", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.MemoryOps.WithLabelValues("clear", "ok").Inc()
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}
