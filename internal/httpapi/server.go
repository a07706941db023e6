package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/gradeinsight/assistant/internal/analytics"
	"github.com/gradeinsight/assistant/internal/archive"
	"github.com/gradeinsight/assistant/internal/chat"
	"github.com/gradeinsight/assistant/internal/config"
	"github.com/gradeinsight/assistant/internal/observability"
	"github.com/gradeinsight/assistant/internal/vectormem"
)

// HealthProber reports whether the model backend is reachable. Providers
// without a cheap probe simply don't implement it.
type HealthProber interface {
	Healthy(ctx context.Context) bool
}

type Server struct {
	cfg          config.Config
	orchestrator *chat.Orchestrator
	memory       *vectormem.Store
	archive      *archive.Store
	analytics    *analytics.Provider
	metrics      *observability.Metrics
	prober       HealthProber
	upgrader     websocket.Upgrader
}

// SetLLMProber attaches an optional backend connectivity probe used by readyz.
func (s *Server) SetLLMProber(p HealthProber) {
	s.prober = p
}

func New(cfg config.Config, orchestrator *chat.Orchestrator, memory *vectormem.Store, archiveStore *archive.Store, provider *analytics.Provider, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		memory:       memory,
		archive:      archiveStore,
		analytics:    provider,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly opened
				// up, so other sites cannot drive a teacher's chat session.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleInfo)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)

	r.Get("/v1/memory/search", s.handleMemorySearch)
	r.Get("/v1/memory/stats", s.handleMemoryStats)
	r.Post("/v1/memory/clear", s.handleMemoryClear)

	r.Get("/v1/conversations", s.handleListConversations)
	r.Get("/v1/conversations/{id}", s.handleGetConversation)
	r.Delete("/v1/conversations/{id}", s.handleDeleteConversation)

	r.Get("/api/students/struggling/{teacherID}", s.handleStrugglingStudents)
	r.Get("/api/student/{teacherID}/{studentID}", s.handleStudentDetail)
	r.Get("/api/assignments/analysis/{teacherID}", s.handleAssignmentAnalysis)
	r.Get("/api/grades/trends/{teacherID}", s.handleGradeTrends)
	r.Get("/api/students/search/{teacherID}", s.handleStudentSearch)

	return r
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"service":   "gradeinsight-assistant",
		"llm":       s.cfg.LLMProvider,
		"memory":    s.memory != nil,
		"analytics": s.analytics != nil,
		"archive":   s.archive != nil,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	memoryStatus := "disabled"
	if s.memory != nil {
		memoryStatus = "enabled"
	}
	databaseStatus := "disabled"
	if s.analytics != nil {
		databaseStatus = "connected"
	}
	llmStatus := "unknown"
	if s.prober != nil {
		llmStatus = "disconnected"
		if s.prober.Healthy(r.Context()) {
			llmStatus = "connected"
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"llm_provider":    s.cfg.LLMProvider,
		"llm_status":      llmStatus,
		"memory_status":   memoryStatus,
		"database_status": databaseStatus,
	})
}

// clientID identifies the caller for admission control: the first
// X-Forwarded-For hop when present, otherwise the remote address.
func clientID(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
