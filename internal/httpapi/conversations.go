package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "archive_disabled", "transcript archive is not enabled")
		return
	}
	teacherID, err := strconv.Atoi(r.URL.Query().Get("teacher_id"))
	if err != nil || teacherID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_teacher_id", "query parameter teacher_id is required")
		return
	}
	convs, err := s.archive.List(r.Context(), teacherID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "archive_disabled", "transcript archive is not enabled")
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return
	}
	msgs, err := s.archive.Load(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "load_failed", err.Error())
		return
	}
	if len(msgs) == 0 {
		respondError(w, http.StatusNotFound, "conversation_not_found", "no such conversation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "messages": msgs})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "archive_disabled", "transcript archive is not enabled")
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return
	}
	if err := s.archive.Delete(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
