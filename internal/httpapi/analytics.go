package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

// Direct analytics endpoints for dashboard use, bypassing the chat pipeline.

func (s *Server) handleStrugglingStudents(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		respondError(w, http.StatusServiceUnavailable, "analytics_disabled", "grade database is not configured")
		return
	}
	teacherID, err := pathInt(r, "teacherID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_teacher_id", err.Error())
		return
	}
	records, err := s.analytics.StrugglingStudents(r.Context(), teacherID, s.cfg.GradeThreshold)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"teacher_id": teacherID,
		"threshold":  s.cfg.GradeThreshold,
		"students":   records,
	})
}

func (s *Server) handleStudentDetail(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		respondError(w, http.StatusServiceUnavailable, "analytics_disabled", "grade database is not configured")
		return
	}
	teacherID, err := pathInt(r, "teacherID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_teacher_id", err.Error())
		return
	}
	studentID, err := pathInt(r, "studentID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_student_id", err.Error())
		return
	}
	records, err := s.analytics.StudentDetail(r.Context(), teacherID, studentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "student_not_found", "no records for that student")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"student_id": studentID,
		"grades":     records,
	})
}

func (s *Server) handleAssignmentAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		respondError(w, http.StatusServiceUnavailable, "analytics_disabled", "grade database is not configured")
		return
	}
	teacherID, err := pathInt(r, "teacherID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_teacher_id", err.Error())
		return
	}
	records, err := s.analytics.AssignmentAnalysis(r.Context(), teacherID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"teacher_id":  teacherID,
		"assignments": records,
	})
}

func (s *Server) handleGradeTrends(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		respondError(w, http.StatusServiceUnavailable, "analytics_disabled", "grade database is not configured")
		return
	}
	teacherID, err := pathInt(r, "teacherID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_teacher_id", err.Error())
		return
	}
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 365 {
			respondError(w, http.StatusBadRequest, "invalid_days", "days must be between 1 and 365")
			return
		}
		days = v
	}
	records, err := s.analytics.GradeTrends(r.Context(), teacherID, days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"teacher_id": teacherID,
		"days":       days,
		"trends":     records,
	})
}

func (s *Server) handleStudentSearch(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		respondError(w, http.StatusServiceUnavailable, "analytics_disabled", "grade database is not configured")
		return
	}
	teacherID, err := pathInt(r, "teacherID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_teacher_id", err.Error())
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing_name", "query parameter name is required")
		return
	}
	records, err := s.analytics.SearchStudentByName(r.Context(), teacherID, name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"teacher_id": teacherID,
		"students":   records,
	})
}
