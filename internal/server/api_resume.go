package server

import (
	"encoding/json"
	"net/http"

	"photocast/internal/models"
)

func (s *Server) handleListResume(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListResumeIndexes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	if entries == nil {
		entries = []models.ResumeEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleResetResume(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.engine.ResetResume(req.PlayerID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
