package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/noveltylab/priorart/internal/agent"
)

type checkRequest struct {
	Idea string `json:"idea"`
}

type checkResponse struct {
	Summary string `json:"summary"`
	CheckID string `json:"check_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

// handleCheck runs a full check session. Perimeter rejections are the only
// 4xx path; once a session starts, the caller always gets a 200 with the best
// available summary, degraded or not.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	idea, err := validateIdea(req.Idea, s.cfg.Server.MaxIdeaLength)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respondError(w, verr.Reason, http.StatusBadRequest)
			return
		}
		respondError(w, "invalid request", http.StatusBadRequest)
		return
	}

	st, err := s.checker.Run(r.Context(), idea)
	if err != nil {
		slog.ErrorContext(r.Context(), "check session failed", "error", err)
		if st == nil {
			respondJSON(w, checkResponse{Summary: agent.FallbackSummary}, http.StatusOK)
			return
		}
	}

	resp := checkResponse{Summary: st.Summary()}
	if s.store != nil {
		checkID, err := s.store.SaveCheck(r.Context(), st)
		if err != nil {
			slog.ErrorContext(r.Context(), "audit save failed", "error", err)
		} else {
			resp.CheckID = checkID
		}
	}
	respondJSON(w, resp, http.StatusOK)
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 && i <= 100 {
			limit = i
		}
	}

	recs, err := s.store.ListRecent(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "listing checks failed", "error", err)
		respondError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, recs, http.StatusOK)
}

func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	checkID := chi.URLParam(r, "id")

	rec, err := s.store.GetCheck(r.Context(), checkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, "check not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "loading check failed", "error", err)
		respondError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	matches, err := s.store.GetMatches(r.Context(), checkID)
	if err != nil {
		slog.ErrorContext(r.Context(), "loading matches failed", "error", err)
		respondError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{"check": rec, "matches": matches}, http.StatusOK)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "alive"}, http.StatusOK)
}
