package collector

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/iotlab/internal/store"
	"github.com/abhisek/iotlab/internal/upload"
)

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sessionSummary is the list view of a stored upload.
type sessionSummary struct {
	SessionID  string    `json:"session_id"`
	Mode       string    `json:"mode"`
	TotalXP    int       `json:"total_xp"`
	ReceivedAt time.Time `json:"received_at"`
	Records    int       `json:"records"`
	Accuracy   float64   `json:"accuracy"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Success: status >= 200 && status < 300, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Error: &apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode error response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "too_large", "session summary exceeds size limit")
			return
		}
		s.respondError(w, http.StatusBadRequest, "bad_body", "could not read request body")
		return
	}

	var p upload.Payload
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := p.Validate(); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "invalid_payload", err.Error())
		return
	}

	u := store.Upload{
		SessionID:  p.SessionID,
		ReceivedAt: s.now(),
		Mode:       p.Mode,
		TotalXP:    p.TotalXP,
		Records:    len(p.Records),
		Accuracy:   p.Report.AccuracyRate,
		Payload:    body,
	}
	if err := s.uploads.Save(r.Context(), u); err != nil {
		s.logger.Error("failed to store upload", "session_id", p.SessionID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "store_failed", "could not store session")
		return
	}

	s.logger.Info("session received", "session_id", p.SessionID, "records", len(p.Records))
	s.respondJSON(w, http.StatusCreated, map[string]string{"session_id": p.SessionID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := s.uploads.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load upload", "session_id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, "store_failed", "could not load session")
		return
	}
	s.respondJSON(w, http.StatusOK, json.RawMessage(u.Payload))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	ups, err := s.uploads.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list uploads", "error", err)
		s.respondError(w, http.StatusInternalServerError, "store_failed", "could not list sessions")
		return
	}
	out := make([]sessionSummary, 0, len(ups))
	for _, u := range ups {
		out = append(out, sessionSummary{
			SessionID:  u.SessionID,
			Mode:       u.Mode,
			TotalXP:    u.TotalXP,
			ReceivedAt: u.ReceivedAt,
			Records:    u.Records,
			Accuracy:   u.Accuracy,
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}
