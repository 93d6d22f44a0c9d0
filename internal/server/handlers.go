package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/talbenari/project_clara/internal/executor"
	"github.com/talbenari/project_clara/internal/interpreter"
)

// Health Check

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "healthy",
		"gcal":   "disconnected",
	}

	if s.gcalClient != nil && s.gcalClient.IsAuthenticated() {
		status["gcal"] = "connected"
	}

	respondJSON(w, http.StatusOK, status)
}

// Command API

type commandRequest struct {
	Command string `json:"command"`
	// ContextEvents lets the caller supply existing events for
	// disambiguating modify commands.
	ContextEvents []interpreter.EventCandidate `json:"contextEvents,omitempty"`
	// Execute applies the interpreted command to the calendar instead of
	// only returning the interpretation.
	Execute bool `json:"execute,omitempty"`
	// Now pins relative date resolution to a fixed instant (RFC 3339).
	// Empty means the wall clock.
	Now string `json:"now,omitempty"`
}

type commandResponse struct {
	Result  *interpreter.CommandResult `json:"result"`
	Outcome *executor.Outcome          `json:"outcome,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Command == "" {
		respondError(w, http.StatusBadRequest, "command is required")
		return
	}

	now := time.Now().In(s.loc)
	if req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			respondError(w, http.StatusBadRequest, "now must be RFC 3339")
			return
		}
		now = parsed.In(s.loc)
	}

	result, err := s.interp.Parse(r.Context(), interpreter.Request{
		Command:    req.Command,
		Now:        now,
		Candidates: req.ContextEvents,
	})
	if err != nil {
		fmt.Printf("Command interpretation failed: %v\n", err)
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := commandResponse{Result: result}

	if req.Execute {
		if s.exec == nil {
			respondError(w, http.StatusServiceUnavailable, "calendar not connected")
			return
		}
		outcome, err := s.exec.Apply(r.Context(), result, now)
		if err != nil {
			if errors.Is(err, executor.ErrNoMatchingEvent) {
				respondError(w, http.StatusNotFound, err.Error())
				return
			}
			fmt.Printf("Command execution failed: %v\n", err)
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Outcome = outcome
	}

	respondJSON(w, http.StatusOK, resp)
}

// Google Calendar API

func (s *Server) handleGCalStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"connected": false,
		"message":   "Not configured",
	}

	if s.gcalClient == nil {
		respondJSON(w, http.StatusOK, status)
		return
	}

	if s.gcalClient.IsAuthenticated() {
		status["connected"] = true
		status["message"] = "Connected"
	} else {
		status["message"] = "Not authenticated"
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleGCalConnect(w http.ResponseWriter, r *http.Request) {
	if s.gcalClient == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured")
		return
	}
	if s.gcalClient.IsAuthenticated() {
		respondJSON(w, http.StatusOK, map[string]string{"status": "already connected"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"auth_url": s.gcalClient.GetAuthURL()})
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.gcalClient == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	if err := s.gcalClient.ExchangeCode(r.Context(), code); err != nil {
		fmt.Printf("OAuth code exchange failed: %v\n", err)
		respondError(w, http.StatusInternalServerError, "code exchange failed")
		return
	}

	fmt.Println("Google Calendar connected")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h3>Google Calendar connected. You can close this tab.</h3></body></html>")
}

func (s *Server) handleListTodayEvents(w http.ResponseWriter, r *http.Request) {
	if s.exec == nil {
		respondError(w, http.StatusServiceUnavailable, "calendar not connected")
		return
	}

	now := time.Now().In(s.loc)
	result := &interpreter.CommandResult{
		Intent:       interpreter.IntentQueryEvents,
		QueryDetails: &interpreter.QueryDetails{TargetDate: now.Format("2006-01-02")},
	}

	outcome, err := s.exec.Apply(r.Context(), result, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
