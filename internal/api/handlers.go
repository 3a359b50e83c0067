package api

import (
	"encoding/json"
	"net/http"

	"aegis/internal/agents"
	"aegis/pkg/errors"
	"aegis/pkg/logger"
)

// ProcessRequest is the POST /api/agents/process payload.
type ProcessRequest struct {
	Request       string `json:"request"`
	InstitutionID string `json:"institution_id"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AgentHandler exposes the orchestration engine over HTTP.
type AgentHandler struct {
	engine *agents.Engine
	log    *logger.Logger
}

// NewAgentHandler creates the handler.
func NewAgentHandler(engine *agents.Engine, log *logger.Logger) *AgentHandler {
	return &AgentHandler{engine: engine, log: log}
}

// HandleProcess runs the full pipeline for one institutional request.
// Synchronous: the response is the final summary report.
func (h *AgentHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.InstitutionID == "" {
		req.InstitutionID = "anonymous_institution"
	}

	summary, err := h.engine.ProcessInstitutionalRequest(r.Context(), req.Request, req.InstitutionID)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrRequestInFlight):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.log.Errorf("Request processing failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// HandleStatus returns the real-time dashboard snapshot.
func (h *AgentHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.RealTimeStatus())
}

// HandleReset returns the engine to its initial state.
func (h *AgentHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.engine.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
