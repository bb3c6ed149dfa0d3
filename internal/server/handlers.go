package server

import (
	"encoding/json"
	"net/http"

	"github.com/haskel/powermon/internal/host"
	"github.com/haskel/powermon/internal/lifecycle"
)

type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

// StatusResponse is served by GET /status. Host is omitted when the host
// figures cannot be read.
type StatusResponse struct {
	Run  lifecycle.Status `json:"run"`
	Host *host.State      `json:"host,omitempty"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, InfoResponse{
		Name:    "powermon",
		Version: s.version,
	})
}

// handleHealth reports ok while the process serves requests; state tells
// whether sampling is still running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		State:  s.status.Status().State,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Run: s.status.Status()}

	hostState, err := s.hostInfo(r.Context())
	if err != nil {
		s.logger.Debug("failed to collect host info", "error", err)
	} else {
		resp.Host = hostState
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status,
		)
	}
}
