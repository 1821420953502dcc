package handler

import (
	"context"
	"net/http"
	"time"
)

// readyTimeout bounds the database ping behind /readyz.
const readyTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable. *pgxpool.Pool
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string `json:"status"`
}

// GetHealth handles GET /healthz. It only proves the process is serving.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetReady handles GET /readyz. It answers 503 while the database cannot be
// reached, so a load balancer stops routing coordinator traffic here.
func (s *Server) GetReady(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.WarnContext(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
