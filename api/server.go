// Package api exposes the engine's operations over a small JSON HTTP
// surface. Caller identity arrives in the X-Account-ID header; this is a
// deployment concern, the engine itself only checks the access policy.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config holds the HTTP server configuration
type Config struct {
	Addr string
}

// Server is the JSON API server for the settlement engine
type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server with all routes registered
func NewServer(cfg Config, h *Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health)

	mux.HandleFunc("POST /api/accounts", h.CreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", h.GetAccount)
	mux.HandleFunc("GET /api/accounts/{id}/ledger", h.GetLedger)
	mux.HandleFunc("GET /api/accounts/{id}/bets", h.GetBets)

	mux.HandleFunc("POST /api/rounds", h.CreateRound)
	mux.HandleFunc("GET /api/rounds/{id}", h.GetRound)
	mux.HandleFunc("GET /api/rounds/{id}/bets", h.GetRoundBets)
	mux.HandleFunc("GET /api/rounds/{id}/ledger", h.GetRoundLedger)
	mux.HandleFunc("POST /api/rounds/{id}/bets", h.PlaceBet)
	mux.HandleFunc("POST /api/rounds/{id}/settle", h.SettleRound)
	mux.HandleFunc("POST /api/rounds/{id}/claims", h.Claim)

	mux.HandleFunc("GET /api/fees", h.AccruedFees)
	mux.HandleFunc("POST /api/fees/sweep", h.SweepFees)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start runs the server until it is shut down
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
