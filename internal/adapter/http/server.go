// Package http serves the streaming service's health checks, metrics and the
// current risk state of each station.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

// StateReader looks up a station's cumulative risk state.
type StateReader interface {
	StationState(code string) (domain.RiskState, bool)
}

// Server exposes health, readiness, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /stations/{code}/state routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, states StateReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /stations/{code}/state", handleState(states))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleState(states StateReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(r.PathValue("code"))
		state, ok := states.StationState(code)
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown station " + code})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, stateResponse{
			Station:      code,
			LastDate:     state.LastDate,
			DryDays:      state.DryDays,
			Telicyn:      state.Telicyn,
			TelicynRisk:  domain.TelicynRisk(state.Telicyn),
			Nesterov:     state.Nesterov,
			NesterovRisk: domain.NesterovRisk(state.Nesterov),
		})
	}
}

type stateResponse struct {
	Station      string           `json:"codigo_estacao"`
	LastDate     string           `json:"data"`
	DryDays      int              `json:"dias_sem_chuva"`
	Telicyn      float64          `json:"telicyn_index"`
	TelicynRisk  domain.RiskLevel `json:"telicyn_risk"`
	Nesterov     float64          `json:"nesterov_index"`
	NesterovRisk domain.RiskLevel `json:"nesterov_risk"`
}
