package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/server"
	"github.com/modelrelay/modelrelay/internal/settings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Server is the operator-facing listener: read and mutate the runtime
// settings, and scrape metrics. It binds a separate port from the relay so
// the admin surface is never exposed alongside the caller API.
type Server struct {
	settings *settings.Store

	httpServer *http.Server
	serveFn    func() error
	shutdownFn func(ctx context.Context) error
}

func New(cfg *config.Config, st *settings.Store, reg *prometheus.Registry) *Server {
	host := "0.0.0.0"
	port := 8001
	if cfg != nil {
		if cfg.Host != "" {
			host = cfg.Host
		}
		if cfg.AdminPort != 0 {
			port = cfg.AdminPort
		}
	}
	if st == nil {
		st = settings.NewStore()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{settings: st}

	mux := http.NewServeMux()
	mux.Handle("/config", server.LoggingMiddleware(http.HandlerFunc(s.handleConfig)))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}
	s.serveFn = s.httpServer.ListenAndServe
	s.shutdownFn = s.httpServer.Shutdown

	return s
}

func (s *Server) Start() error {
	log.Info().
		Str("addr", s.httpServer.Addr).
		Msg("admin server starting")

	if err := s.serveFn(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("start admin server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if err := s.shutdownFn(ctx); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("stop admin server: %w", err)
	}
	return nil
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.settings.Snapshot())
	case http.MethodPost:
		s.handleConfigUpdate(w, r)
	default:
		writeAPIError(w, http.StatusNotFound, "no route for "+r.Method+" /config", "not_found_error", "not_found")
	}
}

// handleConfigUpdate applies a partial settings update. Invalid or unknown
// fields are skipped silently; the response always reports success with the
// resulting settings.
func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body", "invalid_request_error", "bad_request")
		return
	}

	snap := s.settings.Apply(fields)
	log.Info().Interface("config", snap).Msg("runtime settings updated")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"config":  snap,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, statusCode int, message, errType, code string) {
	writeJSON(w, statusCode, map[string]interface{}{
		"error": map[string]string{
			"message": message,
			"type":    errType,
			"code":    code,
		},
	})
}
