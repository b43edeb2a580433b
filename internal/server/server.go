package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/metrics"
	"github.com/modelrelay/modelrelay/internal/proxy"
	"github.com/modelrelay/modelrelay/internal/settings"
	"github.com/modelrelay/modelrelay/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type upstreamClient interface {
	ChatCompletion(ctx context.Context, body map[string]interface{}) (*types.UpstreamResponse, error)
	ChatCompletionStream(ctx context.Context, body map[string]interface{}) (<-chan []byte, error)
}

// Server is the caller-facing listener: health, model list, and the
// translating chat-completion endpoint.
type Server struct {
	config   *config.Config
	settings *settings.Store
	resolver *proxy.Resolver
	metrics  *metrics.Metrics
	client   upstreamClient

	httpServer *http.Server
	serveFn    func() error
	shutdownFn func(ctx context.Context) error
}

func New(cfg *config.Config, st *settings.Store, resolver *proxy.Resolver, m *metrics.Metrics) *Server {
	if cfg == nil {
		cfg = &config.Config{
			Host: "0.0.0.0",
			Port: 8000,
		}
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if st == nil {
		st = settings.NewStore()
	}
	if resolver == nil {
		resolver = proxy.NewResolver()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	s := &Server{
		config:   cfg,
		settings: st,
		resolver: resolver,
		metrics:  m,
		client:   proxy.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, st),
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.setupRoutes(),
	}
	s.serveFn = s.httpServer.ListenAndServe
	s.shutdownFn = s.httpServer.Shutdown

	return s
}

func (s *Server) Start() error {
	log.Info().
		Str("addr", s.httpServer.Addr).
		Msg("http server starting")

	if err := s.serveFn(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if err := s.shutdownFn(ctx); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("stop server: %w", err)
	}
	return nil
}
