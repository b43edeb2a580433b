package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelrelay/modelrelay/internal/admin"
	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/metrics"
	"github.com/modelrelay/modelrelay/internal/proxy"
	"github.com/modelrelay/modelrelay/internal/server"
	"github.com/modelrelay/modelrelay/internal/settings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type serveRunner interface {
	Start() error
	Stop(ctx context.Context) error
}

var (
	serveHost      string
	servePort      int
	serveAdminPort int
)

var (
	newRelayServer = func(cfg *config.Config, st *settings.Store, resolver *proxy.Resolver, m *metrics.Metrics) serveRunner {
		return server.New(cfg, st, resolver, m)
	}
	newAdminServer = func(cfg *config.Config, st *settings.Store, reg *prometheus.Registry) serveRunner {
		return admin.New(cfg, st, reg)
	}
	signalNotifyContext = signal.NotifyContext
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay and admin servers",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen address (default: from RELAY_HOST)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "relay port (default: from RELAY_PORT)")
	serveCmd.Flags().IntVar(&serveAdminPort, "admin-port", 0, "admin port (default: from RELAY_ADMIN_PORT)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if serveAdminPort > 0 {
		cfg.AdminPort = serveAdminPort
	}

	log.Logger = config.InitLogger(cfg.LogLevel)
	log.Info().
		Str("log_level", cfg.LogLevel).
		Bool("api_key_configured", cfg.UpstreamAPIKey != "").
		Msg("logger initialized")

	resolver := proxy.NewResolver()
	if cfg.ModelMapFile != "" {
		resolver, err = proxy.LoadResolver(cfg.ModelMapFile)
		if err != nil {
			return fmt.Errorf("load model map: %w", err)
		}
		log.Info().Str("path", cfg.ModelMapFile).Msg("model map loaded from file")
	}

	st := settings.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	relaySrv := newRelayServer(cfg, st, resolver, m)
	adminSrv := newAdminServer(cfg, st, reg)

	startErrCh := make(chan error, 2)
	go func() {
		startErrCh <- relaySrv.Start()
	}()
	go func() {
		startErrCh <- adminSrv.Start()
	}()

	ctx, stop := signalNotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopBoth := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var firstErr error
		for _, srv := range []serveRunner{relaySrv, adminSrv} {
			if err := srv.Stop(shutdownCtx); err != nil && err != http.ErrServerClosed && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	select {
	case err := <-startErrCh:
		if err != nil {
			log.Error().Err(err).Msg("serve exited with error")
		}
		_ = stopBoth()
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		if err := stopBoth(); err != nil {
			log.Error().Err(err).Msg("serve shutdown failed")
			return err
		}

		select {
		case err := <-startErrCh:
			if err != nil {
				log.Error().Err(err).Msg("serve exited after shutdown with error")
			}
			return err
		case <-time.After(10 * time.Second):
			log.Error().Msg("serve shutdown timed out")
			return fmt.Errorf("shutdown timeout")
		}
	}
}
