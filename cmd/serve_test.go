package cmd

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/metrics"
	"github.com/modelrelay/modelrelay/internal/proxy"
	"github.com/modelrelay/modelrelay/internal/settings"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeServeRunner struct {
	startFn func() error
	stopFn  func(ctx context.Context) error
}

func (f *fakeServeRunner) Start() error {
	if f.startFn != nil {
		return f.startFn()
	}
	return nil
}

func (f *fakeServeRunner) Stop(ctx context.Context) error {
	if f.stopFn != nil {
		return f.stopFn(ctx)
	}
	return nil
}

func swapServeHooks(t *testing.T) {
	t.Helper()

	origNewRelayServer := newRelayServer
	origNewAdminServer := newAdminServer
	origSignalNotifyContext := signalNotifyContext
	origHost, origPort, origAdminPort := serveHost, servePort, serveAdminPort
	t.Cleanup(func() {
		newRelayServer = origNewRelayServer
		newAdminServer = origNewAdminServer
		signalNotifyContext = origSignalNotifyContext
		serveHost, servePort, serveAdminPort = origHost, origPort, origAdminPort
	})
}

func TestRunServeStartReturns(t *testing.T) {
	swapServeHooks(t)

	t.Setenv("RELAY_HOST", "0.0.0.0")
	t.Setenv("RELAY_PORT", "8000")

	serveHost = "127.0.0.1"
	servePort = 19000
	serveAdminPort = 19001

	var capturedCfg *config.Config
	newRelayServer = func(cfg *config.Config, _ *settings.Store, _ *proxy.Resolver, _ *metrics.Metrics) serveRunner {
		copied := *cfg
		capturedCfg = &copied
		return &fakeServeRunner{
			startFn: func() error { return nil },
		}
	}
	newAdminServer = func(*config.Config, *settings.Store, *prometheus.Registry) serveRunner {
		return &fakeServeRunner{
			startFn: func() error {
				time.Sleep(50 * time.Millisecond)
				return nil
			},
		}
	}

	if err := runServe(nil, nil); err != nil {
		t.Fatalf("runServe error: %v", err)
	}
	if capturedCfg == nil {
		t.Fatal("newRelayServer was not called")
	}
	if capturedCfg.Host != "127.0.0.1" || capturedCfg.Port != 19000 || capturedCfg.AdminPort != 19001 {
		t.Fatalf("unexpected cfg overrides: %+v", *capturedCfg)
	}
}

func TestRunServeShutdownPath(t *testing.T) {
	swapServeHooks(t)

	stopCh := make(chan struct{})
	newRelayServer = func(*config.Config, *settings.Store, *proxy.Resolver, *metrics.Metrics) serveRunner {
		return &fakeServeRunner{
			startFn: func() error {
				<-stopCh
				return nil
			},
			stopFn: func(ctx context.Context) error {
				close(stopCh)
				return nil
			},
		}
	}
	newAdminServer = func(*config.Config, *settings.Store, *prometheus.Registry) serveRunner {
		return &fakeServeRunner{}
	}

	signalNotifyContext = func(parent context.Context, _ ...os.Signal) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(parent)
		cancel()
		return ctx, func() {}
	}

	if err := runServe(nil, nil); err != nil {
		t.Fatalf("runServe shutdown path error: %v", err)
	}
}

func TestRunServeShutdownError(t *testing.T) {
	swapServeHooks(t)

	stopErr := fmt.Errorf("stop failed")
	newRelayServer = func(*config.Config, *settings.Store, *proxy.Resolver, *metrics.Metrics) serveRunner {
		return &fakeServeRunner{
			startFn: func() error {
				time.Sleep(20 * time.Millisecond)
				return nil
			},
			stopFn: func(ctx context.Context) error {
				return stopErr
			},
		}
	}
	newAdminServer = func(*config.Config, *settings.Store, *prometheus.Registry) serveRunner {
		return &fakeServeRunner{
			startFn: func() error {
				time.Sleep(20 * time.Millisecond)
				return nil
			},
		}
	}

	signalNotifyContext = func(parent context.Context, _ ...os.Signal) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(parent)
		cancel()
		return ctx, func() {}
	}

	err := runServe(nil, nil)
	if err == nil {
		t.Fatal("expected shutdown error, got nil")
	}
}

func TestRunServeModelMapFileMissing(t *testing.T) {
	swapServeHooks(t)

	t.Setenv("RELAY_MODEL_MAP_FILE", "/no/such/file.yaml")

	newRelayServer = func(*config.Config, *settings.Store, *proxy.Resolver, *metrics.Metrics) serveRunner {
		t.Fatal("server should not start when the model map cannot be loaded")
		return nil
	}
	newAdminServer = func(*config.Config, *settings.Store, *prometheus.Registry) serveRunner {
		return &fakeServeRunner{}
	}

	if err := runServe(nil, nil); err == nil {
		t.Fatal("expected model map load error, got nil")
	}
}
