package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/janisto/huma-greeter/internal/platform/config"
	applog "github.com/janisto/huma-greeter/internal/platform/logging"
	"github.com/janisto/huma-greeter/internal/platform/metrics"
	"github.com/janisto/huma-greeter/internal/server"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	os.Exit(run())
}

// run wraps main so the deferred logger sync happens before the process exits.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		applog.LogError(context.Background(), "invalid configuration", err)
		return 1
	}
	if err := applog.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		return 1
	}
	defer func() {
		// Syncing stdout fails with EINVAL on some platforms; nothing to report.
		_ = applog.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	srv := server.New(cfg, server.NewRouter(cfg, m, Version))

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		applog.LogError(ctx, "listen failed", err, zap.String("addr", srv.Addr))
		return 1
	}
	if err := server.Serve(ctx, srv, ln, cfg.ShutdownTimeout); err != nil {
		applog.LogError(context.Background(), "server error", err, zap.String("addr", srv.Addr))
		return 1
	}
	return 0
}
