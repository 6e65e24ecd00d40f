// Package server assembles the HTTP handler shared by the standalone server
// and the Cloud Function entry point, and runs it with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/huma-greeter/internal/http/health"
	"github.com/janisto/huma-greeter/internal/http/v1/routes"
	"github.com/janisto/huma-greeter/internal/platform/apiconfig"
	"github.com/janisto/huma-greeter/internal/platform/config"
	applog "github.com/janisto/huma-greeter/internal/platform/logging"
	"github.com/janisto/huma-greeter/internal/platform/metrics"
	appmiddleware "github.com/janisto/huma-greeter/internal/platform/middleware"
	"github.com/janisto/huma-greeter/internal/platform/respond"
)

// NewRouter assembles the middleware stack, the huma API and the plain
// health and metrics endpoints. m may be nil to disable metrics.
func NewRouter(cfg config.Config, m *metrics.Metrics, version string) chi.Router {
	router := chi.NewRouter()
	// An unsupported method on a known path is reported as not found.
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.NotFoundHandler())

	middlewares := chi.Middlewares{
		appmiddleware.Security(cfg.DocsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.CORSAllowedOrigins...),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		chimiddleware.RealIP,
		chimiddleware.RequestSize(cfg.MaxBodyBytes),
		applog.RequestLogger(cfg.ProjectID),
		applog.AccessLogger(),
	}
	if m != nil {
		middlewares = append(middlewares, m.Middleware())
	}
	middlewares = append(middlewares, respond.Recoverer())
	router.Use(middlewares...)

	router.Get("/health", health.Handler)
	if m != nil {
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}

	api := humachi.New(router, apiconfig.New(version, cfg.DocsPath))
	routes.Register(api)
	return router
}

// New returns an http.Server bound to cfg.Addr() with conservative timeouts.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

// Serve runs srv on ln until ctx is cancelled, then shuts down gracefully
// within timeout. A serve failure other than a normal close is returned.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		applog.LogInfo(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	applog.LogInfo(context.Background(), "server exited")
	return nil
}
