// Package greeter exposes the greeting API as an HTTP Cloud Function.
//
// The function serves the same router as the standalone server, so every
// route, error envelope and log field behaves identically. Metrics are
// disabled: function instances are short-lived and not scraped.
package greeter

import (
	"context"
	"net/http"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/janisto/huma-greeter/internal/platform/config"
	applog "github.com/janisto/huma-greeter/internal/platform/logging"
	"github.com/janisto/huma-greeter/internal/server"
)

// EntryPoint is the function name to deploy with --entry-point.
const EntryPoint = "Greeter"

// Version is reported in the OpenAPI document.
var Version = "function"

func init() {
	functions.HTTP(EntryPoint, newHandler().ServeHTTP)
}

func newHandler() http.Handler {
	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(context.Background(), "invalid configuration", err)
	}
	if err := applog.Init(cfg.LogLevel); err != nil {
		applog.LogFatal(context.Background(), "logger init error", err)
	}
	return server.NewRouter(cfg, nil, Version)
}
