// Package health serves the liveness check.
package health

import (
	"net/http"

	"github.com/janisto/huma-greeter/internal/platform/respond"
)

// Message is the body of a healthy response.
const Message = "healthy"

// Handler is a plain HTTP handler for the health check endpoint. It stays
// outside huma so health checks do not show up in the OpenAPI document.
func Handler(w http.ResponseWriter, r *http.Request) {
	_ = respond.Write(w, r, http.StatusOK, Message)
}
