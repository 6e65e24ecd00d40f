// Package routes registers every huma operation the API exposes.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/huma-greeter/internal/http/v1/greet"
)

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API) {
	greet.Register(api)
}
