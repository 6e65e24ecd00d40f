// Package greet serves the greeting endpoints.
package greet

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/huma-greeter/internal/platform/logging"
	"github.com/janisto/huma-greeter/internal/platform/respond"
	"github.com/janisto/huma-greeter/internal/platform/validation"
)

// RootMessage is the static body of GET /.
const RootMessage = "Hello, API!"

// Register wires the greeting routes into the provided API router.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Static greeting",
		Tags:        []string{"Greetings"},
	}, rootHandler)

	huma.Register(api, huma.Operation{
		OperationID: "get-greet",
		Method:      http.MethodGet,
		Path:        "/greet",
		Summary:     "Greet the name given in the query string",
		Tags:        []string{"Greetings"},
		Errors:      []int{http.StatusBadRequest},
	}, queryHandler)

	huma.Register(api, huma.Operation{
		OperationID: "create-greet",
		Method:      http.MethodPost,
		Path:        "/greet",
		Summary:     "Greet the name given in the request body",
		Tags:        []string{"Greetings"},
		Errors:      []int{http.StatusBadRequest},
	}, bodyHandler)
}

// Greeting formats the personalized message. Names are used verbatim.
func Greeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

func rootHandler(ctx context.Context, _ *struct{}) (*Output, error) {
	applog.LogInfo(ctx, "Handling GET request for /")
	return newOutput(RootMessage), nil
}

func queryHandler(ctx context.Context, input *QueryInput) (*Output, error) {
	applog.LogInfo(ctx, "Handling GET request for /greet with query params", zap.String("name", input.Name))
	return newOutput(Greeting(input.Name)), nil
}

func bodyHandler(ctx context.Context, input *BodyInput) (*Output, error) {
	applog.LogInfo(ctx, "Handling POST request for /greet", zap.String("name", input.Body.Name))
	if err := validation.Struct(input.Body); err != nil {
		return nil, respond.FromError(ctx, err)
	}
	return newOutput(Greeting(input.Body.Name)), nil
}
