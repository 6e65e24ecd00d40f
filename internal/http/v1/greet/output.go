package greet

import "github.com/janisto/huma-greeter/internal/api"

// Output is the 200 response shared by every greeting operation.
type Output struct {
	Body api.Message
}

func newOutput(msg string) *Output {
	return &Output{Body: api.NewMessage(msg)}
}
