// Package api holds the wire types shared by every route.
package api

// Message is the uniform response envelope: every success and error body is {"message": "..."}.
type Message struct {
	Message string `json:"message" doc:"Human readable message" example:"Hello, API!"`
}

// NewMessage builds a Message envelope.
func NewMessage(msg string) Message {
	return Message{Message: msg}
}
