// Package apperror defines the application error taxonomy and its HTTP mapping.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors.
type Kind string

const (
	// KindValidation marks request input that failed a validation rule.
	KindValidation Kind = "validation"
)

// mapping describes how a Kind is rendered to clients.
type mapping struct {
	Status int
	Prefix string
}

// kinds is the single source of truth for kind -> HTTP response mapping.
var kinds = map[Kind]mapping{
	KindValidation: {Status: http.StatusBadRequest, Prefix: "Invalid input"},
}

// Error is an application error carrying a kind and a client-safe detail message.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

// Validation returns a KindValidation error with the given detail, e.g. "name cannot be empty".
func Validation(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

// Wrap attaches an underlying cause, kept for logs and errors.Is/As.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// Error returns the client-facing message: "<prefix>: <detail>".
func (e *Error) Error() string {
	if e == nil {
		return "application error"
	}
	m, ok := kinds[e.Kind]
	if !ok {
		return e.Detail
	}
	if e.Detail == "" {
		return m.Prefix
	}
	return fmt.Sprintf("%s: %s", m.Prefix, e.Detail)
}

// Unwrap enables errors.Is/As against the cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Status returns the HTTP status for the error kind, 500 for unknown kinds.
func (e *Error) Status() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	if m, ok := kinds[e.Kind]; ok {
		return m.Status
	}
	return http.StatusInternalServerError
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
