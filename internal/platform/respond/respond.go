// Package respond renders every error the API produces in the uniform
// {"message": "..."} envelope, whether it comes from a handler, from huma's
// request validation, from the router, or from a panic.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/huma-greeter/internal/api"
	"github.com/janisto/huma-greeter/internal/platform/apperror"
	applog "github.com/janisto/huma-greeter/internal/platform/logging"
)

const (
	// MsgNotFound is returned for every unmatched method+path combination.
	MsgNotFound = "The requested resource was not found."
	// MsgInternal is returned for panics and unclassified handler errors.
	MsgInternal = "internal server error"

	msgInvalidInput = "Invalid input"

	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
)

var installOnce sync.Once

// Install replaces huma's error constructors so framework errors share the
// envelope. Request validation failures (422 in huma) are reported as 400.
// Call before registering operations so the OpenAPI error schema matches.
func Install() {
	installOnce.Do(func() {
		huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
			return frameworkError(context.Background(), status, msg, errs)
		}
		huma.NewErrorWithContext = func(hctx huma.Context, status int, msg string, errs ...error) huma.StatusError {
			ctx := context.Background()
			if hctx != nil {
				ctx = hctx.Context()
			}
			return frameworkError(ctx, status, msg, errs)
		}
	})
}

// StatusError is a huma.StatusError whose body is the uniform envelope.
type StatusError struct {
	api.Message
	status int
}

// Error implements error.
func (e *StatusError) Error() string {
	return e.Message.Message
}

// GetStatus implements huma.StatusError.
func (e *StatusError) GetStatus() int {
	return e.status
}

// FromError maps a handler error to a StatusError. Application errors use the
// apperror kind table, existing status errors pass through, anything else is a 500.
func FromError(ctx context.Context, err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperror.As(err); ok {
		return statusError(ctx, appErr.Status(), appErr.Error(), appErr.Unwrap())
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	return statusError(ctx, http.StatusInternalServerError, MsgInternal, err)
}

// Write renders msg in the envelope, as CBOR when the client prefers it and JSON otherwise.
func Write(w http.ResponseWriter, r *http.Request, status int, msg string) error {
	body := api.NewMessage(msg)
	if prefersCBOR(r.Header.Get("Accept")) {
		data, err := cbor.Marshal(body)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", contentTypeCBOR)
		w.WriteHeader(status)
		_, err = w.Write(data)
		return err
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(body)
}

// NotFoundHandler answers unmatched routes. It is also installed as chi's
// MethodNotAllowed handler: an unsupported method on a known path is not found.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logStatus(r.Context(), http.StatusNotFound, MsgNotFound, nil,
			zap.String("method", r.Method), zap.String("path", r.URL.Path))
		if err := Write(w, r, http.StatusNotFound, MsgNotFound); err != nil {
			applog.LogError(r.Context(), "failed to render not found", err)
		}
	}
}

// Recoverer converts panics into a 500 envelope and logs the stack.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as panic value
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				applog.LogError(r.Context(), "panic recovered", err, zap.ByteString("stack", debug.Stack()))
				if ww.Status() != 0 {
					return
				}
				if writeErr := Write(ww, r, http.StatusInternalServerError, MsgInternal); writeErr != nil {
					applog.LogError(r.Context(), "failed to render internal error", writeErr)
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// frameworkError normalizes huma-generated errors. Input errors (400, 422)
// become 400 with an "Invalid input: ..." message built from the error details.
func frameworkError(ctx context.Context, status int, msg string, errs []error) huma.StatusError {
	if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
		return statusError(ctx, http.StatusBadRequest, invalidInputMessage(msg, errs), errors.Join(errs...))
	}
	if status == http.StatusNotAcceptable || status == http.StatusUnsupportedMediaType {
		// Replace huma's generic text with the status name.
		msg = http.StatusText(status)
	}
	return statusError(ctx, status, messageOrDefault(status, msg), errors.Join(errs...))
}

func invalidInputMessage(msg string, errs []error) string {
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			if d := detailer.ErrorDetail(); d != nil {
				if d.Location != "" {
					details = append(details, d.Location+": "+d.Message)
				} else {
					details = append(details, d.Message)
				}
				continue
			}
		}
		details = append(details, err.Error())
	}
	if len(details) == 0 {
		details = append(details, messageOrDefault(http.StatusBadRequest, msg))
	}
	return msgInvalidInput + ": " + strings.Join(details, "; ")
}

func statusError(ctx context.Context, status int, msg string, err error) huma.StatusError {
	logStatus(ctx, status, msg, err)
	return &StatusError{Message: api.NewMessage(msg), status: status}
}

func messageOrDefault(status int, msg string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// logStatus logs 5xx at ERROR and 4xx at WARN. Lower statuses (huma calls
// NewError with status 0 while building the OpenAPI schema) are not logged.
func logStatus(ctx context.Context, status int, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Int("status", status), zap.String("responseMessage", msg))
	switch {
	case status >= http.StatusInternalServerError:
		applog.LogError(ctx, "request failed", err, fields...)
	case status >= http.StatusBadRequest:
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		applog.LogWarn(ctx, "request rejected", fields...)
	}
}

// prefersCBOR walks the Accept header in order and reports whether
// application/cbor is listed before any JSON-compatible type. Entries with q=0 are skipped.
func prefersCBOR(accept string) bool {
	for part := range strings.SplitSeq(accept, ",") {
		mediaType, params, _ := strings.Cut(part, ";")
		if excluded(params) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(mediaType)) {
		case contentTypeCBOR:
			return true
		case contentTypeJSON, "application/*", "*/*":
			return false
		}
	}
	return false
}

func excluded(params string) bool {
	for param := range strings.SplitSeq(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(key, "q") {
			continue
		}
		q, err := strconv.ParseFloat(value, 64)
		return err == nil && q == 0
	}
	return false
}
