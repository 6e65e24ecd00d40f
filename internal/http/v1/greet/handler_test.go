package greet

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/janisto/huma-greeter/internal/api"
	"github.com/janisto/huma-greeter/internal/platform/apiconfig"
	applog "github.com/janisto/huma-greeter/internal/platform/logging"
	appmiddleware "github.com/janisto/huma-greeter/internal/platform/middleware"
	"github.com/janisto/huma-greeter/internal/platform/respond"
)

func newTestRouter(t *testing.T) (chi.Router, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)

	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.NotFoundHandler())
	router.Use(
		appmiddleware.RequestID(),
		applog.RequestLogger(""),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(applog.WithLogger(r.Context(), zap.New(core))))
			})
		},
		respond.Recoverer(),
	)
	Register(humachi.New(router, apiconfig.New("test", "")))
	return router, recorded
}

func serve(t *testing.T, router http.Handler, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(chimiddleware.RequestIDHeader, "greet-test")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// decodeEnvelope asserts the body is exactly {"message": string}.
func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	var raw map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &raw); err != nil {
		t.Fatalf("json unmarshal %q: %v", resp.Body.String(), err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected only the message field, got %v", raw)
	}
	msg, ok := raw["message"].(string)
	if !ok {
		t.Fatalf("expected string message, got %v", raw["message"])
	}
	return msg
}

func infoMessages(recorded *observer.ObservedLogs) []string {
	var msgs []string
	for _, e := range recorded.FilterLevelExact(zapcore.InfoLevel).All() {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

func TestRoot(t *testing.T) {
	router, recorded := newTestRouter(t)

	resp := serve(t, router, http.MethodGet, "/", "", nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if msg := decodeEnvelope(t, resp); msg != "Hello, API!" {
		t.Fatalf("expected 'Hello, API!', got %q", msg)
	}
	if msgs := infoMessages(recorded); len(msgs) != 1 || msgs[0] != "Handling GET request for /" {
		t.Fatalf("unexpected log lines %v", msgs)
	}
}

func TestRootIgnoresQueryAndBody(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
	}{
		{"query", "/?name=ignored", "", ""},
		{"json body", "/", "application/json", `{"name":"Bob"}`},
		{"malformed body", "/", "application/json", `{"name":`},
		{"text body", "/", "text/plain", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorded := newTestRouter(t)

			resp := serve(t, router, http.MethodGet, tt.target, tt.contentType, strings.NewReader(tt.body))

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			if msg := decodeEnvelope(t, resp); msg != RootMessage {
				t.Fatalf("unexpected message %q", msg)
			}
			if msgs := infoMessages(recorded); len(msgs) != 1 || msgs[0] != "Handling GET request for /" {
				t.Fatalf("unexpected log lines %v", msgs)
			}
		})
	}
}

func TestGreetQuery(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"plain", "/greet?name=Alice", "Hello, Alice!"},
		{"empty value", "/greet?name=", "Hello, !"},
		{"bare flag", "/greet?name", "Hello, !"},
		{"bare flag then value", "/greet?name&name=Ada", "Hello, !"},
		{"encoded space", "/greet?name=Jo%20Ann", "Hello, Jo Ann!"},
		{"unicode", "/greet?name=%E4%B8%96%E7%95%8C", "Hello, 世界!"},
		{"extra params", "/greet?name=Ada&lang=en", "Hello, Ada!"},
		{"html kept verbatim", "/greet?name=%3Cb%3E", "Hello, <b>!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorded := newTestRouter(t)

			resp := serve(t, router, http.MethodGet, tt.target, "", nil)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			if msg := decodeEnvelope(t, resp); msg != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, msg)
			}
			msgs := infoMessages(recorded)
			if len(msgs) != 1 || msgs[0] != "Handling GET request for /greet with query params" {
				t.Fatalf("unexpected log lines %v", msgs)
			}
		})
	}
}

func TestGreetQueryMissingName(t *testing.T) {
	router, recorded := newTestRouter(t)

	resp := serve(t, router, http.MethodGet, "/greet", "", nil)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	want := "Invalid input: query.name: required query parameter is missing"
	if msg := decodeEnvelope(t, resp); msg != want {
		t.Fatalf("expected %q, got %q", want, msg)
	}
	if msgs := infoMessages(recorded); len(msgs) != 0 {
		t.Fatalf("handler must not run, got %v", msgs)
	}
}

func TestGreetBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain", `{"name":"Bob"}`, "Hello, Bob!"},
		{"whitespace only", `{"name":"   "}`, "Hello,    !"},
		{"unknown fields ignored", `{"name":"Bob","age":42}`, "Hello, Bob!"},
		{"unicode", `{"name":"Zoë"}`, "Hello, Zoë!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorded := newTestRouter(t)

			resp := serve(t, router, http.MethodPost, "/greet", "application/json", strings.NewReader(tt.body))

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			if msg := decodeEnvelope(t, resp); msg != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, msg)
			}
			msgs := infoMessages(recorded)
			if len(msgs) != 1 || msgs[0] != "Handling POST request for /greet" {
				t.Fatalf("unexpected log lines %v", msgs)
			}
		})
	}
}

func TestGreetBodyEmptyName(t *testing.T) {
	router, recorded := newTestRouter(t)

	resp := serve(t, router, http.MethodPost, "/greet", "application/json", strings.NewReader(`{"name":""}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if msg := decodeEnvelope(t, resp); msg != "Invalid input: name cannot be empty" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msgs := infoMessages(recorded); len(msgs) != 1 || msgs[0] != "Handling POST request for /greet" {
		t.Fatalf("unexpected log lines %v", msgs)
	}
	if warns := recorded.FilterLevelExact(zapcore.WarnLevel).Len(); warns != 1 {
		t.Fatalf("expected one WARN for the rejection, got %d", warns)
	}
}

func TestGreetBodyMalformed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"missing name", "application/json", `{}`},
		{"wrong type", "application/json", `{"name":7}`},
		{"truncated json", "application/json", `{"name":`},
		{"empty body", "application/json", ``},
		{"null name", "application/json", `{"name":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorded := newTestRouter(t)

			resp := serve(t, router, http.MethodPost, "/greet", tt.contentType, strings.NewReader(tt.body))

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			if msg := decodeEnvelope(t, resp); !strings.HasPrefix(msg, "Invalid input: ") {
				t.Fatalf("expected invalid input message, got %q", msg)
			}
			if msgs := infoMessages(recorded); len(msgs) != 0 {
				t.Fatalf("handler must not run, got %v", msgs)
			}
		})
	}
}

func TestGreetBodyCBOR(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, err := cbor.Marshal(map[string]string{"name": "CBOR"})
	if err != nil {
		t.Fatalf("cbor marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/greet", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/cbor")
	req.Header.Set("Accept", "application/cbor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Fatalf("expected application/cbor, got %q", ct)
	}
	var msg api.Message
	if err := cbor.Unmarshal(resp.Body.Bytes(), &msg); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if msg.Message != "Hello, CBOR!" {
		t.Fatalf("unexpected message %q", msg.Message)
	}
}

func TestGreetBodyCBORValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, err := cbor.Marshal(map[string]string{"name": ""})
	if err != nil {
		t.Fatalf("cbor marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/greet", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/cbor")
	req.Header.Set("Accept", "application/cbor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Fatalf("expected application/cbor, got %q", ct)
	}
	var msg api.Message
	if err := cbor.Unmarshal(resp.Body.Bytes(), &msg); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if msg.Message != "Invalid input: name cannot be empty" {
		t.Fatalf("unexpected message %q", msg.Message)
	}
}

func TestUnmatchedRoutesAreNotFound(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/greet/extra"},
		{http.MethodDelete, "/"},
		{http.MethodPut, "/greet"},
		{http.MethodPost, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			router, recorded := newTestRouter(t)

			resp := serve(t, router, tt.method, tt.target, "application/json", strings.NewReader(`{"name":"x"}`))

			if resp.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", resp.Code)
			}
			if msg := decodeEnvelope(t, resp); msg != respond.MsgNotFound {
				t.Fatalf("unexpected message %q", msg)
			}
			if msgs := infoMessages(recorded); len(msgs) != 0 {
				t.Fatalf("no handler may run, got %v", msgs)
			}
		})
	}
}

func TestGreeting(t *testing.T) {
	if got := Greeting("Ada"); got != "Hello, Ada!" {
		t.Fatalf("unexpected greeting %q", got)
	}
	if got := Greeting(""); got != "Hello, !" {
		t.Fatalf("unexpected greeting %q", got)
	}
}
