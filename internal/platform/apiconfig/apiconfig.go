// Package apiconfig builds the huma configuration shared by the server and tests.
package apiconfig

import (
	"encoding/json"
	"io"

	"github.com/danielgtaylor/huma/v2"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // registers application/cbor

	"github.com/janisto/huma-greeter/internal/platform/respond"
)

// Title is the OpenAPI document title.
const Title = "Greeter API"

// New returns a huma config serving docs under docsPath ("" disables them).
//
// The default schema-link hook is dropped so response bodies stay exactly
// {"message": "..."} with no "$schema" property or Link header, and every
// JSON request/response is also advertised as CBOR.
func New(version, docsPath string) huma.Config {
	respond.Install()

	cfg := huma.DefaultConfig(Title, version)
	cfg.CreateHooks = nil
	cfg.DocsPath = docsPath
	if docsPath == "" {
		cfg.OpenAPIPath = ""
		cfg.SchemasPath = ""
	} else {
		cfg.OpenAPIPath = docsPath + "/openapi"
		cfg.SchemasPath = docsPath + "/schemas"
	}
	cfg.Formats["application/json"] = jsonFormat
	cfg.Formats["json"] = jsonFormat
	cfg.Info.Description = "Greets callers by name. Every response body is {\"message\": string}."
	cfg.OpenAPI.OnAddOperation = append(cfg.OpenAPI.OnAddOperation, advertiseCBOR)
	return cfg
}

// jsonFormat matches respond.Write: names are echoed without HTML escaping.
var jsonFormat = huma.Format{
	Marshal: func(w io.Writer, v any) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	},
	Unmarshal: json.Unmarshal,
}

func advertiseCBOR(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp == nil || resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}
