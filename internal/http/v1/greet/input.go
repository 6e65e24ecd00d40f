package greet

import "github.com/danielgtaylor/huma/v2"

// QueryInput carries the name for GET /greet. Any value is accepted,
// including an empty one (`/greet?name=`); only an absent parameter fails.
type QueryInput struct {
	Name string `query:"name" doc:"Name to greet, may be empty" example:"Alice"`
}

// Resolve rejects requests without a name parameter and sets Name from the
// decoded query string. huma treats an empty value as missing for required
// query parameters, so presence is checked here.
func (i *QueryInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	query := u.Query()
	if !query.Has("name") {
		return []error{&huma.ErrorDetail{
			Location: "query.name",
			Message:  "required query parameter is missing",
		}}
	}
	// huma reads a bare "?name" as the flag value "true"; take the raw value instead.
	i.Name = query.Get("name")
	return nil
}

// BodyInput is the request for POST /greet.
type BodyInput struct {
	Body Body
}

// Body is the JSON (or CBOR) payload of POST /greet. Unknown fields are ignored.
type Body struct {
	_    struct{} `additionalProperties:"true"`
	Name string   `json:"name" doc:"Name to greet, must not be empty" example:"Bob" validate:"min=1"`
}
