// Package schemas embeds the OpenAPI document for the pagecraft sync API.
package schemas

import _ "embed"

// OpenAPISpec is the raw OpenAPI 3.0 document validated against inbound
// requests by the validation middleware.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
