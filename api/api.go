// Package api embeds the published API description.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document for the HTTP API
//
//go:embed openapi/openapi.yaml
var OpenAPISpec []byte
