// Package spec embeds the OpenAPI document served at /openapi.json.
package spec

import _ "embed"

//go:embed openapi.yaml
var OpenAPISpec []byte
