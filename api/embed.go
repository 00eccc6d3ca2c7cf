// Package api carries the OpenAPI description of the HTTP interface.
package api

import _ "embed"

// Spec is the raw openapi.yml served at /openapi.yml and used for request
// body validation.
//
//go:embed openapi.yml
var Spec []byte
