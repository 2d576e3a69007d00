// Package schema generates JSON Schemas from Go types and validates raw
// JSON values against them.
//
// It backs the typed tool builder in the registry package: a tool's input
// struct produces a schema for introspection, and optionally gates
// execution so malformed parameters are rejected before the handler runs.
//
// Struct fields are mapped using their json tags; the jsonschema tag adds
// constraints:
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"required,description=Search query"`
//	    Limit int    `json:"limit" jsonschema:"minimum=1,maximum=100"`
//	}
package schema
