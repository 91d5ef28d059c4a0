// Package openapi describes a record schema as an OpenAPI 3 document: one
// component for the record, one for validation failures, and the CRUD paths
// served by the HTTP adapter.
package openapi
