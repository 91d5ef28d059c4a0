package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

// Component names referenced from the generated paths.
const (
	RecordComponent = "Record"
	ErrorComponent  = "ValidationError"

	// SpecialExtension carries a definition's special property.
	SpecialExtension = "x-crudgen-special"
)

// Options tune the generated document.
type Options struct {
	Title   string
	Version string
	Server  string
	Strict  bool
}

// Option configures Options.
type Option func(*Options)

// WithTitle sets info.title.
func WithTitle(title string) Option {
	return func(o *Options) { o.Title = title }
}

// WithVersion sets info.version.
func WithVersion(version string) Option {
	return func(o *Options) { o.Version = version }
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(o *Options) { o.Server = url }
}

// WithStrict forbids additional properties on records.
func WithStrict(strict bool) Option {
	return func(o *Options) { o.Strict = strict }
}

// RecordSchema translates a compiled schema into a JSON Schema object.
func RecordSchema(c *schema.Compiled, strict bool) *openapi3.Schema {
	record := openapi3.NewObjectSchema()
	for _, name := range c.Fields() {
		d, _ := c.Descriptor(name)
		record.WithProperty(name, propertySchema(d))
	}
	record.Required = c.Required()
	if strict {
		record.WithoutAdditionalProperties()
	}
	return record
}

func propertySchema(d schema.Descriptor) *openapi3.Schema {
	var s *openapi3.Schema
	switch d.ContentType {
	case schema.TypeString:
		s = openapi3.NewStringSchema()
		if d.Bounded() {
			s.WithMaxLength(int64(*d.MaxLength))
		}
	case schema.TypeNumber:
		s = openapi3.NewFloat64Schema()
	case schema.TypeDate:
		s = openapi3.NewDateTimeSchema()
	case schema.TypeObject:
		s = openapi3.NewObjectSchema().WithAnyAdditionalProperties()
		if d.Bounded() {
			s.WithMaxProperties(int64(*d.MaxLength))
		}
	default:
		// Unknown content types accept any value.
		s = &openapi3.Schema{}
	}
	s.Description = d.String()

	if d.SpecialProperty != "" {
		switch d.SpecialProperty {
		case "email", "uuid":
			s.WithFormat(d.SpecialProperty)
		}
		s.Extensions = map[string]any{SpecialExtension: d.SpecialProperty}
	}
	return s
}

// Document builds the OpenAPI description of the record API for c.
func Document(c *schema.Compiled, opts ...Option) *openapi3.T {
	o := Options{Title: "crudgen records", Version: "1.0.0"}
	for _, opt := range opts {
		opt(&o)
	}

	recordRef := openapi3.NewSchemaRef("#/components/schemas/"+RecordComponent, nil)
	errorRef := openapi3.NewSchemaRef("#/components/schemas/"+ErrorComponent, nil)
	idsRef := openapi3.NewSchemaRef("", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
	createdRef := openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()))

	idParam := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())}
	coerceParam := &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("coerce").
		WithDescription("Coerce loosely typed input before validation").
		WithSchema(openapi3.NewBoolSchema())}

	body := &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(recordRef)}

	errorResponse := func(desc string) *openapi3.Response {
		return openapi3.NewResponse().WithDescription(desc).WithJSONSchemaRef(errorRef)
	}
	invalid := errorResponse("Record failed validation")
	notFound := errorResponse("Record not found")
	malformed := errorResponse("Malformed request body")

	list := operation("listRecords", "List record ids", http.StatusOK,
		openapi3.NewResponse().WithDescription("Sorted record ids").WithJSONSchemaRef(idsRef))

	create := operation("createRecord", "Validate and store a record", http.StatusCreated,
		openapi3.NewResponse().WithDescription("Record stored").WithJSONSchemaRef(createdRef))
	create.RequestBody = body
	create.Parameters = openapi3.Parameters{coerceParam}
	create.AddResponse(http.StatusBadRequest, malformed)
	create.AddResponse(http.StatusUnprocessableEntity, invalid)

	get := operation("getRecord", "Fetch a record", http.StatusOK,
		openapi3.NewResponse().WithDescription("The stored record").WithJSONSchemaRef(recordRef))
	get.AddResponse(http.StatusNotFound, notFound)

	update := operation("updateRecord", "Validate and replace a record", http.StatusNoContent,
		openapi3.NewResponse().WithDescription("Record replaced"))
	update.RequestBody = body
	update.Parameters = openapi3.Parameters{coerceParam}
	update.AddResponse(http.StatusBadRequest, malformed)
	update.AddResponse(http.StatusNotFound, notFound)
	update.AddResponse(http.StatusUnprocessableEntity, invalid)

	remove := operation("removeRecord", "Delete a record", http.StatusNoContent,
		openapi3.NewResponse().WithDescription("Record deleted"))
	remove.AddResponse(http.StatusNotFound, notFound)

	validate := operation("validateRecord", "Validate a record without storing it", http.StatusNoContent,
		openapi3.NewResponse().WithDescription("Record is valid"))
	validate.RequestBody = body
	validate.Parameters = openapi3.Parameters{coerceParam}
	validate.AddResponse(http.StatusBadRequest, malformed)
	validate.AddResponse(http.StatusUnprocessableEntity, invalid)

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   o.Title,
			Version: o.Version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/records", &openapi3.PathItem{Get: list, Post: create}),
			openapi3.WithPath("/records/{id}", &openapi3.PathItem{
				Parameters: openapi3.Parameters{idParam},
				Get:        get,
				Put:        update,
				Delete:     remove,
			}),
			openapi3.WithPath("/validate", &openapi3.PathItem{Post: validate}),
		),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				RecordComponent: openapi3.NewSchemaRef("", RecordSchema(c, o.Strict)),
				ErrorComponent:  openapi3.NewSchemaRef("", errorSchema()),
			},
		},
	}
	if o.Server != "" {
		doc.Servers = openapi3.Servers{{URL: o.Server}}
	}
	return doc
}

func operation(id, summary string, status int, ok *openapi3.Response) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Responses:   openapi3.NewResponses(openapi3.WithStatus(status, &openapi3.ResponseRef{Value: ok})),
	}
}

func errorSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("field", openapi3.NewStringSchema()).
		WithProperty("rule", openapi3.NewStringSchema())
	s.Required = []string{"error"}
	return s
}

// MarshalJSON renders doc as indented JSON.
func MarshalJSON(doc *openapi3.T) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: marshal document: %w", err)
	}
	return data, nil
}

// Load parses raw OpenAPI JSON or YAML and validates it.
func Load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}
