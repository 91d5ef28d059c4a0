// Package mcp exposes schema parsing, record validation and coercion as
// Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/crudgen"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SchemaURI identifies the schema resource.
const SchemaURI = "crudgen://schema"

// Generator defines what the MCP server needs from a crudgen.Generator.
type Generator interface {
	Validate(ctx context.Context, record any) error
	Coerce(record map[string]any) domain.Record
	Find(ctx context.Context, id string) (domain.Record, error)
	List(ctx context.Context) ([]string, error)
	Compiled() *schema.Compiled
}

// DefinitionResponse is the result of parse_definition.
type DefinitionResponse struct {
	Definition string            `json:"definition" jsonschema_description:"The definition in canonical form"`
	Descriptor schema.Descriptor `json:"descriptor" jsonschema_description:"Parsed content type, length bound, special property and required flag"`
	Bounded    bool              `json:"bounded" jsonschema_description:"Whether a length bound is enforced"`
}

// ValidationResponse is the result of validate_record.
type ValidationResponse struct {
	Valid  bool           `json:"valid"`
	Error  string         `json:"error,omitempty"`
	Field  string         `json:"field,omitempty"`
	Rule   string         `json:"rule,omitempty"`
	Record map[string]any `json:"record,omitempty" jsonschema_description:"The record as validated, after coercion when requested"`
}

// CoerceResponse is the result of coerce_value.
type CoerceResponse struct {
	Value any  `json:"value"`
	Valid bool `json:"valid" jsonschema_description:"False when the input could not be converted"`
}

// Server wraps a Generator and exposes it as an MCP Server.
type Server struct {
	gen       Generator
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(gen Generator) *Server {
	s := &Server{
		gen:       gen,
		mcpServer: server.NewMCPServer("crudgen-mcp", strings.TrimSpace(crudgen.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: parse_definition
	parseTool := mcp.NewTool("parse_definition",
		mcp.WithDescription("Parse a field definition such as '_string:64:email' into its parts."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("[_]<contentType>[:<maxLength>][:<specialProperty>]")),
		mcp.WithOutputSchema[DefinitionResponse](),
	)
	s.mcpServer.AddTool(parseTool, mcp.NewStructuredToolHandler(s.handleParseDefinition))

	// TOOL: validate_record
	validateTool := mcp.NewTool("validate_record",
		mcp.WithDescription("Validate a record against the server's schema. Nothing is stored."),
		mcp.WithString("record", mcp.Required(), mcp.Description("JSON object with the record fields")),
		mcp.WithBoolean("coerce", mcp.Description("Coerce loosely typed fields before validating")),
		mcp.WithOutputSchema[ValidationResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidateRecord))

	// TOOL: coerce_value
	coerceTool := mcp.NewTool("coerce_value",
		mcp.WithDescription("Convert a raw text value to a content type (string, number or date)."),
		mcp.WithString("value", mcp.Required(), mcp.Description("Raw input, e.g. '12.5kg' or '1.12.2012'")),
		mcp.WithString("content_type", mcp.Required(), mcp.Description("Target content type")),
		mcp.WithOutputSchema[CoerceResponse](),
	)
	s.mcpServer.AddTool(coerceTool, mcp.NewStructuredToolHandler(s.handleCoerceValue))

	// TOOL: list_records
	s.mcpServer.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List the ids of stored records."),
	), s.handleListRecords)

	// TOOL: get_record
	s.mcpServer.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Fetch a stored record by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.handleGetRecord)
}

func (s *Server) handleListRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.gen.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	record, err := s.gen.Find(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("record %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("find failed: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleParseDefinition(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DefinitionResponse, error) {
	def, _ := args["definition"].(string)
	d, err := schema.ParseDefinition(def)
	if err != nil {
		return DefinitionResponse{}, err
	}
	return DefinitionResponse{
		Definition: d.String(),
		Descriptor: d,
		Bounded:    d.Bounded(),
	}, nil
}

func (s *Server) handleValidateRecord(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidationResponse, error) {
	raw, _ := args["record"].(string)
	coerce, _ := args["coerce"].(bool)

	var record map[string]any
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return ValidationResponse{}, fmt.Errorf("record must be a JSON object: %w", err)
	}

	if coerce {
		record = s.gen.Coerce(record)
	} else {
		record = s.gen.Compiled().Normalize(record)
	}

	resp := ValidationResponse{Valid: true, Record: jsonSafe(record)}
	if err := s.gen.Validate(ctx, record); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
		if verr, ok := schema.AsValidation(err); ok {
			resp.Field = verr.Field
			resp.Rule = string(verr.Rule)
		}
	}
	return resp, nil
}

func (s *Server) handleCoerceValue(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CoerceResponse, error) {
	raw, _ := args["value"].(string)
	contentType, _ := args["content_type"].(string)
	if contentType == "" {
		return CoerceResponse{}, schema.ErrMissingContentType
	}

	v := schema.Coerce(raw, contentType)
	switch c := v.(type) {
	case float64:
		if math.IsNaN(c) {
			return CoerceResponse{Valid: false}, nil
		}
	case time.Time:
		if c.Equal(schema.InvalidDate) {
			return CoerceResponse{Valid: false}, nil
		}
	}
	return CoerceResponse{Value: v, Valid: true}, nil
}

// jsonSafe drops values JSON cannot carry (NaN from failed number coercion).
func jsonSafe(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Server) registerResources() {
	// EXPOSE: crudgen://schema
	s.mcpServer.AddResource(mcp.NewResource(SchemaURI, "Record Schema",
		mcp.WithResourceDescription("Field definitions records are validated against"),
		mcp.WithMIMEType("application/json"),
	), s.readSchema)
}

func (s *Server) readSchema(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.gen.Compiled().Schema())
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SchemaURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
