package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/crudgen"
	"github.com/aretw0/crudgen/pkg/adapters/memory"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *crudgen.Generator) {
	t.Helper()
	gen, err := crudgen.New(memory.NewStore(), schema.Schema{
		"age":  "number",
		"name": "string:8",
		"born": "_date",
	})
	require.NoError(t, err)
	return NewServer(gen), gen
}

func TestParseDefinition(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleParseDefinition(ctx, mcp.CallToolRequest{}, map[string]interface{}{"definition": "_string:64:email"})
	require.NoError(t, err)
	assert.Equal(t, "_string:64:email", resp.Definition)
	assert.Equal(t, "string", resp.Descriptor.ContentType)
	assert.Equal(t, "email", resp.Descriptor.SpecialProperty)
	assert.False(t, resp.Descriptor.Required)
	assert.True(t, resp.Bounded)

	resp, err = s.handleParseDefinition(ctx, mcp.CallToolRequest{}, map[string]interface{}{"definition": "date:-1"})
	require.NoError(t, err)
	assert.False(t, resp.Bounded)

	_, err = s.handleParseDefinition(ctx, mcp.CallToolRequest{}, map[string]interface{}{"definition": "_"})
	assert.ErrorIs(t, err, schema.ErrMissingContentType)
}

func TestValidateRecord(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleValidateRecord(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"record": `{"age": 36, "name": "Ada", "born": "1815-12-10"}`,
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid, resp.Error)

	resp, err = s.handleValidateRecord(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"record": `{"age": "36", "name": "Ada"}`,
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, "age", resp.Field)
	assert.Equal(t, "type", resp.Rule)

	resp, err = s.handleValidateRecord(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"record": `{"age": "36", "name": "Ada"}`,
		"coerce": true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid, resp.Error)
	assert.Equal(t, 36.0, resp.Record["age"])

	resp, err = s.handleValidateRecord(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"record": `{"age": "n/a", "name": "Ada"}`,
		"coerce": true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid, "NaN is still a number")
	assert.Nil(t, resp.Record["age"], "NaN is not representable in JSON")
	_, err = json.Marshal(resp)
	assert.NoError(t, err)

	_, err = s.handleValidateRecord(ctx, mcp.CallToolRequest{}, map[string]interface{}{"record": `[1]`})
	assert.Error(t, err)
}

func TestCoerceValue(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		value, contentType string
		want               any
		valid              bool
	}{
		{"12.5kg", "number", 12.5, true},
		{"kg", "number", nil, false},
		{"1.12.2012", "date", time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC), true},
		{"someday", "date", nil, false},
		{"text", "string", "text", true},
		{"raw", "blob", "raw", true},
	}
	for _, tt := range tests {
		t.Run(tt.contentType+"/"+tt.value, func(t *testing.T) {
			resp, err := s.handleCoerceValue(ctx, mcp.CallToolRequest{}, map[string]interface{}{
				"value":        tt.value,
				"content_type": tt.contentType,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.valid, resp.Valid)
			assert.Equal(t, tt.want, resp.Value)
		})
	}

	_, err := s.handleCoerceValue(ctx, mcp.CallToolRequest{}, map[string]interface{}{"value": "x"})
	assert.ErrorIs(t, err, schema.ErrMissingContentType)
}

func TestReadSchema(t *testing.T) {
	s, _ := newTestServer(t)

	contents, err := s.readSchema(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, SchemaURI, text.URI)
	assert.JSONEq(t, `{"age": "number", "name": "string:8", "born": "_date"}`, text.Text)
}

func TestListAndGetRecord(t *testing.T) {
	s, gen := newTestServer(t)
	ctx := context.Background()

	id, err := gen.Insert(ctx, domain.Record{"age": 1, "name": "x"})
	require.NoError(t, err)

	res, err := s.handleListRecords(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.JSONEq(t, `["`+id+`"]`, res.Content[0].(mcp.TextContent).Text)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"id": id}
	res, err = s.handleGetRecord(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"age": 1, "name": "x"}`, res.Content[0].(mcp.TextContent).Text)

	req.Params.Arguments = map[string]any{"id": "missing"}
	res, err = s.handleGetRecord(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetRecord(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError, "id is required")
}
