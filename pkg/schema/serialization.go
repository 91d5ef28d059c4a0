package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON deserializes the schema from a map of field names to
// definition strings. Every definition is parsed so malformed schemas are
// rejected at load time.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.assign(raw)
}

// UnmarshalYAML deserializes the schema from a YAML mapping.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return s.assign(raw)
}

func (s *Schema) assign(raw map[string]any) error {
	parsed := make(Schema, len(raw))
	for field, v := range raw {
		def, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %s: expected definition string, got %T", field, v)
		}
		if _, err := ParseDefinition(def); err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		parsed[field] = def
	}
	*s = parsed
	return nil
}

// Decode parses a schema document. format is a file extension (".json",
// ".yaml", ".yml"); anything else is read as YAML, which also accepts JSON.
func Decode(data []byte, format string) (Schema, error) {
	var s Schema
	switch strings.ToLower(format) {
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse schema json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse schema yaml: %w", err)
		}
	}
	return s, nil
}

// LoadFile reads a schema from a JSON or YAML file.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return Decode(data, filepath.Ext(path))
}
