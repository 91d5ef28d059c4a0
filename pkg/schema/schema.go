package schema

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"
)

// Schema is a map of field names to their definition strings.
// Example: {"id": "number:4", "name": "string:64", "nickname": "_string:10"}
type Schema map[string]string

// SelectRequired returns the entries of s whose definitions denote required
// fields. Definition strings are copied verbatim. The result is never nil.
func SelectRequired(s Schema) Schema {
	required := make(Schema)
	for field, def := range s {
		if IsFieldRequired(def) {
			required[field] = def
		}
	}
	return required
}

// Fields returns the field names of s in sorted order.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s))
	for field := range s {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Clone returns a copy of s.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Fingerprint hashes the schema contents independently of map order. Two
// schemas with the same fields and definitions share a fingerprint.
func Fingerprint(s Schema) uint64 {
	h := xxh3.New()
	for _, field := range s.Fields() {
		_, _ = h.WriteString(field)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(s[field])
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// Compiled is a schema whose definitions have been parsed once. It is
// immutable and safe for concurrent use.
type Compiled struct {
	schema      Schema
	descriptors map[string]Descriptor
	fields      []string
	required    []string
	fingerprint uint64
}

// Compile parses every definition in s. The first malformed definition (in
// field order) aborts compilation.
func Compile(s Schema) (*Compiled, error) {
	c := &Compiled{
		schema:      s.Clone(),
		descriptors: make(map[string]Descriptor, len(s)),
		fields:      s.Fields(),
		fingerprint: Fingerprint(s),
	}
	if c.schema == nil {
		c.schema = Schema{}
	}

	for _, field := range c.fields {
		d, err := ParseDefinition(s[field])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		c.descriptors[field] = d
		if d.Required {
			c.required = append(c.required, field)
		}
	}
	return c, nil
}

// MustCompile is like Compile but panics on error. Intended for schemas
// declared as package-level literals.
func MustCompile(s Schema) *Compiled {
	c, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Schema returns a copy of the source schema.
func (c *Compiled) Schema() Schema { return c.schema.Clone() }

// Descriptor returns the parsed definition for field.
func (c *Compiled) Descriptor(field string) (Descriptor, bool) {
	d, ok := c.descriptors[field]
	return d, ok
}

// Fields returns all field names in sorted order.
func (c *Compiled) Fields() []string {
	return append([]string(nil), c.fields...)
}

// Required returns the required field names in sorted order.
func (c *Compiled) Required() []string {
	return append([]string(nil), c.required...)
}

// Fingerprint returns the schema fingerprint computed at compile time.
func (c *Compiled) Fingerprint() uint64 { return c.fingerprint }
