package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/crudgen/pkg/schema"
)

// Overlay marks fields that failed validation.
type Overlay struct {
	// Failures maps a field name to the rule it broke.
	Failures map[string]string
}

// GenerateMermaid produces a Mermaid erDiagram describing one entity.
// Each attribute carries its content type and a comment with the optional
// marker, length bound and special property. Overlay failures are appended
// to the comment.
func GenerateMermaid(entity string, c *schema.Compiled, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")
	sb.WriteString(fmt.Sprintf("    %s {\n", sanitizeMermaidID(strings.ToUpper(entity))))

	for _, name := range c.Fields() {
		d, _ := c.Descriptor(name)

		var notes []string
		if !d.Required {
			notes = append(notes, "optional")
		}
		if d.Bounded() {
			notes = append(notes, fmt.Sprintf("max %d", *d.MaxLength))
		}
		if d.SpecialProperty != "" {
			notes = append(notes, d.SpecialProperty)
		}
		if overlay != nil {
			if rule, ok := overlay.Failures[name]; ok {
				notes = append(notes, "INVALID "+rule)
			}
		}

		line := fmt.Sprintf("        %s %s", sanitizeMermaidID(d.ContentType), sanitizeMermaidID(name))
		if len(notes) > 0 {
			// Mermaid comments cannot contain double quotes
			line += fmt.Sprintf(" \"%s\"", strings.ReplaceAll(strings.Join(notes, ", "), "\"", "'"))
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("    }\n")
	return sb.String()
}

// OverlayFromError builds an Overlay from a validation error or an aggregate
// of them. Unrelated errors yield an empty overlay.
func OverlayFromError(err error) *Overlay {
	o := &Overlay{Failures: make(map[string]string)}
	errs := schema.ValidationErrors(err)
	if errs == nil && err != nil {
		errs = []error{err}
	}
	for _, e := range errs {
		if verr, ok := schema.AsValidation(e); ok && verr.Field != "" {
			o.Failures[verr.Field] = string(verr.Rule)
		}
	}
	return o
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
