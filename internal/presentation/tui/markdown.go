package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/crudgen/pkg/schema"
)

// SchemaMarkdown renders a schema as a markdown table.
func SchemaMarkdown(title string, c *schema.Compiled) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}
	sb.WriteString("| Field | Type | Required | Max length | Special |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, name := range c.Fields() {
		d, _ := c.Descriptor(name)
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %s |\n",
			name, d.ContentType, yesNo(d.Required), maxLength(d), dash(d.SpecialProperty))
	}
	return sb.String()
}

// DescriptorMarkdown renders one parsed definition.
func DescriptorMarkdown(def string, d schema.Descriptor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## `%s`\n\n", def)
	fmt.Fprintf(&sb, "- **Content type:** %s\n", d.ContentType)
	fmt.Fprintf(&sb, "- **Required:** %s\n", yesNo(d.Required))
	fmt.Fprintf(&sb, "- **Max length:** %s\n", maxLength(d))
	fmt.Fprintf(&sb, "- **Special property:** %s\n", dash(d.SpecialProperty))
	return sb.String()
}

// ErrorMarkdown renders a validation error, or every error of an aggregate,
// as a bullet list.
func ErrorMarkdown(err error) string {
	if err == nil {
		return ""
	}
	errs := schema.ValidationErrors(err)
	if errs == nil {
		errs = []error{err}
	}

	var sb strings.Builder
	for _, e := range errs {
		prefix := ""
		msg := e.Error()
		var rerr *schema.RecordError
		if errors.As(e, &rerr) {
			prefix = fmt.Sprintf("record %d: ", rerr.Index)
			msg = rerr.Err.Error()
		}
		if verr, ok := schema.AsValidation(e); ok {
			field := verr.Field
			if field == "" {
				field = "(record)"
			}
			fmt.Fprintf(&sb, "- %s**%s** `%s`: %s\n", prefix, field, verr.Rule, verr.Reason)
			continue
		}
		fmt.Fprintf(&sb, "- %s%s\n", prefix, msg)
	}
	return sb.String()
}

func maxLength(d schema.Descriptor) string {
	if !d.Bounded() {
		return "-"
	}
	return fmt.Sprint(*d.MaxLength)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
