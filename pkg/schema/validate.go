package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/crudgen/pkg/value"
	"golang.org/x/sync/errgroup"
)

// Option tunes record validation.
type Option func(*options)

type options struct {
	strict bool
}

// WithStrict rejects record fields that the schema does not define.
// Records are validated permissively by default.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValidateValue checks a single value against a definition string.
// It returns nil when the value conforms.
func ValidateValue(def string, v any) error {
	d, err := ParseDefinition(def)
	if err != nil {
		return &ValidationError{
			Definition: def,
			Rule:       RuleDefinition,
			Reason:     err.Error(),
			Err:        err,
		}
	}
	return checkValue(d, def, v)
}

// ValidateRecord checks record against s. The record must be a string-keyed
// map; every required field must be present and every field present in both
// the record and the schema must conform to its definition. The first
// violation is returned. Fields are visited in sorted order so repeated calls
// report the same violation.
func ValidateRecord(record any, s Schema, opts ...Option) error {
	fields, ok := value.Of(record).Map()
	if !ok {
		return invalidRecord(record)
	}
	o := buildOptions(opts)

	required := SelectRequired(s)
	for _, name := range required.Fields() {
		if _, present := fields[name]; !present {
			return missingField(name, required[name])
		}
	}

	for _, name := range s.Fields() {
		v, present := fields[name]
		if !present {
			continue
		}
		if err := ValidateValue(s[name], v); err != nil {
			return withField(err, name)
		}
	}

	if o.strict {
		return rejectUnknown(fields, func(name string) bool {
			_, ok := s[name]
			return ok
		})
	}
	return nil
}

// Validate checks record against the compiled schema. It has the same
// semantics as ValidateRecord without re-parsing definitions.
func (c *Compiled) Validate(record any, opts ...Option) error {
	fields, ok := value.Of(record).Map()
	if !ok {
		return invalidRecord(record)
	}
	o := buildOptions(opts)

	for _, name := range c.required {
		if _, present := fields[name]; !present {
			return missingField(name, c.schema[name])
		}
	}

	for _, name := range c.fields {
		v, present := fields[name]
		if !present {
			continue
		}
		if err := checkValue(c.descriptors[name], c.schema[name], v); err != nil {
			return withField(err, name)
		}
	}

	if o.strict {
		return rejectUnknown(fields, func(name string) bool {
			_, ok := c.descriptors[name]
			return ok
		})
	}
	return nil
}

// ValidateAll validates records concurrently with at most limit workers
// (limit <= 0 means unlimited). Every failing record contributes a
// *RecordError to the returned *AggregateError, ordered by index.
func (c *Compiled) ValidateAll(ctx context.Context, records []any, limit int, opts ...Option) error {
	results := make([]error, len(records))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, rec := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.Validate(rec, opts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var errs []error
	for i, err := range results {
		if err != nil {
			errs = append(errs, &RecordError{Index: i, Err: err})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func checkValue(d Descriptor, def string, v any) error {
	val := value.Of(v)

	if want, ok := kindFor(d.ContentType); ok && val.Kind() != want {
		return &ValidationError{
			Definition: def,
			Rule:       RuleType,
			Reason:     fmt.Sprintf("expected %s", d.ContentType),
			Value:      v,
		}
	}

	if !d.Bounded() {
		return nil
	}
	switch d.ContentType {
	case TypeString, TypeObject:
		if n := val.Len(); n > *d.MaxLength {
			return &ValidationError{
				Definition: def,
				Rule:       RuleLength,
				Reason:     fmt.Sprintf("%s length %d exceeds maximum %d", d.ContentType, n, *d.MaxLength),
				Value:      v,
			}
		}
	}
	// Numeric bounds are carried in the descriptor but not enforced here.
	return nil
}

func kindFor(contentType string) (value.Kind, bool) {
	switch contentType {
	case TypeString:
		return value.Text, true
	case TypeNumber:
		return value.Number, true
	case TypeDate:
		return value.Date, true
	case TypeObject:
		return value.Composite, true
	default:
		return value.Other, false
	}
}

func invalidRecord(record any) error {
	return &ValidationError{
		Rule:   RuleInvalidRecord,
		Reason: "invalid parameters: record must be a string-keyed map",
		Value:  record,
	}
}

func missingField(name, def string) error {
	return &ValidationError{
		Field:      name,
		Definition: def,
		Rule:       RuleRequired,
		Reason:     "missing required field, object does not contain all required values",
	}
}

func withField(err error, name string) error {
	if verr, ok := err.(*ValidationError); ok {
		verr.Field = name
	}
	return err
}

func rejectUnknown(fields map[string]any, known func(string) bool) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if !known(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return &ValidationError{
		Field:  names[0],
		Rule:   RuleUnknownField,
		Reason: "field is not defined in schema",
		Value:  fields[names[0]],
	}
}
