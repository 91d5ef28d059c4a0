// Package schema compiles compact field definitions into descriptors and
// validates records against them.
//
// A schema maps field names to definition strings of the form
//
//	[_]<contentType>[:<maxLength>][:<specialProperty>]
//
// A leading underscore marks the field optional. The content types string,
// number, date and object carry an intrinsic value check; any other
// identifier is accepted and passes through. A maxLength of -1 means
// unbounded. It limits characters for strings and keys for objects and is
// not enforced for numbers.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "id":          "number:4",
//	    "name":        "string:64",
//	    "created":     "date:-1",
//	    "notRequired": "_string:10",
//	}
//
//	record := map[string]any{
//	    "id":      2,
//	    "name":    "A valid name",
//	    "created": time.Now(),
//	}
//
//	if err := schema.ValidateRecord(record, s); err != nil {
//	    // err is a *schema.ValidationError describing the first violation
//	}
//
// Callers validating many records against the same schema compile it once:
//
//	compiled, err := schema.Compile(s)
//	...
//	err = compiled.Validate(record)
//
// Loosely typed input (form posts, CSV cells) can be coerced first with
// Coerce or CoerceRecord; coercion never fails and is always followed by
// strict validation.
package schema
