package schema

import (
	"errors"
	"fmt"
)

// ErrMissingContentType is wrapped by ParseError when a definition has no
// content type token.
var ErrMissingContentType = errors.New("empty or missing content type")

// ParseError reports a definition string that cannot be parsed.
type ParseError struct {
	Definition string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid definition %q: %v", e.Definition, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Rule names the check a ValidationError failed.
type Rule string

const (
	RuleInvalidRecord Rule = "invalid_record"
	RuleRequired      Rule = "required"
	RuleType          Rule = "type"
	RuleLength        Rule = "length"
	RuleDefinition    Rule = "definition"
	RuleUnknownField  Rule = "unknown_field"
	RuleSpecial       Rule = "special"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field      string // Field name, empty when validating a lone value
	Definition string // Definition string the value was checked against
	Rule       Rule
	Reason     string // Human-readable reason for failure
	Value      any    // The value that failed validation
	Err        error  // Underlying cause, e.g. a *ParseError
}

func (e *ValidationError) Error() string {
	subject := "value"
	if e.Field != "" {
		subject = fmt.Sprintf("field %q", e.Field)
	}
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", subject, e.Reason)
	}
	return fmt.Sprintf("%s: %s (got %T)", subject, e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AsValidation unwraps err into a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// RecordError ties a validation failure to a position in a batch.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
