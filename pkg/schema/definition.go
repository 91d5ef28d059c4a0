package schema

import (
	"strconv"
	"strings"
)

// Content types with an intrinsic value check. Any other identifier is
// accepted by the parser and passes type checks untouched.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeDate   = "date"
	TypeObject = "object"
)

// Unbounded is the maxLength sentinel meaning "no length constraint".
const Unbounded = -1

const (
	optionalMarker = "_"
	tokenSeparator = ":"
)

// Descriptor is the parsed form of a definition string
// ([_]<contentType>[:<maxLength>][:<specialProperty>]).
type Descriptor struct {
	ContentType     string `json:"contentType" yaml:"contentType"`
	MaxLength       *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	SpecialProperty string `json:"specialProperty,omitempty" yaml:"specialProperty,omitempty"`
	Required        bool   `json:"required" yaml:"required"`
}

// Bounded reports whether the descriptor carries an enforceable length bound.
func (d Descriptor) Bounded() bool {
	return d.MaxLength != nil && *d.MaxLength != Unbounded
}

// ParseDefinition converts a definition string into a Descriptor.
//
//	"number:4"        -> {ContentType: number, MaxLength: 4, Required: true}
//	"_string:10"      -> {ContentType: string, MaxLength: 10}
//	"object:2:email"  -> {ContentType: object, MaxLength: 2, SpecialProperty: email, Required: true}
//
// A length token that is not an integer is ignored, as are tokens after the
// special property.
func ParseDefinition(def string) (Descriptor, error) {
	tokens := strings.Split(def, tokenSeparator)

	head := tokens[0]
	required := IsFieldRequired(head)
	contentType := strings.TrimPrefix(head, optionalMarker)
	if contentType == "" {
		return Descriptor{}, &ParseError{Definition: def, Err: ErrMissingContentType}
	}

	d := Descriptor{ContentType: contentType, Required: required}

	if len(tokens) > 1 {
		if n, err := strconv.Atoi(tokens[1]); err == nil {
			d.MaxLength = &n
		}
	}
	if len(tokens) > 2 && tokens[2] != "" {
		d.SpecialProperty = tokens[2]
	}

	return d, nil
}

// IsFieldRequired reports whether a content type token denotes a required
// field, i.e. lacks the leading underscore marker.
func IsFieldRequired(token string) bool {
	return !strings.HasPrefix(token, optionalMarker)
}

// String renders the descriptor back into definition syntax.
func (d Descriptor) String() string {
	var b strings.Builder
	if !d.Required {
		b.WriteString(optionalMarker)
	}
	b.WriteString(d.ContentType)
	if d.MaxLength != nil || d.SpecialProperty != "" {
		b.WriteString(tokenSeparator)
		if d.MaxLength != nil {
			b.WriteString(strconv.Itoa(*d.MaxLength))
		}
	}
	if d.SpecialProperty != "" {
		b.WriteString(tokenSeparator)
		b.WriteString(d.SpecialProperty)
	}
	return b.String()
}
