package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intPtr(n int) *int { return &n }

func TestParseDefinition(t *testing.T) {
	tests := []struct {
		input string
		want  Descriptor
	}{
		{"string", Descriptor{ContentType: "string", Required: true}},
		{"string:4", Descriptor{ContentType: "string", MaxLength: intPtr(4), Required: true}},
		{"number:400:email", Descriptor{ContentType: "number", MaxLength: intPtr(400), SpecialProperty: "email", Required: true}},
		{"_string:10", Descriptor{ContentType: "string", MaxLength: intPtr(10)}},
		{"date:-1", Descriptor{ContentType: "date", MaxLength: intPtr(Unbounded), Required: true}},
		{"object:2:email", Descriptor{ContentType: "object", MaxLength: intPtr(2), SpecialProperty: "email", Required: true}},
		{"string:abc", Descriptor{ContentType: "string", Required: true}},
		{"string::email", Descriptor{ContentType: "string", SpecialProperty: "email", Required: true}},
		{"string:8:slug:extra:tokens", Descriptor{ContentType: "string", MaxLength: intPtr(8), SpecialProperty: "slug", Required: true}},
		{"__custom", Descriptor{ContentType: "_custom"}},
		{"geo:3", Descriptor{ContentType: "geo", MaxLength: intPtr(3), Required: true}},
	}

	for _, tt := range tests {
		got, err := ParseDefinition(tt.input)
		if err != nil {
			t.Errorf("ParseDefinition(%q) error = %v", tt.input, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseDefinition(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

// Length tokens must be whole integers; anything a lenient prefix parser
// would salvage is ignored and leaves the field unbounded.
func TestParseDefinition_NonIntegerLength(t *testing.T) {
	for _, input := range []string{"string: 4", "string:4px", "string:4 ", "string:4.5", "string:+", "string:0x10"} {
		got, err := ParseDefinition(input)
		if err != nil {
			t.Errorf("ParseDefinition(%q) error = %v", input, err)
			continue
		}
		if got.MaxLength != nil {
			t.Errorf("ParseDefinition(%q).MaxLength = %d, want nil", input, *got.MaxLength)
		}
		if got.Bounded() {
			t.Errorf("ParseDefinition(%q) should be unbounded", input)
		}
	}

	got, err := ParseDefinition("string:+4")
	if err != nil {
		t.Fatalf("ParseDefinition(%q) error = %v", "string:+4", err)
	}
	if diff := cmp.Diff(Descriptor{ContentType: "string", MaxLength: intPtr(4), Required: true}, got); diff != "" {
		t.Errorf("ParseDefinition(%q) mismatch (-want +got):\n%s", "string:+4", diff)
	}
}

func TestParseDefinitionError(t *testing.T) {
	for _, input := range []string{"", "_", ":4", "_:4:email"} {
		_, err := ParseDefinition(input)
		if err == nil {
			t.Errorf("ParseDefinition(%q) should fail", input)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("ParseDefinition(%q) error type = %T, want *ParseError", input, err)
			continue
		}
		if perr.Definition != input {
			t.Errorf("ParseError.Definition = %q, want %q", perr.Definition, input)
		}
		if !errors.Is(err, ErrMissingContentType) {
			t.Errorf("ParseDefinition(%q) should wrap ErrMissingContentType", input)
		}
	}
}

func TestParseDefinition_RequiredMarker(t *testing.T) {
	suffixes := []string{"", ":12", ":12:email"}
	types := []string{"string", "number", "date", "object", "anything"}

	for _, typ := range types {
		for _, optional := range []bool{false, true} {
			token := typ
			if optional {
				token = "_" + typ
			}
			for _, suffix := range suffixes {
				def := token + suffix
				d, err := ParseDefinition(def)
				if err != nil {
					t.Fatalf("ParseDefinition(%q) error = %v", def, err)
				}
				if d.ContentType != typ {
					t.Errorf("ParseDefinition(%q).ContentType = %q, want %q", def, d.ContentType, typ)
				}
				if d.Required == optional {
					t.Errorf("ParseDefinition(%q).Required = %v, want %v", def, d.Required, !optional)
				}
			}
		}
	}
}

func TestIsFieldRequired(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"_number", false},
		{"string", true},
		{"_", false},
		{"", true},
		{"date_time", true},
	}

	for _, tt := range tests {
		if got := IsFieldRequired(tt.token); got != tt.want {
			t.Errorf("IsFieldRequired(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestDescriptor_Bounded(t *testing.T) {
	tests := []struct {
		def  string
		want bool
	}{
		{"string", false},
		{"string:-1", false},
		{"string:0", true},
		{"string:64", true},
	}

	for _, tt := range tests {
		d, err := ParseDefinition(tt.def)
		if err != nil {
			t.Fatalf("ParseDefinition(%q) error = %v", tt.def, err)
		}
		if got := d.Bounded(); got != tt.want {
			t.Errorf("%q Bounded() = %v, want %v", tt.def, got, tt.want)
		}
	}
}

func TestDescriptor_String(t *testing.T) {
	for _, def := range []string{"string", "_string:10", "number:400:email", "date:-1", "string::email"} {
		d, err := ParseDefinition(def)
		if err != nil {
			t.Fatalf("ParseDefinition(%q) error = %v", def, err)
		}
		if got := d.String(); got != def {
			t.Errorf("Descriptor.String() = %q, want %q", got, def)
		}
	}
}
