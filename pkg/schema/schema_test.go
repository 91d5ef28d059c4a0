package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRequired(t *testing.T) {
	tests := []struct {
		desc   string
		schema Schema
		want   Schema
	}{
		{
			desc:   "mixed",
			schema: testSchema,
			want: Schema{
				"id":      "number:4",
				"name":    "string:64",
				"created": "date:-1",
			},
		},
		{
			desc:   "all optional",
			schema: Schema{"a": "_string", "b": "_number:2"},
			want:   Schema{},
		},
		{
			desc:   "empty",
			schema: Schema{},
			want:   Schema{},
		},
		{
			desc:   "nil",
			schema: nil,
			want:   Schema{},
		},
		{
			desc:   "definitions copied verbatim",
			schema: Schema{"tags": "object:-1:unique", "geo": "point"},
			want:   Schema{"tags": "object:-1:unique", "geo": "point"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := SelectRequired(tt.schema)
			require.NotNil(t, got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SelectRequired() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectRequired_DoesNotMutate(t *testing.T) {
	s := Schema{"a": "string", "b": "_string"}
	SelectRequired(s)
	assert.Len(t, s, 2)
}

func TestSchema_Fields(t *testing.T) {
	assert.Equal(t, []string{"created", "id", "name", "notRequired"}, testSchema.Fields())
	assert.Empty(t, Schema(nil).Fields())
}

func TestFingerprint(t *testing.T) {
	a := Schema{"id": "number:4", "name": "string:64"}
	b := Schema{"name": "string:64", "id": "number:4"}

	assert.Equal(t, Fingerprint(a), Fingerprint(b), "map order must not matter")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(Schema{"id": "number:5", "name": "string:64"}))
	assert.NotEqual(t, Fingerprint(Schema{"ab": "c"}), Fingerprint(Schema{"a": "bc"}), "field boundary must be hashed")
	assert.Equal(t, Fingerprint(nil), Fingerprint(Schema{}))
}

func TestCompile(t *testing.T) {
	c, err := Compile(testSchema)
	require.NoError(t, err)

	assert.Equal(t, []string{"created", "id", "name", "notRequired"}, c.Fields())
	assert.Equal(t, []string{"created", "id", "name"}, c.Required())
	assert.Equal(t, Fingerprint(testSchema), c.Fingerprint())
	assert.Equal(t, testSchema, c.Schema())

	d, ok := c.Descriptor("notRequired")
	require.True(t, ok)
	assert.Equal(t, TypeString, d.ContentType)
	assert.False(t, d.Required)
	require.NotNil(t, d.MaxLength)
	assert.Equal(t, 10, *d.MaxLength)

	_, ok = c.Descriptor("missing")
	assert.False(t, ok)
}

func TestCompile_IsolatedFromSource(t *testing.T) {
	s := Schema{"a": "string"}
	c := MustCompile(s)
	s["b"] = "number"

	assert.Equal(t, []string{"a"}, c.Fields())

	out := c.Schema()
	out["c"] = "date"
	assert.Len(t, c.Schema(), 1)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(Schema{"ok": "string", "bad": ":4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field bad")
	assert.ErrorIs(t, err, ErrMissingContentType)

	assert.Panics(t, func() { MustCompile(Schema{"bad": ""}) })
}

func TestCompile_Empty(t *testing.T) {
	c, err := Compile(nil)
	require.NoError(t, err)
	assert.Empty(t, c.Fields())
	assert.NotNil(t, c.Schema())
	assert.NoError(t, c.Validate(map[string]any{"anything": 1}))
}
