package schema

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_Number(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"12.", 12},
		{"12", 12},
		{"  -3.5kg", -3.5},
		{".5", 0.5},
		{"1e3", 1000},
		{"1e", 1},
		{"2.5E-1x", 0.25},
		{"+7", 7},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{42, 42},
		{int64(-8), -8},
		{3.25, 3.25},
		{uint8(9), 9},
	}

	for _, tt := range tests {
		got := Coerce(tt.in, TypeNumber)
		assert.Equal(t, tt.want, got, "Coerce(%#v, number)", tt.in)
	}
}

func TestCoerce_NumberNaN(t *testing.T) {
	for _, in := range []any{"abc", "", ".", "-", "e5", true, nil, map[string]any{}, time.Now()} {
		got, ok := Coerce(in, TypeNumber).(float64)
		require.True(t, ok, "Coerce(%#v) should yield float64", in)
		assert.True(t, math.IsNaN(got), "Coerce(%#v) = %v, want NaN", in, got)
	}
}

func TestCoerce_Date(t *testing.T) {
	tests := []struct {
		in   any
		want time.Time
	}{
		{"1.12.2012", time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC)},
		{"2012-01-12", time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC)},
		{"2012-01-12T10:30:00Z", time.Date(2012, 1, 12, 10, 30, 0, 0, time.UTC)},
		{"2012-01-12 10:30", time.Date(2012, 1, 12, 10, 30, 0, 0, time.UTC)},
		{"1/12/2012", time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC)},
		{"Jan 12, 2012", time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC)},
		{" 2012-01-12 ", time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC)},
		{int64(0), time.Unix(0, 0).UTC()},
		{1326326400000, time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := Coerce(tt.in, TypeDate).(time.Time)
		require.True(t, ok, "Coerce(%#v, date) should yield time.Time", tt.in)
		assert.True(t, tt.want.Equal(got), "Coerce(%#v, date) = %v, want %v", tt.in, got, tt.want)
	}
}

func TestCoerce_DatePassthrough(t *testing.T) {
	now := time.Now()
	assert.Equal(t, now, Coerce(now, TypeDate))
}

func TestCoerce_InvalidDate(t *testing.T) {
	for _, in := range []any{"not a date", "", "13.45.2012", true, nil, math.NaN(), []int{1}} {
		got := Coerce(in, TypeDate)
		assert.Equal(t, InvalidDate, got, "Coerce(%#v, date)", in)
	}
}

func TestCoerce_String(t *testing.T) {
	date := time.Date(2012, 1, 12, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want any
	}{
		{12, "12"},
		{12.5, "12.5"},
		{int64(-3), "-3"},
		{date, "2012-01-12T10:30:00Z"},
		{"already", "already"},
		{true, true},
		{nil, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Coerce(tt.in, TypeString), "Coerce(%#v, string)", tt.in)
	}
}

func TestCoerce_UnknownTypeIsIdentity(t *testing.T) {
	in := map[string]any{"a": 1}
	assert.Equal(t, in, Coerce(in, TypeObject))
	assert.Equal(t, "x", Coerce("x", "geo"))
}

func TestCoerceThenValidate(t *testing.T) {
	c := MustCompile(testSchema)

	form := map[string]any{
		"id":      "2",
		"name":    "A valid name",
		"created": "1.12.2012",
		"extra":   "kept",
	}

	coerced := CoerceRecord(form, c)
	assert.Equal(t, 2.0, coerced["id"])
	assert.Equal(t, time.Date(2012, 1, 12, 0, 0, 0, 0, time.UTC), coerced["created"])
	assert.Equal(t, "kept", coerced["extra"])
	assert.Equal(t, "2", form["id"], "input must not be mutated")

	assert.NoError(t, c.Validate(coerced))
}

func TestCoerceRecord_InvalidStillValidates(t *testing.T) {
	c := MustCompile(testSchema)

	coerced := CoerceRecord(map[string]any{
		"id":      "abc",
		"name":    "n",
		"created": "garbage",
	}, c)

	id, ok := coerced["id"].(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(id))
	assert.Equal(t, InvalidDate, coerced["created"])

	// NaN is still a number and the zero time still a date.
	assert.NoError(t, c.Validate(coerced))
}

func TestNormalize(t *testing.T) {
	c := MustCompile(testSchema)
	stored := map[string]any{
		"id":          float64(2),
		"name":        "n",
		"created":     "2012-01-12T10:30:00Z",
		"notRequired": "2012-01-12",
	}

	got := c.Normalize(stored)
	assert.Equal(t, time.Date(2012, 1, 12, 10, 30, 0, 0, time.UTC), got["created"])
	assert.Equal(t, "2012-01-12", got["notRequired"], "only date fields are parsed")
	assert.Equal(t, "2012-01-12T10:30:00Z", stored["created"], "input must not be mutated")

	bad := c.Normalize(map[string]any{"created": "garbage"})
	assert.Equal(t, "garbage", bad["created"], "unparseable text is left for validation")
}
