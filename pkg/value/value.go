// Package value classifies raw Go values into the small set of kinds a schema
// definition can describe.
//
// Records arrive as map[string]any from JSON bodies, YAML files, database rows
// or hand-built literals, so the same logical "number" may be an int, a
// float64 or a json.Number. Of folds all of those into a single Value whose
// Kind can be matched exhaustively by the validator.
package value

import (
	"encoding/json"
	"reflect"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Kind is the discriminant of a Value.
type Kind int

const (
	// Other covers nil, booleans, slices, structs and anything else.
	Other Kind = iota
	// Text is a character sequence.
	Text
	// Number is any integer, unsigned, floating-point or json.Number value.
	Number
	// Date is a time.Time (or a non-nil *time.Time).
	Date
	// Composite is a mapping keyed by strings.
	Composite
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Date:
		return "date"
	case Composite:
		return "composite"
	default:
		return "other"
	}
}

// Value is a classified raw value.
type Value struct {
	kind Kind
	raw  any
}

var timeType = reflect.TypeOf(time.Time{})

// Of classifies v.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{kind: Other}
	case string, []byte, []rune:
		return Value{kind: Text, raw: v}
	case json.Number:
		return Value{kind: Number, raw: v}
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return Value{kind: Number, raw: v}
	case time.Time:
		return Value{kind: Date, raw: v}
	case *time.Time:
		if t == nil {
			return Value{kind: Other, raw: v}
		}
		return Value{kind: Date, raw: v}
	case map[string]any:
		return Value{kind: Composite, raw: v}
	}

	// Named types (type Email string, type Record map[string]any, ...).
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return Value{kind: Text, raw: v}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return Value{kind: Number, raw: v}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return Value{kind: Composite, raw: v}
		}
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			return Value{kind: Date, raw: v}
		}
	}
	return Value{kind: Other, raw: v}
}

// Kind returns the discriminant.
func (v Value) Kind() Kind { return v.kind }

// Raw returns the value passed to Of.
func (v Value) Raw() any { return v.raw }

// Len reports the size used for length bounds: characters for Text (counted
// on the NFC form, so "é" is one character whether or not it arrived
// decomposed) and own keys for Composite. Other kinds report 0.
func (v Value) Len() int {
	switch v.kind {
	case Text:
		switch t := v.raw.(type) {
		case string:
			return utf8.RuneCountInString(norm.NFC.String(t))
		case []byte:
			return utf8.RuneCount(norm.NFC.Bytes(t))
		case []rune:
			return utf8.RuneCountInString(norm.NFC.String(string(t)))
		default:
			return utf8.RuneCountInString(norm.NFC.String(reflect.ValueOf(t).String()))
		}
	case Composite:
		if m, ok := v.raw.(map[string]any); ok {
			return len(m)
		}
		return reflect.ValueOf(v.raw).Len()
	default:
		return 0
	}
}

// Map returns a Composite value as map[string]any. Named map types are copied
// key by key; the second result is false for every other kind.
func (v Value) Map() (map[string]any, bool) {
	if v.kind != Composite {
		return nil, false
	}
	if m, ok := v.raw.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v.raw)
	if rv.IsNil() {
		return map[string]any{}, true
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// Text returns the characters of a Text value.
func (v Value) Text() (string, bool) {
	if v.kind != Text {
		return "", false
	}
	switch t := v.raw.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case []rune:
		return string(t), true
	default:
		return reflect.ValueOf(t).String(), true
	}
}

// Float returns a Number value as float64.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	if n, ok := v.raw.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v.raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Time returns a Date value as time.Time.
func (v Value) Time() (time.Time, bool) {
	if v.kind != Date {
		return time.Time{}, false
	}
	switch t := v.raw.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		return *t, true
	default:
		return reflect.ValueOf(t).Convert(timeType).Interface().(time.Time), true
	}
}
