package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/crudgen/pkg/value"
)

// InvalidDate is the result of coercing text that matches no date layout.
var InvalidDate = time.Time{}

// dateLayouts are tried in order. Numeric dates are month first
// ("1.12.2012" is January 12th); parsing is always done in UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2",
	"1.2.2006",
	"1.2.2006 15:04:05",
	"1.2.2006 15:04",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1-2-2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
}

// Coerce converts loosely typed input (form fields, query strings, CSV cells)
// towards the given content type. It never fails: unparseable numbers become
// NaN, unparseable dates become InvalidDate, and unknown content types return
// v unchanged. Callers that need guarantees validate the result.
func Coerce(v any, contentType string) any {
	switch contentType {
	case TypeString:
		return coerceString(v)
	case TypeNumber:
		return coerceNumber(v)
	case TypeDate:
		return coerceDate(v)
	default:
		return v
	}
}

// CoerceRecord returns a copy of record with every field known to c coerced
// to its content type. Fields outside the schema are copied as-is.
func CoerceRecord(record map[string]any, c *Compiled) map[string]any {
	out := make(map[string]any, len(record))
	for name, v := range record {
		if d, ok := c.descriptors[name]; ok {
			out[name] = Coerce(v, d.ContentType)
			continue
		}
		out[name] = v
	}
	return out
}

// Normalize returns a copy of record in which date fields carrying text are
// parsed into time.Time. It is meant for transport boundaries (JSON bodies,
// stored documents) that cannot represent dates natively; every other value
// is left for strict validation to judge.
func (c *Compiled) Normalize(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for name, v := range record {
		out[name] = v
		d, ok := c.descriptors[name]
		if !ok || d.ContentType != TypeDate {
			continue
		}
		if val := value.Of(v); val.Kind() == value.Text {
			if t := coerceDate(v).(time.Time); !t.Equal(InvalidDate) {
				out[name] = t
			}
		}
	}
	return out
}

func coerceString(v any) any {
	val := value.Of(v)
	switch val.Kind() {
	case value.Number:
		f, _ := val.Float()
		return strconv.FormatFloat(f, 'f', -1, 64)
	case value.Date:
		t, _ := val.Time()
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

func coerceNumber(v any) any {
	val := value.Of(v)
	switch val.Kind() {
	case value.Number:
		f, ok := val.Float()
		if !ok {
			return math.NaN()
		}
		return f
	case value.Text:
		s, _ := val.Text()
		return parseFloatPrefix(s)
	default:
		return math.NaN()
	}
}

func coerceDate(v any) any {
	val := value.Of(v)
	switch val.Kind() {
	case value.Date:
		t, _ := val.Time()
		return t
	case value.Number:
		f, ok := val.Float()
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return InvalidDate
		}
		return time.UnixMilli(int64(f)).UTC()
	case value.Text:
		s, _ := val.Text()
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t
			}
		}
		return InvalidDate
	default:
		return InvalidDate
	}
}

// parseFloatPrefix parses the longest leading decimal number in s, ignoring
// leading whitespace and any trailing characters ("12." -> 12,
// "3.5kg" -> 3.5). It returns NaN when s has no numeric prefix.
func parseFloatPrefix(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	mantissa := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i - mantissa

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		fracDigits = i - start
	}
	if intDigits == 0 && fracDigits == 0 {
		return math.NaN()
	}
	end := i

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			end = j
		}
	}

	// Out of range exponents saturate to ±Inf or 0.
	f, _ := strconv.ParseFloat(s[:end], 64)
	return f
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
