// Package params parses the auxiliary description files shipped alongside
// simulation output: the C-preprocessor style definitions header and the
// run configuration ini file. Both produce a flat Metadata mapping whose
// values keep the distinction between numeric and textual tokens explicit.
package params

import (
	"sort"
	"strconv"
	"strings"
)

// Scalar is one token of a metadata value, either numeric or textual.
type Scalar struct {
	Number  float64
	Text    string
	Numeric bool
}

// Num returns a numeric scalar.
func Num(v float64) Scalar {
	return Scalar{Number: v, Numeric: true}
}

// Str returns a textual scalar.
func Str(s string) Scalar {
	return Scalar{Text: s}
}

// ParseScalar coerces a token to a numeric scalar when it parses as a
// number, and keeps it as text otherwise.
func ParseScalar(tok string) Scalar {
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return Num(v)
	}
	return Str(tok)
}

func (s Scalar) String() string {
	if s.Numeric {
		return strconv.FormatFloat(s.Number, 'g', -1, 64)
	}
	return s.Text
}

// Value is a parsed metadata entry: an ordered list of scalars. Most
// entries hold a single scalar; grid definitions and similar entries hold
// several.
type Value []Scalar

// Number returns the entry's value when it is a single numeric scalar.
func (v Value) Number() (float64, bool) {
	if len(v) == 1 && v[0].Numeric {
		return v[0].Number, true
	}
	return 0, false
}

// Int returns the entry's value when it is a single integral scalar.
func (v Value) Int() (int, bool) {
	f, ok := v.Number()
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Text returns the entry's value when it is a single textual scalar.
func (v Value) Text() (string, bool) {
	if len(v) == 1 && !v[0].Numeric {
		return v[0].Text, true
	}
	return "", false
}

// Numbers returns all scalars as floats when every scalar is numeric.
func (v Value) Numbers() ([]float64, bool) {
	out := make([]float64, len(v))
	for i, s := range v {
		if !s.Numeric {
			return nil, false
		}
		out[i] = s.Number
	}
	return out, true
}

// Tokens returns the entry's scalars formatted back to strings.
func (v Value) Tokens() []string {
	out := make([]string, len(v))
	for i, s := range v {
		out[i] = s.String()
	}
	return out
}

func (v Value) String() string {
	return strings.Join(v.Tokens(), " ")
}

// Metadata is a flat key/value mapping parsed from one auxiliary source.
// It is never mutated after parsing.
type Metadata map[string]Value

// Keys returns the mapping's keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Number returns the named entry when present and single-numeric.
func (m Metadata) Number(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.Number()
}

// Int returns the named entry when present and single-integral.
func (m Metadata) Int(key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.Int()
}

// Text returns the named entry when present and single-textual.
func (m Metadata) Text(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.Text()
}
