// Package numfield decodes loosely-typed numeric JSON fields: numbers,
// numeric strings, or null.
//
// Two coercions are offered. The truthy ones treat 0, "" and null alike as
// "not provided", which is how the import format and the REST API have always
// stored optional macros and workout metrics. The present ones only treat a
// missing or null value as absent and keep a real zero.
package numfield

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a raw numeric field. The zero Value is "absent".
type Value struct {
	raw   string
	set   bool
	quote bool
}

// Of builds a Value holding f.
func Of(f float64) Value {
	return Value{raw: strconv.FormatFloat(f, 'f', -1, 64), set: true}
}

// FromString wraps a form value the same way a JSON string would decode.
func FromString(s string) Value {
	return Value{raw: s, set: true, quote: true}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value{raw: s, set: true, quote: true}
		return nil
	}
	*v = Value{raw: string(b), set: true}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	if v.quote {
		return json.Marshal(v.raw)
	}
	return []byte(v.raw), nil
}

// Present reports whether the field was sent with a non-null value.
func (v Value) Present() bool { return v.set }

// Truthy mirrors a JavaScript truthiness check: absent, null, 0, false and
// "" are falsy; any other value, including "0" as a string, is truthy.
func (v Value) Truthy() bool {
	if !v.set {
		return false
	}
	if v.quote {
		return v.raw != ""
	}
	switch v.raw {
	case "false":
		return false
	case "true":
		return true
	}
	f, err := strconv.ParseFloat(v.raw, 64)
	if err != nil {
		return true
	}
	return f != 0
}

// Float parses the value. Absent values are an error; check Present first.
func (v Value) Float() (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("malformed number %q", v.raw)
	}
	return f, nil
}

// Int parses the value and truncates toward zero. The result must fit the
// 32-bit INTEGER columns it is stored in.
func (v Value) Int() (int, error) {
	f, err := v.Float()
	if err != nil {
		return 0, err
	}
	f = math.Trunc(f)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("number out of range %q", v.raw)
	}
	return int(f), nil
}

// TruthyFloat returns nil when the value is falsy, otherwise the parsed number.
func (v Value) TruthyFloat() (*float64, error) {
	if !v.Truthy() {
		return nil, nil
	}
	f, err := v.Float()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// TruthyInt returns nil when the value is falsy, otherwise the truncated number.
func (v Value) TruthyInt() (*int, error) {
	if !v.Truthy() {
		return nil, nil
	}
	n, err := v.Int()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// PresentFloat returns nil only when the value is absent or null.
func (v Value) PresentFloat() (*float64, error) {
	if !v.set {
		return nil, nil
	}
	f, err := v.Float()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// PresentInt returns nil only when the value is absent or null.
func (v Value) PresentInt() (*int, error) {
	if !v.set {
		return nil, nil
	}
	n, err := v.Int()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Fields collects the first coercion error across several fields, prefixing it
// with the field name, so callers can convert a whole struct and check once.
type Fields struct {
	prefix string
	err    error
}

func NewFields(prefix string) *Fields {
	return &Fields{prefix: prefix}
}

func (f *Fields) Err() error { return f.err }

func (f *Fields) TruthyFloat(name string, v Value) *float64 {
	p, err := v.TruthyFloat()
	f.record(name, err)
	return p
}

func (f *Fields) TruthyInt(name string, v Value) *int {
	p, err := v.TruthyInt()
	f.record(name, err)
	return p
}

func (f *Fields) PresentFloat(name string, v Value) *float64 {
	p, err := v.PresentFloat()
	f.record(name, err)
	return p
}

func (f *Fields) PresentInt(name string, v Value) *int {
	p, err := v.PresentInt()
	f.record(name, err)
	return p
}

func (f *Fields) record(name string, err error) {
	if err == nil || f.err != nil {
		return
	}
	field := name
	if f.prefix != "" {
		field = f.prefix + "." + name
	}
	f.err = fmt.Errorf("%s: %w", field, err)
}
