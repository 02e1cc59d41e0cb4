package gis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingField is returned when a record has no usable value for a field.
var ErrMissingField = errors.New("field missing or null")

// Field is a single attribute of a feature.
type Field struct {
	Value any
	Name  string
}

// Record holds the attributes of one feature in the order the service sent them.
// Numbers are kept as json.Number so identifiers and areas render verbatim.
type Record struct {
	index  map[string]int
	fields []Field
}

// NewRecord builds a record from fields. A repeated name overwrites the
// earlier value but keeps its position.
func NewRecord(fields ...Field) Record {
	r := Record{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		r.set(f.Name, f.Value)
	}
	return r
}

func (r *Record) set(name string, value any) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = Record{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attributes: expected object, got %v", tok)
	}

	out := Record{index: make(map[string]int)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("attributes: unexpected key %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("attributes: field %q: %w", key, err)
		}
		out.set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Empty reports whether the record has no fields.
func (r Record) Empty() bool {
	return len(r.fields) == 0
}

// Fields returns a copy of the fields in service order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the raw value of a field.
func (r Record) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// Has reports whether the field is present, even when its value is null.
func (r Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// String returns the field as text. Missing and null fields yield "".
func (r Record) String(name string) string {
	v, _ := r.Get(name)
	return FormatValue(v)
}

// Float parses the field as a number. Numeric strings are accepted.
func (r Record) Float(name string) (float64, error) {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: %w", name, ErrMissingField)
	}

	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s: unsupported value type %T", name, v)
	}
}

// Map returns the attributes as an unordered map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		m[f.Name] = f.Value
	}
	return m
}

// FormatValue renders an attribute value as plain text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
