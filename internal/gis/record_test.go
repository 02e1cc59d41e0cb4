package gis

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRecordUnmarshalKeepsOrder(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"b": 1, "a": "x", "c": {"n": 2}, "b": 3}`), &rec); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	fields := rec.Fields()
	if len(fields) != 3 || fields[0].Name != "b" || fields[1].Name != "a" || fields[2].Name != "c" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if got := rec.String("b"); got != "3" {
		t.Errorf("duplicate key should keep last value, got %q", got)
	}
}

func TestRecordUnmarshalNull(t *testing.T) {
	rec := NewRecord(Field{Name: "a", Value: "x"})
	if err := rec.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("UnmarshalJSON(null) error: %v", err)
	}
	if !rec.Empty() {
		t.Fatalf("record should be empty after null, got %+v", rec.Fields())
	}
}

func TestRecordFloat(t *testing.T) {
	rec := NewRecord(
		Field{Name: "num", Value: json.Number("12.5")},
		Field{Name: "str", Value: " 7186491.014 "},
		Field{Name: "f64", Value: 3.25},
		Field{Name: "bad", Value: "n/a"},
		Field{Name: "bool", Value: true},
		Field{Name: "null", Value: nil},
	)

	cases := []struct {
		name    string
		want    float64
		wantErr bool
	}{
		{"num", 12.5, false},
		{"str", 7186491.014, false},
		{"f64", 3.25, false},
		{"bad", 0, true},
		{"bool", 0, true},
		{"null", 0, true},
		{"missing", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rec.Float(tc.name)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Float(%q) error = %v, wantErr %v", tc.name, err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("Float(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}

	if _, err := rec.Float("missing"); !errors.Is(err, ErrMissingField) {
		t.Errorf("missing field error = %v, want ErrMissingField", err)
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"ZR1", "ZR1"},
		{json.Number("53081003000"), "53081003000"},
		{1500.25, "1500.25"},
		{true, "true"},
	}

	for _, tc := range cases {
		if got := FormatValue(tc.in); got != tc.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRecordMap(t *testing.T) {
	rec := NewRecord(Field{Name: "a", Value: "x"}, Field{Name: "b", Value: nil})
	m := rec.Map()
	if len(m) != 2 || m["a"] != "x" {
		t.Fatalf("Map() = %v", m)
	}
}
