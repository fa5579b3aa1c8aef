package capability

import (
	"encoding/json"
	"testing"
)

func TestZeroDefaults(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{KindNumber, "0"},
		{KindText, ""},
		{KindSequence, "[]"},
		{KindBool, "false"},
		{KindOther, "<none>"},
	}
	for _, c := range cases {
		got := Zero(c.kind)
		if got.Kind != c.kind {
			t.Errorf("Zero(%s).Kind = %s", c.kind, got.Kind)
		}
		if got.String() != c.want {
			t.Errorf("Zero(%s) = %q, want %q", c.kind, got.String(), c.want)
		}
	}
}

func TestValueMarshalJSON(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Number(3.5), "3.5"},
		{Text("hi"), `"hi"`},
		{Sequence([]string{"a", "b"}), `["a","b"]`},
		{Bool(true), "true"},
		{None(), "null"},
	}
	for _, c := range cases {
		b, err := c.v.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v): %v", c.v, err)
		}
		if string(b) != c.want {
			t.Errorf("MarshalJSON(%v) = %s, want %s", c.v, b, c.want)
		}
	}
}

func TestValueMarshalJSONControlChars(t *testing.T) {
	// Control characters and quotes must come out as valid JSON, not Go
	// escape syntax.
	values := []Value{
		Text("a\x01b\x1fc"),
		Text(`quote " and \ backslash`),
		Sequence([]string{"ok", "bad\x00byte"}),
	}
	for _, v := range values {
		b, err := v.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v): %v", v, err)
		}
		if !json.Valid(b) {
			t.Errorf("MarshalJSON(%v) produced invalid JSON: %s", v, b)
		}
	}

	var s string
	b, _ := Text("a\x01b").MarshalJSON()
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if s != "a\x01b" {
		t.Errorf("round trip = %q, want %q", s, "a\x01b")
	}
}
