package cart

import (
	"encoding/json"
	"testing"
)

func TestItemIDAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		raw  string
		want ItemID
	}{
		{raw: `"abc"`, want: "abc"},
		{raw: `" 42 "`, want: "42"},
		{raw: `42`, want: "42"},
		{raw: `1.0`, want: "1"},
		{raw: `1.50`, want: "1.5"},
		{raw: `null`, want: ""},
	}

	for _, tc := range tests {
		var id ItemID
		if err := json.Unmarshal([]byte(tc.raw), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if id != tc.want {
			t.Fatalf("unmarshal %s: want %q, got %q", tc.raw, tc.want, id)
		}
	}
}

func TestItemIDRejectsOtherShapes(t *testing.T) {
	for _, raw := range []string{`true`, `{"id":1}`, `[1]`} {
		var in ItemInput
		body := `{"id":` + raw + `,"name":"Pizza","price":1}`
		if err := json.Unmarshal([]byte(body), &in); err == nil {
			t.Fatalf("expected error for id %s", raw)
		}
	}
}

func TestItemInputDecodesLooseShapes(t *testing.T) {
	var numeric, quoted ItemInput
	if err := json.Unmarshal([]byte(`{"id":1,"name":"Pizza","price":9.5}`), &numeric); err != nil {
		t.Fatalf("decode numeric: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id":"1","name":" Pizza ","price":"9.50"}`), &quoted); err != nil {
		t.Fatalf("decode quoted: %v", err)
	}

	a, err := numeric.Normalize()
	if err != nil {
		t.Fatalf("normalize numeric: %v", err)
	}
	b, err := quoted.Normalize()
	if err != nil {
		t.Fatalf("normalize quoted: %v", err)
	}

	if a.ID != b.ID || a.Name != b.Name || !a.Price.Equal(b.Price) {
		t.Fatalf("expected both shapes to normalize alike, got %+v and %+v", a, b)
	}
}

func TestItemInputMissingPrice(t *testing.T) {
	var in ItemInput
	if err := json.Unmarshal([]byte(`{"id":1,"name":"Pizza","price":null}`), &in); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := in.Normalize(); err == nil {
		t.Fatalf("expected missing price to be rejected")
	}
}
