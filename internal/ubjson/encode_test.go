package ubjson

import (
	"bytes"
	"testing"

	"github.com/crim-ca/dggs-server/internal/assembler"
)

type sample struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
	Empty string  `json:"empty,omitempty"`
}

func TestMarshalStructOmitsEmptyFields(t *testing.T) {
	out, err := Marshal(sample{Name: "zone", Count: 3, Value: 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty output")
	}
	if out[0] != '{' || out[len(out)-1] != '}' {
		t.Fatalf("expected an object, got leading/trailing bytes %v/%v", out[0], out[len(out)-1])
	}
	if bytes.Contains(out, []byte("empty")) {
		t.Fatalf("expected the empty omitempty field to be left out")
	}
}

func TestMarshalNaNBecomesNull(t *testing.T) {
	out, err := Marshal(map[string]any{"v": float64(0) / float64(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contains(out, 'Z') {
		t.Fatalf("expected NaN to encode as the null marker")
	}
}

func contains(b []byte, c byte) bool {
	for _, x := range b {
		if x == c {
			return true
		}
	}
	return false
}

func TestBuildDGGSJSONKeepsSchemaMember(t *testing.T) {
	model := BuildDGGSJSON(&assembler.Result{DGGRSID: "IGEO7", ZoneID: "00"})
	out, err := Marshal(model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty output")
	}
	if !bytes.Contains(out, []byte("$schema")) {
		t.Fatalf("expected the $schema member in the encoded output")
	}
}
