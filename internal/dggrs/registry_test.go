package dggrs_test

import (
	"testing"

	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/dggrs/igeo7"
	"github.com/crim-ca/dggs-server/internal/dggrs/vh3"
)

func TestRegistryLookup(t *testing.T) {
	r := dggrs.NewRegistry()
	r.Register(igeo7.New())
	r.Register(vh3.New())

	if _, ok := r.Get("IGEO7"); !ok {
		t.Fatalf("expected IGEO7 to be registered")
	}
	if _, ok := r.Get("VH3"); !ok {
		t.Fatalf("expected VH3 to be registered")
	}
	if _, ok := r.Get("NOPE"); ok {
		t.Fatalf("did not expect NOPE to be registered")
	}
	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 registered providers, got %d", len(names))
	}
}

func TestCrossDGGRSConversionUnsupported(t *testing.T) {
	var p dggrs.Provider = igeo7.New()
	_, err := p.Convert([]string{"001234"}, "H3", 0, dggrs.ReprTextual)
	if err == nil {
		t.Fatalf("expected conversion from IGEO7 to H3 to be unsupported")
	}
}

func TestCrossDGGRSConversionIGEO7ToVH3(t *testing.T) {
	var p dggrs.Provider = igeo7.New()
	out, err := p.Convert([]string{"001234"}, "VH3", 0, dggrs.ReprTextual)
	if err != nil {
		t.Fatalf("expected conversion from IGEO7 to VH3 to succeed, got %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 converted zone id, got %d", len(out))
	}
}
