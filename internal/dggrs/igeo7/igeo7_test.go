package igeo7

import (
	"testing"

	"github.com/crim-ca/dggs-server/internal/dggrs"
)

func TestTextualIntRoundTrip(t *testing.T) {
	p := New()
	textual := "001234560"
	asInt, err := p.ZoneIDFromTextual([]string{textual}, dggrs.ReprInt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	level, err := p.GetCellsZoneLevel([]string{textual})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := p.ZoneIDToTextual(asInt, dggrs.ReprInt, level)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back[0] != textual {
		t.Fatalf("round trip mismatch: got %q want %q", back[0], textual)
	}
}

func TestGetZoneLevelByCLSOffByOne(t *testing.T) {
	p := New()
	// level 8 CLS is 3.3564171 km, level 7 is 8.8802451 km: a threshold
	// of 5 km should return level 8, the first level strictly below it.
	lvl, err := p.GetZoneLevelByCLS(5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lvl != 8 {
		t.Fatalf("expected level 8, got %d", lvl)
	}
}

func TestAreaMetersSquareLevel8(t *testing.T) {
	p := New()
	area, err := p.GetAreaMetersSquare(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 8.8479311 * 1_000_000
	if area != want {
		t.Fatalf("got %v want %v", area, want)
	}
}

func TestZonesListCompactsFullSiblingGroup(t *testing.T) {
	p := New()
	parent := "001234"
	zones, err := p.ZonesList(nil, 5, &parent, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 1 || zones[0] != parent {
		t.Fatalf("expected full child set to compact back to parent, got %v", zones)
	}
}

func TestConvertUnsupportedTarget(t *testing.T) {
	p := New()
	_, err := p.Convert([]string{"001234"}, "H3", 0, dggrs.ReprTextual)
	if err == nil {
		t.Fatalf("expected conversion-unsupported error")
	}
	var convErr *dggrs.ErrConversionUnsupported
	if _, ok := err.(*dggrs.ErrConversionUnsupported); !ok {
		t.Fatalf("expected *dggrs.ErrConversionUnsupported, got %T (%v)", err, convErr)
	}
}

func TestConvertToVH3(t *testing.T) {
	p := New()
	out, err := p.Convert([]string{"001234"}, "VH3", 0, dggrs.ReprTextual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zone, ok := out[0].(string)
	if !ok {
		t.Fatalf("expected string zone id, got %T", out[0])
	}
	sourceLevel, err := p.GetCellsZoneLevel([]string{"001234"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zone)-1 != sourceLevel {
		t.Fatalf("expected VH3 zone at level %d, got %q (level %d)", sourceLevel, zone, len(zone)-1)
	}
}
