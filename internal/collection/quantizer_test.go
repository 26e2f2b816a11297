package collection

import "testing"

import "github.com/crim-ca/dggs-server/internal/coltable"

func TestQuantizeZonesSum(t *testing.T) {
	child := coltable.NewTable([]string{"c1", "c2", "c3"})
	child.SetColumn("count", coltable.NewFloat64Column([]float64{1, 2, 3}, nil))

	mapping := map[string][]string{"p0": {"c1", "c2", "c3"}}
	out := QuantizeZones(child, mapping, map[string]QuantizeMethod{"count": QuantizeSum})
	if out.Len() != 1 || out.Zones[0] != "p0" {
		t.Fatalf("unexpected zones: %v", out.Zones)
	}
	v, ok := out.Columns["count"].Float64(0)
	if !ok || v != 6 {
		t.Fatalf("expected sum 6, got %v (%v)", v, ok)
	}
}

func TestQuantizeZonesMean(t *testing.T) {
	child := coltable.NewTable([]string{"c1", "c2"})
	child.SetColumn("temp", coltable.NewFloat64Column([]float64{10, 20}, nil))

	mapping := map[string][]string{"p0": {"c1", "c2"}}
	out := QuantizeZones(child, mapping, map[string]QuantizeMethod{"temp": QuantizeMean})
	v, ok := out.Columns["temp"].Float64(0)
	if !ok || v != 15 {
		t.Fatalf("expected mean 15, got %v (%v)", v, ok)
	}
}

func TestQuantizeZonesNoMappingIsIdentity(t *testing.T) {
	child := coltable.NewTable([]string{"c1"})
	child.SetColumn("x", coltable.NewFloat64Column([]float64{1}, nil))
	out := QuantizeZones(child, nil, nil)
	if out != child {
		t.Fatalf("expected identity passthrough when zonesMapping is empty")
	}
}
