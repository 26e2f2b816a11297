package coltable

import "testing"

func TestOuterJoinAlignsOnZone(t *testing.T) {
	a := NewTable([]string{"z1", "z2"})
	a.SetColumn("temp", NewFloat64Column([]float64{1.5, 2.5}, nil))

	b := NewTable([]string{"z2", "z3"})
	b.SetColumn("precip", NewFloat64Column([]float64{10, 20}, nil))

	out := OuterJoin([]*Table{a, b})
	if out.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.Len())
	}
	temp := out.Columns["temp"]
	precip := out.Columns["precip"]
	for i, z := range out.Zones {
		switch z {
		case "z1":
			if v, ok := temp.Float64(i); !ok || v != 1.5 {
				t.Fatalf("z1 temp: %v %v", v, ok)
			}
			if _, ok := precip.Float64(i); ok {
				t.Fatalf("z1 precip should be null")
			}
		case "z2":
			if v, ok := temp.Float64(i); !ok || v != 2.5 {
				t.Fatalf("z2 temp: %v %v", v, ok)
			}
			if v, ok := precip.Float64(i); !ok || v != 10 {
				t.Fatalf("z2 precip: %v %v", v, ok)
			}
		case "z3":
			if v, ok := temp.Float64(i); ok {
				t.Fatalf("z3 temp should be null, got %v", v)
			}
		}
	}
}

func TestGroupByModePicksMostFrequentValue(t *testing.T) {
	child := NewTable([]string{"c1", "c2", "c3"})
	child.SetColumn("landcover", NewStringColumn([]string{"forest", "forest", "water"}, nil))
	parentOf := map[string]string{"c1": "p0", "c2": "p0", "c3": "p0"}

	out := GroupByMode(child, parentOf)
	if out.Len() != 1 || out.Zones[0] != "p0" {
		t.Fatalf("unexpected grouped zones: %v", out.Zones)
	}
	col := out.Columns["landcover"]
	v := col.At(0)
	if v != "forest" {
		t.Fatalf("expected mode 'forest', got %v", v)
	}
}

func TestFillNodataReplacesNulls(t *testing.T) {
	col := NewFloat64Column([]float64{1, 0, 3}, []bool{true, false, true})
	filled := FillNodata(col, -9999)
	if v, _ := filled.Float64(1); v != -9999 {
		t.Fatalf("expected sentinel, got %v", v)
	}
	if v, _ := filled.Float64(0); v != 1 {
		t.Fatalf("expected 1, got %v", v)
	}
}
