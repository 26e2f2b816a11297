package cql2

import "testing"

func TestParseTextSimpleComparison(t *testing.T) {
	n, err := ParseText("modelled_residential_areas <= 6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Op != OpLte || n.Property != "modelled_residential_areas" {
		t.Fatalf("unexpected node: %+v", n)
	}
	if n.Value.(float64) != 6 {
		t.Fatalf("unexpected value: %v", n.Value)
	}
}

func TestParseTextAndOr(t *testing.T) {
	n, err := ParseText("region = 'north' AND population > 100 OR flagged = true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Op != OpOr {
		t.Fatalf("expected top-level OR, got %v", n.Op)
	}
}

func TestAttributesExcludesDatetime(t *testing.T) {
	n, err := ParseText("datetime >= '2020-01-01' AND region = 'north'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	attrs := Attributes(n)
	if _, ok := attrs[DatetimeAttribute]; ok {
		t.Fatalf("datetime sentinel should be excluded from attributes: %v", attrs)
	}
	if _, ok := attrs["region"]; !ok {
		t.Fatalf("expected region in attributes: %v", attrs)
	}
}

func TestParseJSONComparison(t *testing.T) {
	n, err := ParseJSON([]byte(`{"op": "<=", "args": [{"property": "modelled_residential_areas"}, 6]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Op != OpLte || n.Property != "modelled_residential_areas" {
		t.Fatalf("unexpected node: %+v", n)
	}
}

func TestToSQLWithFieldMapper(t *testing.T) {
	n, _ := ParseText("datetime >= '2020-01-01' AND region = 'north'")
	mapper := func(attr string) string {
		if attr == DatetimeAttribute {
			return `"obs_time"`
		}
		return ""
	}
	sql := ToSQL(n, mapper, SQLDialect{})
	want := `("obs_time" >= '2020-01-01') AND ("region" = 'north')`
	if sql != want {
		t.Fatalf("got %q, want %q", sql, want)
	}
}
