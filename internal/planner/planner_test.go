package planner

import (
	"testing"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/coltable"
	"github.com/crim-ca/dggs-server/internal/cql2"
	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/dggrs/igeo7"
	"github.com/crim-ca/dggs-server/internal/registry"
)

type fakeCollectionProvider struct {
	keep map[string]bool
	dict collection.DataDictionary
}

func (f fakeCollectionProvider) GetData(req collection.GetDataRequest) (collection.Contribution, error) {
	var survivors []string
	for _, z := range req.ZoneIDs {
		if f.keep == nil || f.keep[z] {
			survivors = append(survivors, z)
		}
	}
	if len(survivors) == 0 {
		return collection.Skipped("no rows"), nil
	}
	return collection.OK(coltable.NewTable(survivors)), nil
}

func (f fakeCollectionProvider) GetDataDictionary(datasourceID string) (collection.DataDictionary, error) {
	return f.dict, nil
}

func buildTestRegistry(t *testing.T, keep map[string]bool) (*registry.Registry, []string) {
	t.Helper()
	dreg := dggrs.NewRegistry()
	provider := igeo7.New()
	dreg.Register(provider)

	zones, err := provider.ZonesList(nil, 2, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := &registry.Document{
		DGGRS: map[string]registry.DGGRSEntry{"IGEO7": {Class: "IGEO7Provider"}},
		CollectionProviders: map[string]registry.CollectionProviderEntry{
			"mem": {Class: "fake"},
		},
		Collections: map[string]registry.CollectionEntry{
			"rivers": {
				ID: "rivers",
				Provider: registry.CollectionProviderRef{
					ProviderID:         "mem",
					DGGRSID:            "IGEO7",
					DGGRSZoneIDRepr:    "textual",
					MinRefinementLevel: 0,
					MaxRefinementLevel: 10,
					DatasourceID:       "ds1",
				},
			},
		},
	}

	reg := &registry.Registry{
		Document: doc,
		DGGRS:    dreg,
		CollectionProviders: map[string]collection.Provider{
			"mem": fakeCollectionProvider{keep: keep},
		},
	}
	return reg, zones
}

func TestPlanUnionsSurvivingZones(t *testing.T) {
	reg, zones := buildTestRegistry(t, nil)
	if len(zones) == 0 {
		t.Fatalf("expected candidate zones")
	}
	keep := map[string]bool{zones[0]: true}
	reg.CollectionProviders["mem"] = fakeCollectionProvider{keep: keep}

	result, ok, err := Plan(Request{DGGRSID: "IGEO7", ZoneLevel: 2}, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a non-empty result")
	}
	if len(result.Zones) != 1 || result.Zones[0] != zones[0] {
		t.Fatalf("expected only %v to survive, got %v", zones[0], result.Zones)
	}
}

func TestPlanEmptyUnionReturnsFalse(t *testing.T) {
	reg, _ := buildTestRegistry(t, map[string]bool{})

	_, ok, err := Plan(Request{DGGRSID: "IGEO7", ZoneLevel: 2}, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected empty union to report false, not an error")
	}
}

func TestPlanUnsatisfiedCQLAttributes(t *testing.T) {
	reg, _ := buildTestRegistry(t, nil)
	reg.CollectionProviders["mem"] = fakeCollectionProvider{
		dict: collection.DataDictionary{Properties: map[string]string{"other": "float64"}},
	}

	node, err := cql2.ParseText("missing_field = 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, planErr := Plan(Request{DGGRSID: "IGEO7", ZoneLevel: 2, Filter: node}, reg)
	if planErr == nil {
		t.Fatalf("expected CQLAttributesUnsatisfied error")
	}
	if _, ok := planErr.(*ErrCQLAttributesUnsatisfied); !ok {
		t.Fatalf("expected *ErrCQLAttributesUnsatisfied, got %T: %v", planErr, planErr)
	}
}
