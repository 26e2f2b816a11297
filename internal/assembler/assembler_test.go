package assembler

import (
	"testing"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/coltable"
	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/dggrs/igeo7"
	"github.com/crim-ca/dggs-server/internal/registry"
)

type fakeProvider struct{}

func (fakeProvider) GetData(req collection.GetDataRequest) (collection.Contribution, error) {
	t := coltable.NewTable(req.ZoneIDs)
	vals := make([]float64, len(req.ZoneIDs))
	for i := range vals {
		vals[i] = float64(i)
	}
	t.SetColumn("value", coltable.NewFloat64Column(vals, nil))
	return collection.OK(t), nil
}

func (fakeProvider) GetDataDictionary(datasourceID string) (collection.DataDictionary, error) {
	return collection.DataDictionary{Properties: map[string]string{"value": "float64"}}, nil
}

func buildAssemblerRegistry(t *testing.T) (*registry.Registry, string) {
	t.Helper()
	dreg := dggrs.NewRegistry()
	provider := igeo7.New()
	dreg.Register(provider)

	zones, err := provider.ZonesList(nil, 2, nil, false)
	if err != nil || len(zones) == 0 {
		t.Fatalf("unexpected error or empty zones: %v", err)
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
					MinRefinementLevel: 0,
					MaxRefinementLevel: 20,
					DatasourceID:       "ds1",
				},
			},
		},
	}

	reg := &registry.Registry{
		Document: doc,
		DGGRS:    dreg,
		CollectionProviders: map[string]collection.Provider{
			"mem": fakeProvider{},
		},
	}
	return reg, zones[0]
}

func TestAssembleBaseLevelOnly(t *testing.T) {
	reg, zoneID := buildAssemblerRegistry(t)

	result, ok, err := Assemble(Request{ZoneID: zoneID, DGGRSID: "IGEO7", RelativeDepths: []int{0}}, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a contribution")
	}
	if len(result.Levels) != 1 {
		t.Fatalf("expected exactly one level, got %d", len(result.Levels))
	}
	if result.Levels[0].RelativeDepth != 0 {
		t.Fatalf("expected relative depth 0, got %d", result.Levels[0].RelativeDepth)
	}
	if got := result.Levels[0].Table.Columns["rivers.value"]; got.Len() != 1 {
		t.Fatalf("expected one row of prefixed column rivers.value, got len %d", got.Len())
	}
}

func TestAssembleExpandsToChildDepth(t *testing.T) {
	reg, zoneID := buildAssemblerRegistry(t)

	result, ok, err := Assemble(Request{ZoneID: zoneID, DGGRSID: "IGEO7", RelativeDepths: []int{0, 1}}, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a contribution")
	}
	if len(result.Levels) != 2 {
		t.Fatalf("expected two levels, got %d", len(result.Levels))
	}
	if result.Levels[1].Table.Len() != 7 {
		t.Fatalf("expected 7 children at depth 1, got %d", result.Levels[1].Table.Len())
	}
}

func TestAssembleNoContributionReturnsFalse(t *testing.T) {
	reg, zoneID := buildAssemblerRegistry(t)
	reg.Document.Collections = map[string]registry.CollectionEntry{}

	_, ok, err := Assemble(Request{ZoneID: zoneID, DGGRSID: "IGEO7", RelativeDepths: []int{0}}, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no contribution to report false")
	}
}
