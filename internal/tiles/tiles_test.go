package tiles

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

func buildTilesRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	dreg := dggrs.NewRegistry()
	dreg.Register(igeo7.New())

	doc := &registry.Document{
		DGGRS: map[string]registry.DGGRSEntry{"IGEO7": {Class: "IGEO7Provider"}},
		CollectionProviders: map[string]registry.CollectionProviderEntry{
			"mem": {Class: "fake"},
		},
		Collections: map[string]registry.CollectionEntry{
			"rivers": {
				ID:    "rivers",
				Title: "Rivers",
				Provider: registry.CollectionProviderRef{
					ProviderID:         "mem",
					DGGRSID:            "IGEO7",
					MinRefinementLevel: 0,
					MaxRefinementLevel: 15,
					DatasourceID:       "ds1",
				},
			},
		},
	}

	return &registry.Registry{
		Document: doc,
		DGGRS:    dreg,
		CollectionProviders: map[string]collection.Provider{
			"mem": fakeProvider{},
		},
	}
}

func TestRenderProducesTileBytes(t *testing.T) {
	reg := buildTilesRegistry(t)

	data, err := Render(Request{CollectionID: "rivers", DGGRSID: "IGEO7", Z: 2, X: 2, Y: 1}, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty tile bytes")
	}
}

func TestRenderUnknownCollectionErrors(t *testing.T) {
	reg := buildTilesRegistry(t)

	if _, err := Render(Request{CollectionID: "missing", Z: 2, X: 2, Y: 1}, reg); err == nil {
		t.Fatalf("expected error for unknown collection")
	}
}

func TestGetTileJSONIncludesVectorLayer(t *testing.T) {
	reg := buildTilesRegistry(t)

	tj, err := GetTileJSON("rivers", "http://localhost:9000", reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tj.VectorLayers) != 1 || tj.VectorLayers[0].ID != "rivers" {
		t.Fatalf("expected one vector layer named rivers, got %+v", tj.VectorLayers)
	}
	if tj.Tiles[0] != "http://localhost:9000/tiles-api/rivers/{z}/{x}/{y}" {
		t.Fatalf("unexpected tile URL template: %s", tj.Tiles[0])
	}
}
