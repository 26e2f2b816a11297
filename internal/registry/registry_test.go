package registry

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/crim-ca/dggs-server/internal/collection"
)

func sampleDocumentJSON() string {
	return `{
		"dggrs": {
			"IGEO7": {"class": "IGEO7Provider", "title": "IGEO7", "crs": "WGS84", "defaultDepth": 8}
		},
		"collection_providers": {
			"mem": {"class": "MemProvider", "datasources": {"ds1": {}}}
		},
		"collections": {
			"rivers": {
				"id": "rivers",
				"title": "Rivers",
				"collection_provider": {
					"providerId": "mem",
					"dggrsId": "IGEO7",
					"dggrs_zoneid_repr": "textual",
					"min_refinement_level": 0,
					"max_refinement_level": 10,
					"datasource_id": "ds1"
				}
			}
		}
	}`
}

type stubProvider struct{}

func (stubProvider) GetData(req collection.GetDataRequest) (collection.Contribution, error) {
	return collection.OK(nil), nil
}
func (stubProvider) GetDataDictionary(datasourceID string) (collection.DataDictionary, error) {
	return collection.DataDictionary{}, nil
}

func TestBuildValidDocument(t *testing.T) {
	RegisterCollectionConstructor("MemProvider", func(entry CollectionProviderEntry) (collection.Provider, error) {
		return stubProvider{}, nil
	})

	doc, err := LoadDocument(strings.NewReader(sampleDocumentJSON()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg, err := Build(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.DGGRS.Get("IGEO7"); !ok {
		t.Fatalf("expected IGEO7 registered")
	}
	entry, provider, ok := reg.Collection("rivers")
	if !ok || provider == nil || entry.ID != "" && entry.ID != "rivers" {
		t.Fatalf("expected rivers collection resolvable, got %+v ok=%v", entry, ok)
	}
}

func TestValidateRejectsUnknownDGGRS(t *testing.T) {
	raw := `{
		"dggrs": {},
		"collection_providers": {"mem": {"class": "MemProvider", "datasources": {"ds1": {}}}},
		"collections": {
			"rivers": {
				"id": "rivers",
				"collection_provider": {"providerId": "mem", "dggrsId": "MISSING", "min_refinement_level": 0, "max_refinement_level": 1, "datasource_id": "ds1"}
			}
		}
	}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := doc.Validate(); err == nil {
		t.Fatalf("expected validation error for unregistered dggrsId")
	}
}

func TestValidateRejectsMinGreaterThanMax(t *testing.T) {
	raw := `{
		"dggrs": {"IGEO7": {"class": "IGEO7Provider"}},
		"collection_providers": {"mem": {"class": "MemProvider", "datasources": {"ds1": {}}}},
		"collections": {
			"rivers": {
				"id": "rivers",
				"collection_provider": {"providerId": "mem", "dggrsId": "IGEO7", "min_refinement_level": 5, "max_refinement_level": 2, "datasource_id": "ds1"}
			}
		}
	}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := doc.Validate(); err == nil {
		t.Fatalf("expected validation error for min > max")
	}
}
