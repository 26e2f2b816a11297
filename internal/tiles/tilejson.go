package tiles

import (
	"fmt"

	"github.com/crim-ca/dggs-server/internal/registry"
)

// TileJSON is the TileJSON 3.0.0 metadata document describing a
// collection's tile endpoint, grounded on the teacher's TileJSON
// struct (internal/data/tiles.go), with WGS84 lon/lat bounds in place
// of the teacher's Web Mercator ones since DGGRS zones are defined in
// geographic space.
type TileJSON struct {
	TileJSON     string        `json:"tilejson"`
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Version      string        `json:"version,omitempty"`
	Scheme       string        `json:"scheme,omitempty"`
	Tiles        []string      `json:"tiles"`
	MinZoom      int           `json:"minzoom,omitempty"`
	MaxZoom      int           `json:"maxzoom,omitempty"`
	Bounds       []float64     `json:"bounds,omitempty"`
	Center       []float64     `json:"center,omitempty"`
	VectorLayers []VectorLayer `json:"vector_layers,omitempty"`
}

// VectorLayer mirrors the teacher's VectorLayer.
type VectorLayer struct {
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	MinZoom     int               `json:"minzoom,omitempty"`
	MaxZoom     int               `json:"maxzoom,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// GetTileJSON builds the TileJSON document for collectionID, grounded
// on the teacher's GetTileJSON.
func GetTileJSON(collectionID, baseURL string, reg *registry.Registry) (*TileJSON, error) {
	entry, cp, ok := reg.Collection(collectionID)
	if !ok {
		return nil, fmt.Errorf("tiles: unknown collection %q", collectionID)
	}

	tileURL := fmt.Sprintf("%s/tiles-api/%s/{z}/{x}/{y}", baseURL, collectionID)

	tj := &TileJSON{
		TileJSON: "3.0.0",
		Name:     entry.Title,
		Version:  "1.0.0",
		Scheme:   "xyz",
		Tiles:    []string{tileURL},
		MinZoom:  entry.Provider.MinRefinementLevel,
		MaxZoom:  entry.Provider.MaxRefinementLevel,
	}

	if entry.Extent != nil {
		tj.Bounds = []float64{entry.Extent.Minx, entry.Extent.Miny, entry.Extent.Maxx, entry.Extent.Maxy}
		tj.Center = []float64{(entry.Extent.Minx + entry.Extent.Maxx) / 2, (entry.Extent.Miny + entry.Extent.Maxy) / 2, 0}
	}

	fields := map[string]string{}
	if dict, err := cp.GetDataDictionary(entry.Provider.DatasourceID); err == nil {
		for name, dtype := range dict.Properties {
			fields[name] = dtype
		}
	}

	tj.VectorLayers = []VectorLayer{
		{
			ID:      collectionID,
			MinZoom: entry.Provider.MinRefinementLevel,
			MaxZoom: entry.Provider.MaxRefinementLevel,
			Fields:  fields,
		},
	}

	return tj, nil
}
