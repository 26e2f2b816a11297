package assembler

import (
	"encoding/json"

	"github.com/crim-ca/dggs-server/internal/geom"
)

// ToGeoJSON implements spec §4.6 step 5's `application/geo+json`
// branch: one Feature per (zone, datetime?) row, tagged with its
// relative depth, dropping rows whose data columns are entirely NaN.
func (r *Result) ToGeoJSON() map[string]any {
	features := []map[string]any{}
	for _, level := range r.Levels {
		if level.Table == nil {
			continue
		}
		for i, zoneID := range level.Table.Zones {
			props := map[string]any{"depth": level.RelativeDepth, "zoneId": zoneID}
			anyValue := false
			for _, name := range level.Table.ColOrder {
				col := level.Table.Columns[name]
				v := col.At(i)
				if v != nil {
					anyValue = true
				}
				props[name] = v
			}
			if len(level.Table.Datetimes) > i && level.Table.Datetimes[i] != nil {
				props["datetime"] = level.Table.Datetimes[i]
			}
			if !anyValue {
				continue
			}
			feature := map[string]any{
				"type":       "Feature",
				"properties": props,
			}
			if poly, ok := level.Geometry[zoneID]; ok {
				feature["geometry"] = geom.PolygonToGeoJSON(poly)
			}
			features = append(features, feature)
		}
	}
	return map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	}
}

// MarshalGeoJSON is a convenience wrapper returning the encoded bytes.
func (r *Result) MarshalGeoJSON() ([]byte, error) {
	return json.Marshal(r.ToGeoJSON())
}
