// Package tiles implements the MVT tile renderer (spec §4.7): pick a
// zone refinement level matching the requested tile's scale, fetch
// the collection's data for the zones that intersect the tile, and
// encode them as a Mapbox Vector Tile — grounded on the teacher's
// ST_AsMVT-based GenerateTile (internal/data/tiles.go), generalized
// from SQL-computed geometry to Go-computed DGGRS zone geometry.
package tiles

import (
	"fmt"
	"math"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/geom"
	"github.com/crim-ca/dggs-server/internal/registry"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

// Request bundles one MVT tile request (spec §4.7).
type Request struct {
	CollectionID  string
	DGGRSID       string
	Z, X, Y       uint32
	RelativeDepth int
}

// Render implements spec §4.7. An empty result set still produces a
// valid, zero-feature MVT tile rather than an error.
func Render(req Request, reg *registry.Registry) ([]byte, error) {
	entry, cp, ok := reg.Collection(req.CollectionID)
	if !ok {
		return nil, fmt.Errorf("tiles: unknown collection %q", req.CollectionID)
	}
	dggrsID := req.DGGRSID
	if dggrsID == "" {
		dggrsID = entry.Provider.DGGRSID
	}
	provider, ok := reg.DGGRS.Get(dggrsID)
	if !ok {
		return nil, fmt.Errorf("tiles: unknown dggrs %q", dggrsID)
	}

	tile := maptile.New(req.X, req.Y, maptile.Zoom(req.Z))
	bound := tile.Bound()
	bbox := geom.Extent{Minx: bound.Left(), Miny: bound.Bottom(), Maxx: bound.Right(), Maxy: bound.Top()}

	tileWidthKM := approxWidthKM(bbox)
	level, err := provider.GetZoneLevelByCLS(tileWidthKM)
	if err != nil {
		return nil, fmt.Errorf("tiles: %w", err)
	}
	level += req.RelativeDepth
	if level < entry.Provider.MinRefinementLevel {
		level = entry.Provider.MinRefinementLevel
	}
	if level > entry.Provider.MaxRefinementLevel {
		level = entry.Provider.MaxRefinementLevel
	}

	zoneIDs, err := provider.ZonesList(&bbox, level, nil, false)
	if err != nil {
		// ZonesList fails when no zone of this level lies in the tile
		// bound; the tile is then rendered with no features.
		zoneIDs = nil
	}

	features := []*geojson.Feature{}
	if len(zoneIDs) > 0 {
		info, err := provider.ZonesInfo(zoneIDs)
		if err != nil {
			return nil, fmt.Errorf("tiles: %w", err)
		}
		contribution, err := cp.GetData(collection.GetDataRequest{
			ZoneIDs:      zoneIDs,
			ZoneLevel:    level,
			DatasourceID: entry.Provider.DatasourceID,
		})
		if err != nil {
			return nil, fmt.Errorf("tiles: %w", err)
		}

		propsByZone := map[string]map[string]any{}
		if contribution.Outcome == collection.OutcomeOK && contribution.Table != nil {
			for i, z := range contribution.Table.Zones {
				props := map[string]any{}
				for _, name := range contribution.Table.ColOrder {
					props[name] = contribution.Table.Columns[name].At(i)
				}
				propsByZone[z] = props
			}
		}

		for i, zoneID := range zoneIDs {
			if i >= len(info.Geometry) {
				continue
			}
			clipped := clip.Geometry(bound, info.Geometry[i].ToOrb())
			if clipped == nil {
				continue
			}
			feature := geojson.NewFeature(clipped)
			feature.Properties = geojson.Properties{"zoneId": zoneID}
			for k, v := range propsByZone[zoneID] {
				feature.Properties[k] = v
			}
			features = append(features, feature)
		}
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = features
	layers := mvt.NewLayers(map[string]*geojson.FeatureCollection{req.CollectionID: fc})
	layers.ProjectToTile(tile)
	return mvt.MarshalGzipped(layers)
}

// approxWidthKM estimates the tile's east-west width in kilometers at
// its center latitude, using a spherical approximation (no geodesy
// library in the example pack covers this; the equal-area cylindrical
// approximation in internal/geom.AreaMetersSquare is the same kind of
// justified stdlib fallback).
func approxWidthKM(e geom.Extent) float64 {
	const earthRadiusKM = 6371.0
	midLat := (e.Miny + e.Maxy) / 2
	dLon := (e.Maxx - e.Minx) * math.Pi / 180
	return earthRadiusKM * dLon * math.Cos(midLat*math.Pi/180)
}
