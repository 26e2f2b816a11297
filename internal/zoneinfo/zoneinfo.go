// Package zoneinfo implements the zone-info resolver (spec §4.4):
// given a zone id, look up its geometry from the DGGRS provider and
// confirm at least one in-scope collection actually has data for it.
package zoneinfo

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/geom"
	"github.com/crim-ca/dggs-server/internal/registry"
)

// Response is ZoneInfoResponse (spec §4.4 step 3).
type Response struct {
	ID               string
	Level            int
	ShapeType        string
	CRS              string
	Centroid         dggrs.PointXY
	BBox             geom.Extent
	Geometry         geom.Polygon
	AreaMetersSquare float64
}

// Request bundles zone-info's inputs: {zoneId, dggrsId, collectionId?}.
type Request struct {
	ZoneID       string
	DGGRSID      string
	CollectionID *string // nil means "any collection in scope"
}

// Resolve implements spec §4.4. The bool result is false when no
// in-scope collection contributed any data — callers map that to
// HTTP 204 (spec §7 Empty), not an error.
func Resolve(req Request, reg *registry.Registry) (*Response, bool, error) {
	provider, ok := reg.DGGRS.Get(req.DGGRSID)
	if !ok {
		return nil, false, fmt.Errorf("zoneinfo: unknown dggrs %q", req.DGGRSID)
	}

	baseLevel, err := provider.GetCellsZoneLevel([]string{req.ZoneID})
	if err != nil {
		return nil, false, fmt.Errorf("zoneinfo: %w", err)
	}
	info, err := provider.ZonesInfo([]string{req.ZoneID})
	if err != nil {
		return nil, false, fmt.Errorf("zoneinfo: %w", err)
	}

	collections := scopedCollections(reg, req.CollectionID)
	contributed := 0
	for _, collID := range collections {
		entry, cp, ok := reg.Collection(collID)
		if !ok {
			continue
		}
		zoneIDs := []string{req.ZoneID}
		level := baseLevel
		if entry.Provider.DGGRSID != req.DGGRSID {
			zoneLevelOffset := 0
			if dggrsEntry, ok := reg.Document.DGGRS[req.DGGRSID]; ok {
				if conv, ok := dggrsEntry.DGGRSConversion[entry.Provider.DGGRSID]; ok {
					zoneLevelOffset = conv.ZoneLevelOffset
				}
			}
			converted, err := provider.Convert(zoneIDs, entry.Provider.DGGRSID, zoneLevelOffset, dggrs.ReprTextual)
			if err != nil {
				log.Warnf("zoneinfo: collection %q skipped: %v", collID, err)
				continue // ConversionUnsupported: collection skipped (spec §7)
			}
			zoneIDs = toStrings(converted)
			if target, ok := reg.DGGRS.Get(entry.Provider.DGGRSID); ok {
				level, _ = target.GetCellsZoneLevel(zoneIDs)
			}
		}
		if entry.Provider.DGGRSZoneIDRepr != "" && entry.Provider.DGGRSZoneIDRepr != string(dggrs.ReprTextual) {
			targetProvider := provider
			if entry.Provider.DGGRSID != req.DGGRSID {
				targetProvider, _ = reg.DGGRS.Get(entry.Provider.DGGRSID)
			}
			repr, err := targetProvider.ZoneIDFromTextual(zoneIDs, dggrs.ZoneIDRepr(entry.Provider.DGGRSZoneIDRepr))
			if err != nil {
				continue
			}
			zoneIDs = toStrings(repr)
		}
		contribution, err := cp.GetData(collection.GetDataRequest{
			ZoneIDs:      zoneIDs,
			ZoneLevel:    level,
			DatasourceID: entry.Provider.DatasourceID,
		})
		if err != nil || contribution.Outcome != collection.OutcomeOK {
			continue
		}
		if contribution.Table != nil && contribution.Table.Len() > 0 {
			contributed++
		}
	}

	if contributed == 0 {
		return nil, false, nil
	}

	resp := &Response{
		ID:               req.ZoneID,
		Level:            info.ZoneLevel,
		ShapeType:        info.ShapeType,
		CRS:              geom.CRS_WGS84,
		AreaMetersSquare: info.AreaMetersSquare,
	}
	if len(info.Geometry) > 0 {
		resp.Geometry = info.Geometry[0]
	}
	if len(info.BBox) > 0 {
		resp.BBox = info.BBox[0]
	}
	if len(info.Points) > 0 {
		resp.Centroid = info.Points[0]
	}
	return resp, true, nil
}

func scopedCollections(reg *registry.Registry, collectionID *string) []string {
	if collectionID != nil {
		return []string{*collectionID}
	}
	ids := make([]string, 0, len(reg.Document.Collections))
	for id := range reg.Document.Collections {
		ids = append(ids, id)
	}
	return ids
}

func toStrings(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}
