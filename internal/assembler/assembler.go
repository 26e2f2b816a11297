// Package assembler implements the data-retrieval assembler (spec
// §4.6): expand one zone into the relative depths a request asks for,
// fan out to every in-scope collection at every resulting absolute
// zone level, and outer-join the per-collection results into one
// table per level ready for encoding.
package assembler

import (
	"fmt"
	"sort"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/coltable"
	"github.com/crim-ca/dggs-server/internal/cql2"
	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/geom"
	"github.com/crim-ca/dggs-server/internal/registry"
)

// Request bundles the data-retrieval assembler's inputs (spec §4.6).
type Request struct {
	ZoneID            string
	DGGRSID           string
	RelativeDepths    []int // resolved from zone_depth ("a-b", list, or single value) by the caller
	Filter            *cql2.Node
	IncludeDatetime   bool
	IncludeProperties []string
	ExcludeProperties []string
	ReturnGeometry    bool
	CollectionIDs     []string // nil/empty means every registered collection
}

// Level is one absolute zone level's worth of assembled, outer-joined
// data plus the request-DGGRS geometry of each zone at that level.
type Level struct {
	AbsoluteLevel int
	RelativeDepth int
	ZoneIDs       []string
	Geometry      map[string]geom.Polygon
	Table         *coltable.Table
}

// Result is the fully assembled, not-yet-encoded response (spec §4.6
// step 4, prior to step 5's encoding).
type Result struct {
	ZoneID    string
	DGGRSID   string
	BaseLevel int
	Levels    []Level
}

// Assemble implements spec §4.6. The bool result is false when no
// collection contributed at any depth (HTTP 204, spec §4.6 step 6).
func Assemble(req Request, reg *registry.Registry) (*Result, bool, error) {
	provider, ok := reg.DGGRS.Get(req.DGGRSID)
	if !ok {
		return nil, false, fmt.Errorf("assembler: unknown dggrs %q", req.DGGRSID)
	}

	baseLevel, err := provider.GetCellsZoneLevel([]string{req.ZoneID})
	if err != nil {
		return nil, false, fmt.Errorf("assembler: %w", err)
	}

	relativeLevels := uniqueSortedInts(addOffsets(baseLevel, req.RelativeDepths))

	otherLevels := make([]int, 0, len(relativeLevels))
	for _, l := range relativeLevels {
		if l != baseLevel {
			otherLevels = append(otherLevels, l)
		}
	}

	expansion := map[int]dggrs.ZonesElement{}
	if len(otherLevels) > 0 {
		expansion, err = provider.GetRelativeZoneLevels(req.ZoneID, baseLevel, otherLevels)
		if err != nil {
			return nil, false, fmt.Errorf("assembler: %w", err)
		}
	}
	baseInfo, err := provider.ZonesInfo([]string{req.ZoneID})
	baseGeometry := []geom.Polygon{}
	if err == nil && baseInfo != nil {
		baseGeometry = baseInfo.Geometry
	}
	expansion[baseLevel] = dggrs.ZonesElement{ZoneIDs: []string{req.ZoneID}, Geometry: baseGeometry}

	collectionIDs := req.CollectionIDs
	if len(collectionIDs) == 0 {
		for id := range reg.Document.Collections {
			collectionIDs = append(collectionIDs, id)
		}
	}

	cqlAttrs := cql2.Attributes(req.Filter)

	contributed := false
	result := &Result{ZoneID: req.ZoneID, DGGRSID: req.DGGRSID, BaseLevel: baseLevel}

	for _, level := range relativeLevels {
		element := expansion[level]
		geomByZone := geometryByZone(element)

		perCollectionTables := []*coltable.Table{}

		for _, collID := range collectionIDs {
			entry, cp, ok := reg.Collection(collID)
			if !ok {
				continue
			}
			if len(cqlAttrs) > 0 {
				dict, err := cp.GetDataDictionary(entry.Provider.DatasourceID)
				if err != nil || !satisfiesAllAttributes(cqlAttrs, dict) {
					continue
				}
			}
			if level-baseLevel+entry.Provider.MinRefinementLevel > entry.Provider.MaxRefinementLevel {
				continue // requested relative depth exceeds this collection's declared range (spec §4.6 step 3)
			}

			table, ok := fetchCollectionLevel(entry, cp, provider, req, level, element, reg)
			if !ok {
				continue
			}
			prefixed := coltable.NewTable(table.Zones)
			prefixed.Datetimes = table.Datetimes
			for _, name := range table.ColOrder {
				prefixed.SetColumn(collID+"."+name, table.Columns[name])
			}
			perCollectionTables = append(perCollectionTables, prefixed)
			contributed = true
		}

		var joined *coltable.Table
		if len(perCollectionTables) > 0 {
			joined = coltable.OuterJoin(perCollectionTables)
		} else {
			joined = coltable.NewTable(nil)
		}

		result.Levels = append(result.Levels, Level{
			AbsoluteLevel: level,
			RelativeDepth: level - baseLevel,
			ZoneIDs:       element.ZoneIDs,
			Geometry:      geomByZone,
			Table:         joined,
		})
	}

	if !contributed {
		return nil, false, nil
	}
	return result, true, nil
}

// fetchCollectionLevel runs one collection's get_data at one absolute
// level (spec §4.6 step 3a-3b): convert the candidate zone list into
// the collection's DGGRS when needed, fetch, and map each returned row
// back to a request zone. When conversion collapses several request
// zones onto the same target zone, every row returned for that target
// is attributed to the last of those request zones only; the other
// request zones get no row from this collection, and no aggregation
// across them is done.
func fetchCollectionLevel(entry registry.CollectionEntry, cp collection.Provider, provider dggrs.Provider, req Request, level int, element dggrs.ZonesElement, reg *registry.Registry) (*coltable.Table, bool) {
	zoneIDs := element.ZoneIDs
	queryLevel := level
	sourceOfTarget := map[string]string{}
	for _, z := range zoneIDs {
		sourceOfTarget[z] = z
	}

	queryZoneIDs := zoneIDs
	if entry.Provider.DGGRSID != req.DGGRSID {
		zoneLevelOffset := 0
		if dggrsEntry, ok := reg.Document.DGGRS[req.DGGRSID]; ok {
			if conv, ok := dggrsEntry.DGGRSConversion[entry.Provider.DGGRSID]; ok {
				zoneLevelOffset = conv.ZoneLevelOffset
			}
		}
		converted, err := provider.Convert(zoneIDs, entry.Provider.DGGRSID, zoneLevelOffset, dggrs.ReprTextual)
		if err != nil {
			return nil, false // ConversionUnsupported: collection skipped for this level (spec §7)
		}
		queryZoneIDs = toStrings(converted)
		sourceOfTarget = map[string]string{}
		for i, t := range queryZoneIDs {
			sourceOfTarget[t] = zoneIDs[i]
		}
		if target, ok := reg.DGGRS.Get(entry.Provider.DGGRSID); ok {
			queryLevel, _ = target.GetCellsZoneLevel(queryZoneIDs)
		}
	}

	if entry.Provider.DGGRSZoneIDRepr != "" && entry.Provider.DGGRSZoneIDRepr != string(dggrs.ReprTextual) {
		targetProvider := provider
		if entry.Provider.DGGRSID != req.DGGRSID {
			targetProvider, _ = reg.DGGRS.Get(entry.Provider.DGGRSID)
		}
		repr, err := targetProvider.ZoneIDFromTextual(queryZoneIDs, dggrs.ZoneIDRepr(entry.Provider.DGGRSZoneIDRepr))
		if err != nil {
			return nil, false
		}
		queryZoneIDs = toStrings(repr)
	}

	contribution, err := cp.GetData(collection.GetDataRequest{
		ZoneIDs:           queryZoneIDs,
		ZoneLevel:         queryLevel,
		DatasourceID:      entry.Provider.DatasourceID,
		Filter:            req.Filter,
		IncludeDatetime:   req.IncludeDatetime,
		IncludeProperties: req.IncludeProperties,
		ExcludeProperties: req.ExcludeProperties,
	})
	if err != nil || contribution.Outcome != collection.OutcomeOK || contribution.Table == nil {
		return nil, false
	}

	if entry.Provider.DGGRSID == req.DGGRSID {
		return contribution.Table, true
	}

	backConverted := coltable.NewTable(nil)
	for i, z := range contribution.Table.Zones {
		source, ok := sourceOfTarget[z]
		if !ok {
			source = z
		}
		backConverted.Zones = append(backConverted.Zones, source)
		if len(contribution.Table.Datetimes) > i {
			backConverted.Datetimes = append(backConverted.Datetimes, contribution.Table.Datetimes[i])
		}
	}
	for _, name := range contribution.Table.ColOrder {
		backConverted.SetColumn(name, contribution.Table.Columns[name])
	}
	return backConverted, true
}

func geometryByZone(element dggrs.ZonesElement) map[string]geom.Polygon {
	out := map[string]geom.Polygon{}
	for i, z := range element.ZoneIDs {
		if i < len(element.Geometry) {
			out[z] = element.Geometry[i]
		}
	}
	return out
}

func satisfiesAllAttributes(attrs map[string]struct{}, dict collection.DataDictionary) bool {
	for a := range attrs {
		if a == cql2.DatetimeAttribute {
			if !dict.HasDatetime {
				return false
			}
			continue
		}
		if _, ok := dict.Properties[a]; !ok {
			return false
		}
	}
	return true
}

func addOffsets(base int, depths []int) []int {
	out := make([]int, len(depths))
	for i, d := range depths {
		out[i] = base + d
	}
	if len(out) == 0 {
		out = []int{base}
	}
	return out
}

func uniqueSortedInts(vals []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func toStrings(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}
