// Package planner implements the zone-query planner (spec §4.5),
// grounded on pydggsapi's query_zones_list (zone_query.py): enumerate
// candidate zones, run each in-scope collection's CQL-filtered
// get_data, union the surviving zone ids, and report whether the
// request can be satisfied at all.
package planner

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/cql2"
	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/geom"
	"github.com/crim-ca/dggs-server/internal/registry"
)

// ErrCQLAttributesUnsatisfied maps to spec §7's CQLAttributesUnsatisfied,
// returned when every in-scope collection had to be skipped because
// none of them can serve every attribute the filter references.
type ErrCQLAttributesUnsatisfied struct {
	Attributes []string
}

func (e *ErrCQLAttributesUnsatisfied) Error() string {
	return fmt.Sprintf("planner: no in-scope collection satisfies CQL attributes %v", e.Attributes)
}

// Request bundles the zone-query planner's inputs (spec §4.5).
type Request struct {
	BBox           *geom.Extent
	ParentZone     *string
	DGGRSID        string
	ZoneLevel      int
	Compact        bool
	Limit          int
	Filter         *cql2.Node
	IncludeDatetime bool
	CollectionIDs  []string // scoped collections; nil/empty means every registered collection
}

// Result is ZonesResponse (spec §4.5 step 6), pre-encoding: zone ids
// in the request's DGGRS plus the summed nominal area of the returned
// set.
type Result struct {
	Zones                 []string
	ReturnedAreaMetersSquare float64
}

// Plan implements spec §4.5. The bool result is false when the union
// of surviving zones is empty (HTTP 204, not an error); a non-nil
// *ErrCQLAttributesUnsatisfied indicates every in-scope collection had
// to be skipped (HTTP 400).
func Plan(req Request, reg *registry.Registry) (*Result, bool, error) {
	provider, ok := reg.DGGRS.Get(req.DGGRSID)
	if !ok {
		return nil, false, fmt.Errorf("planner: unknown dggrs %q", req.DGGRSID)
	}

	zones, err := provider.ZonesList(req.BBox, req.ZoneLevel, req.ParentZone, req.Compact)
	if err != nil {
		return nil, false, fmt.Errorf("planner: %w", err)
	}

	cqlAttrs := cql2.Attributes(req.Filter)

	collectionIDs := req.CollectionIDs
	if len(collectionIDs) == 0 {
		for id := range reg.Document.Collections {
			collectionIDs = append(collectionIDs, id)
		}
	}

	survivorsOrder := []string{}
	survivorsSeen := map[string]bool{}
	anyCollectionRan := false

	for _, collID := range collectionIDs {
		entry, cp, ok := reg.Collection(collID)
		if !ok {
			continue
		}
		if len(cqlAttrs) > 0 {
			dict, err := cp.GetDataDictionary(entry.Provider.DatasourceID)
			if err != nil {
				continue
			}
			if !satisfiesAllAttributes(cqlAttrs, dict) {
				continue
			}
		}

		targetZoneIDs := zones
		targetLevel := req.ZoneLevel
		sourceOfTarget := identityMap(zones)

		if entry.Provider.DGGRSID != req.DGGRSID {
			zoneLevelOffset := 0
			if dggrsEntry, ok := reg.Document.DGGRS[req.DGGRSID]; ok {
				if conv, ok := dggrsEntry.DGGRSConversion[entry.Provider.DGGRSID]; ok {
					zoneLevelOffset = conv.ZoneLevelOffset
				}
			}
			converted, err := provider.Convert(zones, entry.Provider.DGGRSID, zoneLevelOffset, dggrs.ReprTextual)
			if err != nil {
				log.Warnf("planner: collection %q skipped: %v", collID, err)
				continue // ConversionUnsupported: collection skipped (spec §7)
			}
			targetZoneIDs = toStrings(converted)
			sourceOfTarget = map[string]string{}
			for i, t := range targetZoneIDs {
				sourceOfTarget[t] = zones[i]
			}
			if target, ok := reg.DGGRS.Get(entry.Provider.DGGRSID); ok {
				targetLevel, _ = target.GetCellsZoneLevel(targetZoneIDs)
			}
		}

		queryZoneIDs := targetZoneIDs
		if entry.Provider.DGGRSZoneIDRepr != "" && entry.Provider.DGGRSZoneIDRepr != string(dggrs.ReprTextual) {
			targetProvider := provider
			if entry.Provider.DGGRSID != req.DGGRSID {
				targetProvider, _ = reg.DGGRS.Get(entry.Provider.DGGRSID)
			}
			repr, err := targetProvider.ZoneIDFromTextual(targetZoneIDs, dggrs.ZoneIDRepr(entry.Provider.DGGRSZoneIDRepr))
			if err != nil {
				continue
			}
			queryZoneIDs = toStrings(repr)
		}

		anyCollectionRan = true
		contribution, err := cp.GetData(collection.GetDataRequest{
			ZoneIDs:         queryZoneIDs,
			ZoneLevel:       targetLevel,
			DatasourceID:    entry.Provider.DatasourceID,
			Filter:          req.Filter,
			IncludeDatetime: req.IncludeDatetime,
		})
		if err != nil || contribution.Outcome != collection.OutcomeOK || contribution.Table == nil {
			continue
		}

		for _, z := range contribution.Table.Zones {
			source, ok := sourceOfTarget[z]
			if !ok {
				source = z
			}
			if !survivorsSeen[source] {
				survivorsSeen[source] = true
				survivorsOrder = append(survivorsOrder, source)
			}
		}
	}

	if !anyCollectionRan {
		attrs := make([]string, 0, len(cqlAttrs))
		for a := range cqlAttrs {
			attrs = append(attrs, a)
		}
		return nil, false, &ErrCQLAttributesUnsatisfied{Attributes: attrs}
	}
	if len(survivorsOrder) == 0 {
		return nil, false, nil
	}

	// preserve the original zoneslist order rather than per-collection
	// arrival order, per spec §5 "must not reorder zones produced by
	// the DGGRS provider".
	ordered := orderByOriginal(zones, survivorsOrder)
	if req.Limit > 0 && len(ordered) > req.Limit {
		ordered = ordered[:req.Limit]
	}

	var area float64
	if len(ordered) > 0 {
		perZone, _ := provider.GetAreaMetersSquare(req.ZoneLevel)
		area = perZone * float64(len(ordered))
	}

	return &Result{Zones: ordered, ReturnedAreaMetersSquare: area}, true, nil
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

func identityMap(zones []string) map[string]string {
	m := make(map[string]string, len(zones))
	for _, z := range zones {
		m[z] = z
	}
	return m
}

func toStrings(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}

func orderByOriginal(original []string, survivors []string) []string {
	survivorSet := make(map[string]bool, len(survivors))
	for _, s := range survivors {
		survivorSet[s] = true
	}
	out := make([]string, 0, len(survivors))
	for _, z := range original {
		if survivorSet[z] {
			out = append(out, z)
		}
	}
	return out
}
