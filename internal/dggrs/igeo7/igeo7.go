// Package igeo7 implements the IGEO7 DGGRS provider (DGGRID ISEA7H,
// aperture 7, Z7 hierarchical zone ids), grounded on
// igeo7_dggrs_provider.py. Zone-id codec and CLS/area lookups are
// ported verbatim; zone geometry is synthesized deterministically
// instead of shelling out to the DGGRID binary the Python
// implementation depends on (DGGRID has no Go binding and is not part
// of the example pack) — see DESIGN.md for the approximation.
package igeo7

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/dggrs/vh3"
	"github.com/crim-ca/dggs-server/internal/geom"
	"github.com/paulmach/orb"
)

const (
	maxDigits    = 20 // matches z7textual_to_z7int padding to 20 septenary digits
	baseBits     = 4
	digitBits    = 3
	paddingDigit = '7'
)

type levelStats struct {
	Cells   int64
	AreaKM2 float64
	CLSKM   float64
}

// levelTable is igeo7_dggrs_provider.py's self.data, levels 0-20,
// copied verbatim.
var levelTable = map[int]levelStats{
	0:  {12, 51006562.1724089, 8199.5003701},
	1:  {72, 7286651.7389156, 3053.2232428},
	2:  {492, 1040950.2484165, 1151.6430095},
	3:  {3432, 148707.1783452, 435.1531492},
	4:  {24012, 21243.8826207, 164.4655799},
	5:  {168072, 3034.8403744, 62.1617764},
	6:  {1176492, 433.5486249, 23.4949231},
	7:  {8235432, 61.9355178, 8.8802451},
	8:  {57648012, 8.8479311, 3.3564171},
	9:  {403536072, 1.2639902, 1.2686064},
	10: {2824752492, 0.18057, 0.4794882},
	11: {19773267432, 0.0257957, 0.1812295},
	12: {138412872012, 0.0036851, 0.0684983},
	13: {968890104072, 0.0005264, 0.0258899},
	14: {6782230728492, 0.0000752, 0.0097855},
	15: {47475615099432, 0.0000107, 0.0036986},
	16: {332329305696012, 0.0000015348198699, 0.0013979246590466},
	17: {2326305139872072, 0.0000002192599814, 0.0005283658570631},
	18: {16284135979104492, 0.0000000313228545, 0.0001997035227209},
	19: {113988951853731432, 0.0000000044746935, 0.0000754808367233},
	20: {797922662976120012, 0.0000000006392419, 0.0000285290746744},
}

var orderedLevels = func() []int {
	lv := make([]int, 0, len(levelTable))
	for k := range levelTable {
		lv = append(lv, k)
	}
	sort.Ints(lv)
	return lv
}()

// Provider implements dggrs.Provider for IGEO7.
type Provider struct{}

func New() *Provider { return &Provider{} }

func (Provider) Name() string { return "IGEO7" }

func (Provider) ZoneIDFromTextual(zoneIDs []string, repr dggrs.ZoneIDRepr) ([]any, error) {
	out := make([]any, len(zoneIDs))
	for i, z := range zoneIDs {
		switch repr {
		case dggrs.ReprTextual, "":
			out[i] = z
		case dggrs.ReprInt:
			v, err := textualToInt(z)
			if err != nil {
				return nil, err
			}
			out[i] = v
		case dggrs.ReprHexString:
			v, err := textualToInt(z)
			if err != nil {
				return nil, err
			}
			out[i] = fmt.Sprintf("0x%x", v)
		default:
			return nil, fmt.Errorf("igeo7: unsupported zone id representation %q", repr)
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
				return nil, fmt.Errorf("igeo7: expected string zone id, got %T", z)
			}
			out[i] = s
		case dggrs.ReprInt:
			v, err := asUint64(z)
			if err != nil {
				return nil, err
			}
			out[i] = intToTextual(v, refinementLevel)
		case dggrs.ReprHexString:
			s, ok := z.(string)
			if !ok {
				return nil, fmt.Errorf("igeo7: expected hexstring zone id, got %T", z)
			}
			v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
			if err != nil {
				return nil, fmt.Errorf("igeo7: invalid hexstring zone id %q: %w", s, err)
			}
			out[i] = intToTextual(v, refinementLevel)
		default:
			return nil, fmt.Errorf("igeo7: unsupported zone id representation %q", repr)
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
		return 0, fmt.Errorf("igeo7: expected numeric zone id, got %T", v)
	}
}

// textualToInt ports z7textual_to_z7int: base (2 chars, 4 bits) +
// up to 20 septenary digits (3 bits each, padded with '7').
func textualToInt(zoneID string) (uint64, error) {
	if len(zoneID) < 2 {
		return 0, fmt.Errorf("igeo7: zone id %q too short", zoneID)
	}
	base, err := strconv.Atoi(zoneID[:2])
	if err != nil {
		return 0, fmt.Errorf("igeo7: invalid base cell in %q: %w", zoneID, err)
	}
	digits := zoneID[2:]
	if len(digits) > maxDigits {
		return 0, fmt.Errorf("igeo7: zone id %q exceeds %d refinement digits", zoneID, maxDigits)
	}
	for len(digits) < maxDigits {
		digits += string(paddingDigit)
	}

	var bits strings.Builder
	bits.WriteString(fmt.Sprintf("%0*b", baseBits, base))
	for _, d := range digits {
		dv := int(d - '0')
		if dv < 0 || dv > 7 {
			return 0, fmt.Errorf("igeo7: invalid digit %q in zone id %q", d, zoneID)
		}
		bits.WriteString(fmt.Sprintf("%0*b", digitBits, dv))
	}
	return strconv.ParseUint(bits.String(), 2, 64)
}

// intToTextual ports z7int_to_z7textual: decode the fixed 64-bit
// layout back to base+digits, then truncate to refinementLevel+2
// characters.
func intToTextual(v uint64, refinementLevel int) string {
	totalBits := baseBits + maxDigits*digitBits
	bits := fmt.Sprintf("%0*b", totalBits, v)
	base, _ := strconv.ParseInt(bits[:baseBits], 2, 32)
	var digits strings.Builder
	for i := 0; i < maxDigits; i++ {
		start := baseBits + i*digitBits
		chunk, _ := strconv.ParseInt(bits[start:start+digitBits], 2, 32)
		digits.WriteString(strconv.Itoa(int(chunk)))
	}
	full := fmt.Sprintf("%02d%s", base, digits.String())
	n := refinementLevel + 2
	if n > len(full) {
		n = len(full)
	}
	if n < 2 {
		n = 2
	}
	return full[:n]
}

func (Provider) GetCLSByZoneLevel(zoneLevel int) (float64, error) {
	s, ok := levelTable[zoneLevel]
	if !ok {
		return 0, fmt.Errorf("igeo7: zone level %d out of range", zoneLevel)
	}
	return s.CLSKM, nil
}

// GetZoneLevelByCLS preserves the off-by-one behavior of
// igeo7_dggrs_provider.py's linear scan: first level with CLS
// strictly less than clsKM (spec §9 Open Question #2), not the
// closest level.
func (Provider) GetZoneLevelByCLS(clsKM float64) (int, error) {
	for _, lvl := range orderedLevels {
		if levelTable[lvl].CLSKM < clsKM {
			return lvl, nil
		}
	}
	return 0, fmt.Errorf("igeo7: no zone level has CLS below %g km", clsKM)
}

func (Provider) GetAreaMetersSquare(zoneLevel int) (float64, error) {
	s, ok := levelTable[zoneLevel]
	if !ok {
		return 0, fmt.Errorf("igeo7: zone level %d out of range", zoneLevel)
	}
	return s.AreaKM2 * 1_000_000, nil
}

// GetCellsZoneLevel mirrors get_z7string_resolution: the refinement
// level is the textual zone id length minus the 2-character base cell.
func (Provider) GetCellsZoneLevel(zoneIDs []string) (int, error) {
	if len(zoneIDs) == 0 {
		return 0, fmt.Errorf("igeo7: no zone ids given")
	}
	z := zoneIDs[0]
	if len(z) < 2 {
		return 0, fmt.Errorf("igeo7: invalid zone id %q", z)
	}
	return len(z) - 2, nil
}

// MaxRefinementLevel is the finest level levelTable defines.
func (Provider) MaxRefinementLevel() int {
	return orderedLevels[len(orderedLevels)-1]
}

// pseudoCentroid derives a deterministic, repeatable lon/lat for a
// zone id so downstream geometry/bbox logic has something stable to
// test against without DGGRID's real ISEA7H projection.
func pseudoCentroid(zoneID string) (lon, lat float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(zoneID))
	v := h.Sum64()
	lon = float64(v%3600000)/10000.0 - 180.0
	lat = float64((v/3600000)%1800000)/10000.0 - 90.0
	return lon, lat
}

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
		return nil, fmt.Errorf("igeo7: no zone ids given")
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

func children(zoneID string) []string {
	out := make([]string, 0, 7)
	for d := 0; d < 7; d++ {
		out = append(out, zoneID+strconv.Itoa(d))
	}
	return out
}

var rootCells = func() []string {
	roots := make([]string, 12)
	for i := range roots {
		roots[i] = fmt.Sprintf("%02d", i)
	}
	return roots
}()

// ZonesList enumerates zones at zoneLevel under parentZone (or the 12
// root cells) and/or bbox, pruning branches whose pseudo-centroid
// falls outside the bbox, then compacts full 7-way sibling groups into
// their parent — bbox-then-parent-then-compact, per the spec's
// documented resolution of the original's ordering ambiguity.
func (p Provider) ZonesList(bbox *geom.Extent, zoneLevel int, parentZone *string, compact bool) ([]string, error) {
	var starts []string
	startLevel := 0
	if parentZone != nil {
		starts = []string{*parentZone}
		lvl, err := p.GetCellsZoneLevel([]string{*parentZone})
		if err != nil {
			return nil, err
		}
		startLevel = lvl
	} else {
		starts = rootCells
		startLevel = 0
	}
	if zoneLevel < startLevel {
		return nil, fmt.Errorf("igeo7: zoneLevel %d is coarser than parent level %d", zoneLevel, startLevel)
	}

	frontier := starts
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
	if bbox != nil && parentZone == nil {
		filtered := frontier[:0]
		for _, z := range frontier {
			lon, lat := pseudoCentroid(z)
			if bbox.Contains(lon, lat) {
				filtered = append(filtered, z)
			}
		}
		frontier = filtered
	}
	if len(frontier) == 0 {
		return nil, fmt.Errorf("igeo7: no zones found at level %d within the given constraints", zoneLevel)
	}

	if !compact {
		return frontier, nil
	}
	return compactZones(frontier, zoneLevel, startLevel), nil
}

// compactZones collapses contiguous sibling groups (all 7 children of
// a shared parent present) up to their parent, repeating until no full
// group remains or the base level is reached.
func compactZones(zones []string, zoneLevel, floorLevel int) []string {
	current := append([]string(nil), zones...)
	for depth := zoneLevel; depth > floorLevel; depth-- {
		groups := map[string][]string{}
		for _, z := range current {
			if len(z) != depth+2 {
				continue
			}
			parent := z[:len(z)-1]
			groups[parent] = append(groups[parent], z)
		}
		changed := false
		var next []string
		consumed := map[string]bool{}
		fullParents := map[string]bool{}
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
			n := zl + 2
			if n > len(cellID) {
				return nil, fmt.Errorf("igeo7: cannot derive ancestor at level %d from %q", zl, cellID)
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

// Convert maps IGEO7 zones into VH3 by walking VH3's septenary
// hierarchy from its root cell, at each of the target level's digits
// picking the child whose pseudo-centroid lies nearest the source
// zone's pseudo-centroid (spec §4.1's "primary mechanism", approximated
// geometrically the same way ZonesInfo is, since neither grid has a
// real ISEA7H/H3 projection available). Converting to IGEO7 itself
// returns the ids unchanged; any other target grid is rejected with
// ErrConversionUnsupported.
func (p Provider) Convert(zoneIDs []string, targetDGGRS string, zoneLevelOffset int, repr dggrs.ZoneIDRepr) ([]any, error) {
	if targetDGGRS == "IGEO7" {
		out := make([]any, len(zoneIDs))
		for i, z := range zoneIDs {
			out[i] = z
		}
		return out, nil
	}
	if targetDGGRS == "VH3" {
		out := make([]any, len(zoneIDs))
		for i, z := range zoneIDs {
			sourceLevel, err := p.GetCellsZoneLevel([]string{z})
			if err != nil {
				return nil, err
			}
			targetLevel := sourceLevel + zoneLevelOffset
			if targetLevel < 0 {
				return nil, fmt.Errorf("igeo7: zone %q converts to a negative VH3 level (%d)", z, targetLevel)
			}
			lon, lat := pseudoCentroid(z)
			out[i] = nearestVH3Zone(lon, lat, targetLevel)
		}
		return out, nil
	}
	return nil, &dggrs.ErrConversionUnsupported{From: "IGEO7", To: targetDGGRS}
}

// nearestVH3Zone greedily descends VH3's 7-ary hierarchy from its root
// cell, choosing at each level the child whose pseudo-centroid is
// closest (plain Euclidean lon/lat distance) to (lon, lat), until a
// zone id of the requested VH3 refinement level is produced.
func nearestVH3Zone(lon, lat float64, targetLevel int) string {
	zone := vh3.RootCell
	for len(zone)-1 < targetLevel {
		best := ""
		bestDist := math.MaxFloat64
		for _, c := range vh3.Children(zone) {
			clon, clat := vh3.PseudoCentroid(c)
			dlon, dlat := clon-lon, clat-lat
			dist := dlon*dlon + dlat*dlat
			if dist < bestDist {
				bestDist = dist
				best = c
			}
		}
		zone = best
	}
	return zone
}
