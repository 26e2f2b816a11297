// Package geom holds the geometry and GeoJSON primitives shared by the
// DGGRS providers, the zone-query planner and the MVT tile renderer.
//
// The teacher (tobilg/duckdb-tileserver) gets geometry out of DuckDB's
// spatial extension as GeoJSON strings; this server computes zone
// geometry itself, so the primitives live in Go, backed by
// github.com/paulmach/orb (the closest real ecosystem analogue to the
// DuckDB-spatial functions the teacher leans on: bbox, envelope,
// intersects, centroid).
package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CRS_WGS84 is the only coordinate reference system zone geometry is
// produced in; conversion to other CRSes is a pass-through placeholder
// the same way DGGRS conversion between reference systems is handled by
// the external DGGRS libraries in the teacher's domain (spec §1).
const CRS_WGS84 = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"

// Extent is an axis-aligned bounding box in WGS84 lon/lat order.
type Extent struct {
	Minx, Miny, Maxx, Maxy float64
}

// Bound converts the extent to an orb.Bound for geometry ops.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{e.Minx, e.Miny}, Max: orb.Point{e.Maxx, e.Maxy}}
}

// ParseBBox parses the "minx,miny,maxx,maxy" query parameter form used
// throughout the OGC API family.
func ParseBBox(vals []float64) (Extent, error) {
	if len(vals) != 4 {
		return Extent{}, fmt.Errorf("bbox must have exactly 4 values, got %d", len(vals))
	}
	return Extent{Minx: vals[0], Miny: vals[1], Maxx: vals[2], Maxy: vals[3]}, nil
}

// Intersects reports whether two extents overlap (inclusive).
func (e Extent) Intersects(o Extent) bool {
	return e.Minx <= o.Maxx && o.Minx <= e.Maxx && e.Miny <= o.Maxy && o.Miny <= e.Maxy
}

// Contains reports whether the point (lon, lat) falls within the
// extent (inclusive).
func (e Extent) Contains(lon, lat float64) bool {
	return lon >= e.Minx && lon <= e.Maxx && lat >= e.Miny && lat <= e.Maxy
}

// Polygon is a closed ring in lon/lat order, GeoJSON Polygon semantics
// (single outer ring; DGGRS zones have no holes).
type Polygon struct {
	Rings [][]orb.Point
}

// ToOrb returns the orb.Polygon representation.
func (p Polygon) ToOrb() orb.Polygon {
	poly := make(orb.Polygon, len(p.Rings))
	for i, ring := range p.Rings {
		poly[i] = orb.Ring(ring)
	}
	return poly
}

// Bound returns the polygon's bounding box.
func (p Polygon) Bound() Extent {
	b := p.ToOrb().Bound()
	return Extent{Minx: b.Min[0], Miny: b.Min[1], Maxx: b.Max[0], Maxy: b.Max[1]}
}

// Centroid is the shape's representative point, computed the same way
// a DGGRS library would report a zone centroid.
func (p Polygon) Centroid() orb.Point {
	c, _ := centroidArea(p.ToOrb())
	return c
}

// centroidArea computes a polygon centroid and signed area using the
// shoelace formula over the outer ring; sufficient for the small,
// roughly-convex hexagon/quad zones a DGGRS produces.
func centroidArea(poly orb.Polygon) (orb.Point, float64) {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return orb.Point{}, 0
	}
	ring := poly[0]
	var cx, cy, area float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
		area += cross
		cx += (ring[i][0] + ring[j][0]) * cross
		cy += (ring[i][1] + ring[j][1]) * cross
	}
	area /= 2
	if area == 0 {
		return ring[0], 0
	}
	cx /= 6 * area
	cy /= 6 * area
	return orb.Point{cx, cy}, area
}

// PolygonToGeoJSON and PointToGeoJSON convert a zone polygon or point to a geojson.Geometry
// for API responses (GeoJSON / DGGS-JSON "geometry" column).
func PolygonToGeoJSON(p Polygon) *geojson.Geometry {
	return geojson.NewGeometry(p.ToOrb())
}

func PointToGeoJSON(pt orb.Point) *geojson.Geometry {
	return geojson.NewGeometry(pt)
}

// AreaMetersSquare approximates polygon area on the sphere using an
// equal-area cylindrical projection scaled by latitude — adequate for
// the "nominal area of a zone at that level" figure the DGGRS
// descriptor reports (spec §4.1); it is not used for anything
// tolerance-sensitive.
func AreaMetersSquare(p Polygon) float64 {
	const earthRadius = 6371008.8
	if len(p.Rings) == 0 {
		return 0
	}
	ring := p.Rings[0]
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		lon1, lat1 := deg2rad(ring[i][0]), deg2rad(ring[i][1])
		lon2, lat2 := deg2rad(ring[j][0]), deg2rad(ring[j][1])
		sum += (lon2 - lon1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	area := sum * earthRadius * earthRadius / 2
	if area < 0 {
		area = -area
	}
	return area
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
