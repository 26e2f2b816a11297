// Package dggrs defines the DGGRS provider contract (spec §4.1) and a
// registry of named providers (spec §4.3), generalizing
// igeo7_dggrs_provider.py's AbstractDGGRSProvider to a Go interface
// with two concrete implementations (igeo7, vh3) so cross-DGGRS
// conversion has somewhere real to go.
package dggrs

import (
	"fmt"
	"sync"

	"github.com/crim-ca/dggs-server/internal/geom"
)

// ZoneIDRepr is one of the three zone-id representations spec §2 row 3
// names.
type ZoneIDRepr string

const (
	ReprTextual   ZoneIDRepr = "textual"
	ReprInt       ZoneIDRepr = "int"
	ReprHexString ZoneIDRepr = "hexstring"
)

// ZoneInfo is the per-zone geometry/metadata bundle returned by
// zonesinfo (spec §4.1).
type ZoneInfo struct {
	ZoneLevel        int
	ShapeType        string
	Points           []PointXY // per-zone centroid
	Geometry         []geom.Polygon
	BBox             []geom.Extent
	AreaMetersSquare float64
}

type PointXY struct {
	Lon, Lat float64
}

// ZonesElement is one refinement-level's worth of related zones (used
// by get_relative_zonelevels), mirroring DGGRSProviderZonesElement.
type ZonesElement struct {
	ZoneIDs  []string
	Geometry []geom.Polygon
}

// Provider is the contract every DGGRS backend (igeo7, vh3, ...) must
// satisfy (spec §4.1): zone-id codec, resolution<->CLS lookups, zone
// geometry, zone listing with optional compaction, and cross-DGGRS
// conversion.
type Provider interface {
	// Name is the DGGRS identifier used in configuration documents and
	// the "dggrs" path parameter (e.g. "IGEO7", "VH3").
	Name() string

	// ZoneIDFromTextual converts textual zone ids to repr.
	ZoneIDFromTextual(zoneIDs []string, repr ZoneIDRepr) ([]any, error)
	// ZoneIDToTextual converts repr-typed zone ids back to textual at
	// refinementLevel (needed to reconstruct the digit-string length
	// when repr is "int" or "hexstring").
	ZoneIDToTextual(zoneIDs []any, repr ZoneIDRepr, refinementLevel int) ([]string, error)

	// GetCLSByZoneLevel returns the characteristic length scale, in
	// kilometers, of zoneLevel.
	GetCLSByZoneLevel(zoneLevel int) (float64, error)
	// GetZoneLevelByCLS returns the first zone level whose CLS is
	// strictly less than clsKM (spec §9 Open Question #2 — preserved
	// off-by-one, not "closest level").
	GetZoneLevelByCLS(clsKM float64) (int, error)
	// GetAreaMetersSquare returns the nominal cell area at zoneLevel.
	GetAreaMetersSquare(zoneLevel int) (float64, error)

	// MaxRefinementLevel returns the finest refinement level this
	// DGGRS's level table defines (spec §3 DGGRS descriptor's
	// `maxRefinementLevel`).
	MaxRefinementLevel() int

	// GetCellsZoneLevel returns the refinement level encoded in a
	// (homogeneous) batch of zone ids.
	GetCellsZoneLevel(zoneIDs []string) (int, error)

	// ZonesInfo returns geometry/metadata for each zone id.
	ZonesInfo(zoneIDs []string) (*ZoneInfo, error)

	// ZonesList enumerates zones at zoneLevel, constrained by an
	// optional bbox and/or an optional parent zone, with optional
	// compaction of full sibling groups into their parent.
	ZonesList(bbox *geom.Extent, zoneLevel int, parentZone *string, compact bool) ([]string, error)

	// GetRelativeZoneLevels returns, for each requested zone level, the
	// descendants/ancestors of cellID relative to baseLevel.
	GetRelativeZoneLevels(cellID string, baseLevel int, zoneLevels []int) (map[int]ZonesElement, error)

	// Convert maps zoneIDs into another DGGRS's zone-id space, at
	// refinement level `sourceLevel + zoneLevelOffset` in the target
	// grid (spec §3's `dggrs_conversion[target].zonelevel_offset`,
	// spec §4.1). Returns ErrConversionUnsupported when the target grid
	// has no defined mapping from this one (spec §7 — never surfaces to
	// HTTP, logged and swallowed by the planner).
	Convert(zoneIDs []string, targetDGGRS string, zoneLevelOffset int, repr ZoneIDRepr) ([]any, error)
}

// ErrConversionUnsupported is returned by Convert when targetDGGRS has
// no defined mapping from the source grid.
type ErrConversionUnsupported struct {
	From, To string
}

func (e *ErrConversionUnsupported) Error() string {
	return fmt.Sprintf("dggrs: conversion from %s to %s is not supported", e.From, e.To)
}

// Registry holds the configured DGGRS providers (spec §4.3), keyed by
// provider Name().
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	return names
}
