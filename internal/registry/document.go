// Package registry loads the DGGS configuration document (spec §6
// "Configuration document") and builds the compile-time
// `class_id -> constructor` map spec §9's redesign flag calls for,
// replacing pydggsapi's dynamic string-based class discovery
// (importlib) with explicit Go constructors the config document
// references by id.
package registry

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/crim-ca/dggs-server/internal/geom"
)

// Document is the top-level configuration document (spec §6): three
// tables, dggrs / collection_providers / collections.
type Document struct {
	DGGRS              map[string]DGGRSEntry             `json:"dggrs"`
	CollectionProviders map[string]CollectionProviderEntry `json:"collection_providers"`
	Collections        map[string]CollectionEntry        `json:"collections"`
}

// DGGRSEntry describes one registered DGGRS (spec §6): the Go
// constructor it resolves to (class) plus its descriptive metadata.
type DGGRSEntry struct {
	Class           string                     `json:"class"`
	Title           string                     `json:"title"`
	Description     string                     `json:"description"`
	CRS             string                     `json:"crs"`
	DefaultDepth    int                        `json:"defaultDepth"`
	DGGRSConversion map[string]ConversionEntry `json:"dggrs_conversion"` // target dggrs id -> {zonelevel_offset}
	DefinitionLink  string                     `json:"definition_link"`
}

// ConversionEntry is one entry of a DGGRS's dggrs_conversion table
// (spec §3): the refinement-level offset to add to a source zone's
// level when converting it into the target DGGRS (spec §4.1's
// `target_res = base_level + zonelevel_offset`).
type ConversionEntry struct {
	ZoneLevelOffset int `json:"zonelevel_offset"`
}

// CollectionProviderEntry describes one collection-provider backend
// instance (spec §6): its Go constructor (class) and a map of
// datasource id -> backend-specific parameters (kept as raw JSON,
// decoded by the matching constructor since each backend's datasource
// shape differs: SQL table name vs. Zarr group map vs. STAC params).
type CollectionProviderEntry struct {
	Class       string                     `json:"class"`
	Datasources map[string]json.RawMessage `json:"datasources"`
}

// CollectionEntry is one collection (spec §3 "Collection"):
// {id, title, description, extent, collection_provider}.
type CollectionEntry struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Extent      *geom.Extent            `json:"extent,omitempty"`
	Provider    CollectionProviderRef   `json:"collection_provider"`
}

// CollectionProviderRef is collection_provider's inline shape (spec
// §3): {providerId, dggrsId, dggrs_zoneid_repr, min_refinement_level,
// max_refinement_level, datasource_id}.
type CollectionProviderRef struct {
	ProviderID          string `json:"providerId"`
	DGGRSID             string `json:"dggrsId"`
	DGGRSZoneIDRepr     string `json:"dggrs_zoneid_repr"`
	MinRefinementLevel  int    `json:"min_refinement_level"`
	MaxRefinementLevel  int    `json:"max_refinement_level"`
	DatasourceID        string `json:"datasource_id"`
}

// LoadDocument parses the configuration document from r.
func LoadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("registry: decode configuration document: %w", err)
	}
	return &doc, nil
}

// Validate checks the cross-reference invariants spec §3 states for
// Collection: min <= max, dggrsId/providerId registered, and the
// referenced datasource exists inside that provider.
func (d *Document) Validate() error {
	for id, c := range d.Collections {
		ref := c.Provider
		if ref.MinRefinementLevel > ref.MaxRefinementLevel {
			return fmt.Errorf("registry: collection %q: min_refinement_level %d > max_refinement_level %d",
				id, ref.MinRefinementLevel, ref.MaxRefinementLevel)
		}
		if _, ok := d.DGGRS[ref.DGGRSID]; !ok {
			return fmt.Errorf("registry: collection %q: dggrsId %q is not registered", id, ref.DGGRSID)
		}
		provider, ok := d.CollectionProviders[ref.ProviderID]
		if !ok {
			return fmt.Errorf("registry: collection %q: providerId %q is not registered", id, ref.ProviderID)
		}
		if _, ok := provider.Datasources[ref.DatasourceID]; !ok {
			return fmt.Errorf("registry: collection %q: datasource_id %q not found in provider %q",
				id, ref.DatasourceID, ref.ProviderID)
		}
	}
	return nil
}
