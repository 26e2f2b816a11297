package registry

import (
	"fmt"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/dggrs/igeo7"
	"github.com/crim-ca/dggs-server/internal/dggrs/vh3"
)

// dggrsConstructors is the compile-time `class_id -> constructor` map
// spec §9's redesign flag asks for, in place of pydggsapi's
// importlib-based dynamic class discovery. The configuration
// document's DGGRSEntry.Class must name one of these.
var dggrsConstructors = map[string]func() dggrs.Provider{
	"IGEO7Provider": func() dggrs.Provider { return igeo7.New() },
	"VH3Provider":   func() dggrs.Provider { return vh3.New() },
}

// RegisterDGGRSConstructor allows a deployment to extend the
// compile-time map without modifying this package (used by tests and
// by any additional DGGRS built outside this module).
func RegisterDGGRSConstructor(classID string, ctor func() dggrs.Provider) {
	dggrsConstructors[classID] = ctor
}

// CollectionProviderConstructor builds a collection.Provider from an
// entry's raw per-datasource JSON parameters. Each concrete backend
// decodes CollectionProviderEntry.Datasources itself, since the
// datasource shape differs per backend (spec §6: "Each collection-
// provider entry carries a class name and a datasources map").
type CollectionProviderConstructor func(entry CollectionProviderEntry) (collection.Provider, error)

var collectionConstructors = map[string]CollectionProviderConstructor{}

// RegisterCollectionConstructor registers a class id -> constructor
// mapping for collection providers. Concrete backends needing runtime
// resources (a DuckDB path, an HTTP client, a ZarrStore) are expected
// to be registered by the service's startup code, which closes over
// those resources; this package only holds the id -> constructor
// table and the validation/wiring logic.
func RegisterCollectionConstructor(classID string, ctor CollectionProviderConstructor) {
	collectionConstructors[classID] = ctor
}

// Registry is the fully wired, validated runtime view of a
// configuration Document: DGGRS providers, collection providers, and
// the collections that reference them (spec §4.3).
type Registry struct {
	Document           *Document
	DGGRS              *dggrs.Registry
	CollectionProviders map[string]collection.Provider
}

// Build validates doc and constructs every DGGRS and collection
// provider it references, failing startup (spec §7 ConfigInvalid)
// rather than deferring to first use.
func Build(doc *Document) (*Registry, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	dreg := dggrs.NewRegistry()
	for id, entry := range doc.DGGRS {
		ctor, ok := dggrsConstructors[entry.Class]
		if !ok {
			return nil, fmt.Errorf("registry: dggrs %q: unknown class %q", id, entry.Class)
		}
		p := ctor()
		if p.Name() != id {
			return nil, fmt.Errorf("registry: dggrs %q: class %q reports Name() %q, must match the document key", id, entry.Class, p.Name())
		}
		dreg.Register(p)
	}

	providers := map[string]collection.Provider{}
	for id, entry := range doc.CollectionProviders {
		ctor, ok := collectionConstructors[entry.Class]
		if !ok {
			return nil, fmt.Errorf("registry: collection_provider %q: unknown class %q", id, entry.Class)
		}
		p, err := ctor(entry)
		if err != nil {
			return nil, fmt.Errorf("registry: collection_provider %q: %w", id, err)
		}
		providers[id] = p
	}

	for id, c := range doc.Collections {
		if _, ok := providers[c.Provider.ProviderID]; !ok {
			return nil, fmt.Errorf("registry: collection %q: provider %q failed to construct", id, c.Provider.ProviderID)
		}
	}

	return &Registry{Document: doc, DGGRS: dreg, CollectionProviders: providers}, nil
}

// Collection looks up a collection entry and its constructed provider
// by collection id.
func (r *Registry) Collection(id string) (CollectionEntry, collection.Provider, bool) {
	c, ok := r.Document.Collections[id]
	if !ok {
		return CollectionEntry{}, nil, false
	}
	p, ok := r.CollectionProviders[c.Provider.ProviderID]
	return c, p, ok
}
