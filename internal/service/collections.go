package service

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crim-ca/dggs-server/internal/registry"
)

// CollectionSummary is one entry of the /collections list response.
type CollectionSummary struct {
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	DGGRSID     string       `json:"dggrsId"`
	Extent      *extentJSON  `json:"extent,omitempty"`
}

type extentJSON struct {
	Bbox [][4]float64 `json:"bbox"`
	CRS  string       `json:"crs"`
}

func collectionSummary(c registry.CollectionEntry) CollectionSummary {
	s := CollectionSummary{ID: c.ID, Title: c.Title, Description: c.Description, DGGRSID: c.Provider.DGGRSID}
	if c.Extent != nil {
		s.Extent = &extentJSON{
			Bbox: [][4]float64{{c.Extent.Minx, c.Extent.Miny, c.Extent.Maxx, c.Extent.Maxy}},
			CRS:  "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
		}
	}
	return s
}

// handleCollections implements GET /collections.
func handleCollections(w http.ResponseWriter, r *http.Request) *appError {
	ids := make([]string, 0, len(serviceInstance.Registry.Document.Collections))
	for id := range serviceInstance.Registry.Document.Collections {
		ids = append(ids, id)
	}
	summaries := make([]CollectionSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, collectionSummary(serviceInstance.Registry.Document.Collections[id]))
	}
	return writeJSON(w, ContentTypeJSON, map[string]any{"collections": summaries})
}

// handleCollection implements GET /collections/{collectionId}.
func handleCollection(w http.ResponseWriter, r *http.Request) *appError {
	collID := mux.Vars(r)["collectionId"]
	entry, _, ok := serviceInstance.Registry.Collection(collID)
	if !ok {
		return appErrorNotFound(nil, "unknown collection: "+collID)
	}
	return writeJSON(w, ContentTypeJSON, collectionSummary(entry))
}

// handleQueryables implements GET /collections/{collectionId}/queryables
// and /collections/{collectionId}/schema: the JSON-Schema of queryable
// properties, derived from the collection provider's data dictionary.
func handleQueryables(w http.ResponseWriter, r *http.Request) *appError {
	collID := mux.Vars(r)["collectionId"]
	entry, cp, ok := serviceInstance.Registry.Collection(collID)
	if !ok {
		return appErrorNotFound(nil, "unknown collection: "+collID)
	}
	dict, err := cp.GetDataDictionary(entry.Provider.DatasourceID)
	if err != nil {
		return appErrorInternal(err, "error retrieving data dictionary")
	}

	properties := map[string]any{}
	for name, dtype := range dict.Properties {
		properties[name] = map[string]string{"type": jsonSchemaType(dtype)}
	}

	return writeJSON(w, ContentTypeJSON, map[string]any{
		"$schema":    "https://json-schema.org/draft/2019-09/schema",
		"type":       "object",
		"title":      collID + " queryables",
		"properties": properties,
	})
}

func jsonSchemaType(dtype string) string {
	switch dtype {
	case "float64", "int64":
		return "number"
	case "bool":
		return "boolean"
	default:
		return "string"
	}
}
