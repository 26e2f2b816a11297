package service

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crim-ca/dggs-server/internal/registry"
	"github.com/crim-ca/dggs-server/internal/ui"
)

// DGGRSSummary describes one registered DGGRS (spec §3 DGGRS
// descriptor, served by spec §6 "/dggs").
type DGGRSSummary struct {
	ID                 string                                `json:"id"`
	Title              string                                `json:"title,omitempty"`
	Description        string                                `json:"description,omitempty"`
	CRS                string                                `json:"crs,omitempty"`
	DefaultDepth       int                                   `json:"defaultDepth,omitempty"`
	MaxRefinementLevel int                                   `json:"maxRefinementLevel"`
	DefinitionLink     string                                `json:"definitionLink,omitempty"`
	DGGRSConversion    map[string]registry.ConversionEntry `json:"dggrs_conversion,omitempty"`
	Links              []ui.Link                             `json:"links"`
}

func dggrsSummaries(baseURL string, ids []string) []DGGRSSummary {
	out := make([]DGGRSSummary, 0, len(ids))
	for _, id := range ids {
		entry := serviceInstance.Registry.Document.DGGRS[id]
		summary := DGGRSSummary{
			ID:              id,
			Title:           entry.Title,
			Description:     entry.Description,
			CRS:             entry.CRS,
			DefaultDepth:    entry.DefaultDepth,
			DefinitionLink:  entry.DefinitionLink,
			DGGRSConversion: entry.DGGRSConversion,
			Links: []ui.Link{
				{Href: baseURL + "/dggs/" + id, Rel: "self", Type: "application/json", Title: id + " DGGRS description"},
			},
		}
		if provider, ok := serviceInstance.Registry.DGGRS.Get(id); ok {
			summary.MaxRefinementLevel = provider.MaxRefinementLevel()
		}
		out = append(out, summary)
	}
	return out
}

// handleDGGRSList implements GET /dggs and GET
// /collections/{collectionId}/dggs. When scoped to a collection, only
// that collection's own dggrsId is listed: collections reference
// exactly one DGGRS (spec §3).
func handleDGGRSList(w http.ResponseWriter, r *http.Request) *appError {
	baseURL := getBaseURL(r)
	collID, hasColl := mux.Vars(r)["collectionId"]
	if hasColl {
		entry, _, ok := serviceInstance.Registry.Collection(collID)
		if !ok {
			return appErrorNotFound(nil, "unknown collection: "+collID)
		}
		return writeJSON(w, ContentTypeJSON, map[string]any{"dggrs": dggrsSummaries(baseURL, []string{entry.Provider.DGGRSID})})
	}
	return writeJSON(w, ContentTypeJSON, map[string]any{"dggrs": dggrsSummaries(baseURL, serviceInstance.Registry.DGGRS.Names())})
}

// handleDGGRSDescription implements GET /dggs/{dggrsId} and GET
// /collections/{collectionId}/dggs/{dggrsId}.
func handleDGGRSDescription(w http.ResponseWriter, r *http.Request) *appError {
	vars := mux.Vars(r)
	dggrsID := vars["dggrsId"]

	if collID, hasColl := vars["collectionId"]; hasColl {
		entry, _, ok := serviceInstance.Registry.Collection(collID)
		if !ok {
			return appErrorNotFound(nil, "unknown collection: "+collID)
		}
		if entry.Provider.DGGRSID != dggrsID {
			return appErrorUnsupportedDGGRS(nil, "collection "+collID+" does not use dggrs "+dggrsID)
		}
	}

	if _, ok := serviceInstance.Registry.DGGRS.Get(dggrsID); !ok {
		return appErrorUnsupportedDGGRS(nil, "unknown dggrs: "+dggrsID)
	}
	summaries := dggrsSummaries(getBaseURL(r), []string{dggrsID})
	return writeJSON(w, ContentTypeJSON, summaries[0])
}
