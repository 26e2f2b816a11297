package service

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crim-ca/dggs-server/internal/planner"
)

// ZonesResponse is the zone-query response body (spec §4.5 step 6).
type ZonesResponse struct {
	Zones                    []string `json:"zones"`
	ReturnedAreaMetersSquare float64  `json:"returnedAreaMetersSquare"`
}

// handleZones implements GET /dggs/{dggrsId}/zones (+ collection
// variant), spec §4.5.
func handleZones(w http.ResponseWriter, r *http.Request) *appError {
	vars := mux.Vars(r)
	q := r.URL.Query()

	bbox, err := parseBBox(q.Get("bbox"))
	if err != nil {
		return appErrorBadRequest(err, err.Error())
	}
	var parentZone *string
	if p := q.Get("parent-zone"); p != "" {
		parentZone = &p
	}
	compact, err := parseBool(q.Get("compact-zone"), false)
	if err != nil {
		return appErrorBadRequest(err, "compact-zone must be true or false")
	}
	zoneLevel, err := parseIntDefault(q.Get("zone-level"), 0)
	if err != nil {
		return appErrorBadRequest(err, "zone-level must be an integer")
	}
	if q.Get("zone-level") == "" && parentZone == nil {
		return appErrorBadRequest(nil, "zone-level or parent-zone is required")
	}
	limit, err := parseIntDefault(q.Get("limit"), 0)
	if err != nil {
		return appErrorBadRequest(err, "limit must be an integer")
	}
	filter, err := parseFilter(q.Get("filter"))
	if err != nil {
		return appErrorBadRequest(err, "unparseable filter: "+err.Error())
	}

	var collectionIDs []string
	if collID, ok := vars["collectionId"]; ok {
		if _, _, ok := serviceInstance.Registry.Collection(collID); !ok {
			return appErrorUnsupportedCollection(nil, "unknown collection: "+collID)
		}
		collectionIDs = []string{collID}
	}

	req := planner.Request{
		BBox:          bbox,
		ParentZone:    parentZone,
		DGGRSID:       vars["dggrsId"],
		ZoneLevel:     zoneLevel,
		Compact:       compact,
		Limit:         limit,
		Filter:        filter,
		CollectionIDs: collectionIDs,
	}

	result, ok, err := planner.Plan(req, serviceInstance.Registry)
	if err != nil {
		if unsatisfied, match := err.(*planner.ErrCQLAttributesUnsatisfied); match {
			return appErrorCQLAttributesUnsatisfied(unsatisfied, unsatisfied.Error())
		}
		return appErrorUnsupportedDGGRS(err, err.Error())
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	return writeJSON(w, ContentTypeJSON, ZonesResponse{
		Zones:                    result.Zones,
		ReturnedAreaMetersSquare: result.ReturnedAreaMetersSquare,
	})
}
