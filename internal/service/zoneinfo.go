package service

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crim-ca/dggs-server/internal/geom"
	"github.com/crim-ca/dggs-server/internal/zoneinfo"
)

// ZoneInfoResponse is the zone-info response body (spec §4.4 step 3).
type ZoneInfoResponse struct {
	ID               string         `json:"id"`
	Level            int            `json:"level"`
	ShapeType        string         `json:"shapeType"`
	CRS              string         `json:"crs"`
	Centroid         [2]float64     `json:"centroid"`
	BBox             [4]float64     `json:"bbox"`
	Geometry         any            `json:"geometry"`
	AreaMetersSquare float64        `json:"areaMetersSquare"`
}

// handleZoneInfo implements GET /dggs/{dggrsId}/zones/{zoneId}
// (+ collection variant), spec §4.4.
func handleZoneInfo(w http.ResponseWriter, r *http.Request) *appError {
	vars := mux.Vars(r)

	var collectionID *string
	if id, ok := vars["collectionId"]; ok {
		if _, _, ok := serviceInstance.Registry.Collection(id); !ok {
			return appErrorUnsupportedCollection(nil, "unknown collection: "+id)
		}
		collectionID = &id
	}

	resp, ok, err := zoneinfo.Resolve(zoneinfo.Request{
		ZoneID:       vars["zoneId"],
		DGGRSID:      vars["dggrsId"],
		CollectionID: collectionID,
	}, serviceInstance.Registry)
	if err != nil {
		return appErrorUnsupportedDGGRS(err, err.Error())
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	return writeJSON(w, ContentTypeJSON, ZoneInfoResponse{
		ID:               resp.ID,
		Level:            resp.Level,
		ShapeType:        resp.ShapeType,
		CRS:              resp.CRS,
		Centroid:         [2]float64{resp.Centroid.Lon, resp.Centroid.Lat},
		BBox:             [4]float64{resp.BBox.Minx, resp.BBox.Miny, resp.BBox.Maxx, resp.BBox.Maxy},
		Geometry:         geom.PolygonToGeoJSON(resp.Geometry),
		AreaMetersSquare: resp.AreaMetersSquare,
	})
}
