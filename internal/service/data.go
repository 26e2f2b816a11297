package service

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crim-ca/dggs-server/internal/assembler"
	"github.com/crim-ca/dggs-server/internal/ubjson"
	"github.com/crim-ca/dggs-server/internal/zarrzip"
)

// handleData implements GET /dggs/{dggrsId}/zones/{zoneId}/data
// (+ collection variant), spec §4.6: assemble the per-depth tables,
// then encode them in whichever of the four wire formats (spec §6)
// content negotiation selects.
func handleData(w http.ResponseWriter, r *http.Request) *appError {
	vars := mux.Vars(r)
	q := r.URL.Query()

	depths, err := parseZoneDepth(q.Get("zone-depth"))
	if err != nil {
		return appErrorBadRequest(err, err.Error())
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

	result, ok, err := assembler.Assemble(assembler.Request{
		ZoneID:            vars["zoneId"],
		DGGRSID:           vars["dggrsId"],
		RelativeDepths:    depths,
		Filter:            filter,
		IncludeProperties: parseCSV(q.Get("properties")),
		ExcludeProperties: parseCSV(q.Get("exclude-properties")),
		ReturnGeometry:    q.Get("geometry") != "",
		CollectionIDs:     collectionIDs,
	}, serviceInstance.Registry)
	if err != nil {
		return appErrorUnsupportedDGGRS(err, err.Error())
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	format := negotiate(r, ContentTypeGeoJSON, ContentTypeJSON, ContentTypeUBJSON, ContentTypeZarrZip)
	switch format {
	case ContentTypeGeoJSON:
		return writeJSON(w, ContentTypeGeoJSON, result.ToGeoJSON())

	case ContentTypeUBJSON:
		doc := ubjson.BuildDGGSJSON(result)
		data, err := ubjson.Marshal(doc)
		if err != nil {
			return appErrorInternal(err, "error encoding UBJSON")
		}
		w.Header().Set("Content-Disposition", `attachment; filename="dggs-zone-data.ubjson"`)
		return writeBytes(w, ContentTypeUBJSON, http.StatusOK, data)

	case ContentTypeZarrZip:
		var buf bytes.Buffer
		if err := zarrzip.Write(&buf, result, nil, 0); err != nil {
			return appErrorInternal(err, "error encoding zarr+zip")
		}
		w.Header().Set("Content-Disposition", `attachment; filename="dggs-zone-data.zarr.zip"`)
		return writeBytes(w, ContentTypeZarrZip, http.StatusOK, buf.Bytes())

	case ContentTypeJSON:
		doc := ubjson.BuildDGGSJSON(result)
		return writeJSON(w, ContentTypeJSON, doc)

	default:
		return appErrorNotAcceptable(nil, "unsupported Accept/f for data retrieval")
	}
}
