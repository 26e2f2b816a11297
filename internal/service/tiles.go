package service

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/crim-ca/dggs-server/internal/conf"
	"github.com/crim-ca/dggs-server/internal/tiles"
)

// handleTile implements GET /tiles-api/{collectionId}/{z}/{x}/{y}
// (spec §4.7), wrapped in tileCacheMiddleware for caching.
func handleTile(w http.ResponseWriter, r *http.Request) *appError {
	vars := mux.Vars(r)
	collectionID := vars["collectionId"]

	z, err := strconv.Atoi(vars["z"])
	if err != nil || z < 0 || z > 30 {
		return appErrorBadRequest(err, fmt.Sprintf("invalid zoom level: %s", vars["z"]))
	}
	maxCoord := uint32(1) << uint(z)
	x64, err := strconv.ParseUint(vars["x"], 10, 32)
	if err != nil || uint32(x64) >= maxCoord {
		return appErrorBadRequest(err, fmt.Sprintf("x coordinate out of range: %s", vars["x"]))
	}
	y64, err := strconv.ParseUint(vars["y"], 10, 32)
	if err != nil || uint32(y64) >= maxCoord {
		return appErrorBadRequest(err, fmt.Sprintf("y coordinate out of range: %s", vars["y"]))
	}

	relativeDepth, err := parseIntDefault(r.URL.Query().Get("relative-depth"), 0)
	if err != nil {
		return appErrorBadRequest(err, "relative-depth must be an integer")
	}

	if _, _, ok := serviceInstance.Registry.Collection(collectionID); !ok {
		return appErrorUnsupportedCollection(nil, "unknown collection: "+collectionID)
	}

	data, err := tiles.Render(tiles.Request{
		CollectionID:  collectionID,
		DGGRSID:       r.URL.Query().Get("dggrs"),
		Z:             uint32(z),
		X:             uint32(x64),
		Y:             uint32(y64),
		RelativeDepth: relativeDepth,
	}, serviceInstance.Registry)
	if err != nil {
		return appErrorInternal(err, fmt.Sprintf("error generating tile: %v", err))
	}
	if len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	return writeBytes(w, ContentTypeMVT, http.StatusOK, data)
}

// handleTileJSON implements GET /tiles-api/{collectionId}.json.
func handleTileJSON(w http.ResponseWriter, r *http.Request) *appError {
	vars := mux.Vars(r)
	collectionID := vars["collectionId"]

	tj, err := tiles.GetTileJSON(collectionID, getBaseURL(r), serviceInstance.Registry)
	if err != nil {
		return appErrorUnsupportedCollection(err, err.Error())
	}
	return writeJSON(w, ContentTypeJSON, tj)
}

// tileCacheMiddleware wraps a tile handler with the LRU cache, keyed
// on collection+dggrs+z/x/y+depth (spec §4.7), generalizing the
// teacher's tileCacheMiddleware (cache_middleware.go) from a
// layer-only key to this server's multi-dimensional one.
func (s *Service) tileCacheMiddleware(next appHandler) appHandler {
	return func(w http.ResponseWriter, r *http.Request) *appError {
		if s == nil || s.cache == nil || !s.cache.Enabled() {
			return next(w, r)
		}

		vars := mux.Vars(r)
		q := r.URL.Query()
		cacheKey := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
			vars["collectionId"], q.Get("dggrs"), vars["z"], vars["x"], vars["y"], q.Get("relative-depth"))

		if cached, found := s.cache.Get(r.Context(), cacheKey); found {
			w.Header().Set("Content-Type", ContentTypeMVT)
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", conf.Configuration.Cache.BrowserCacheMaxAge))
			if len(cached) == 0 {
				w.WriteHeader(http.StatusNoContent)
			} else {
				w.WriteHeader(http.StatusOK)
				w.Write(cached)
			}
			return nil
		}

		w.Header().Set("X-Cache", "MISS")
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", conf.Configuration.Cache.BrowserCacheMaxAge))

		recorder := &responseCapturer{ResponseWriter: w, body: &bytes.Buffer{}}
		appErr := next(recorder, r)

		if appErr == nil && recorder.statusCode == http.StatusOK {
			go s.cache.Set(r.Context(), cacheKey, recorder.body.Bytes())
		}
		if appErr == nil && recorder.statusCode == http.StatusNoContent {
			go s.cache.Set(r.Context(), cacheKey, []byte{})
		}
		return appErr
	}
}
