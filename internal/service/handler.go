package service

import (
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/crim-ca/dggs-server/internal/conf"
)

// initRouter sets up the HTTP routes (spec §6 endpoint table),
// generalizing the teacher's initRouter from a single tiles/layers
// surface to the full DGGS route set.
func initRouter(basePath string) *mux.Router {
	router := mux.NewRouter()

	var r *mux.Router
	if basePath != "" {
		log.Infof("Using base path: %s", basePath)
		r = router.PathPrefix(basePath).Subrouter()
	} else {
		r = router
	}

	r.Handle("/", appHandler(handleRoot)).Methods("GET")
	r.Handle("/conformance", appHandler(handleConformance)).Methods("GET")
	r.Handle("/health", appHandler(handleHealth)).Methods("GET")

	r.Handle("/collections", appHandler(handleCollections)).Methods("GET")
	r.Handle("/collections/{collectionId}", appHandler(handleCollection)).Methods("GET")
	r.Handle("/collections/{collectionId}/queryables", appHandler(handleQueryables)).Methods("GET")
	r.Handle("/collections/{collectionId}/schema", appHandler(handleQueryables)).Methods("GET")

	r.Handle("/dggs", appHandler(handleDGGRSList)).Methods("GET")
	r.Handle("/dggs/{dggrsId}", appHandler(handleDGGRSDescription)).Methods("GET")
	r.Handle("/collections/{collectionId}/dggs", appHandler(handleDGGRSList)).Methods("GET")
	r.Handle("/collections/{collectionId}/dggs/{dggrsId}", appHandler(handleDGGRSDescription)).Methods("GET")

	r.Handle("/dggs/{dggrsId}/zones", appHandler(handleZones)).Methods("GET")
	r.Handle("/collections/{collectionId}/dggs/{dggrsId}/zones", appHandler(handleZones)).Methods("GET")
	r.Handle("/dggs/{dggrsId}/zones/{zoneId}", appHandler(handleZoneInfo)).Methods("GET")
	r.Handle("/collections/{collectionId}/dggs/{dggrsId}/zones/{zoneId}", appHandler(handleZoneInfo)).Methods("GET")
	r.Handle("/dggs/{dggrsId}/zones/{zoneId}/data", appHandler(handleData)).Methods("GET")
	r.Handle("/collections/{collectionId}/dggs/{dggrsId}/zones/{zoneId}/data", appHandler(handleData)).Methods("GET")

	r.Handle("/tiles-api/{collectionId}.json", appHandler(handleTileJSON)).Methods("GET")
	r.Handle("/tiles-api/{collectionId}/{z:[0-9]+}/{x:[0-9]+}/{y:[0-9]+}",
		serviceInstance.tileCacheMiddleware(appHandler(handleTile))).Methods("GET")

	if !conf.Configuration.Cache.DisableApi {
		log.Info("Cache management endpoints enabled")
		r.Handle("/cache/stats", appHandler(cacheAuthMiddleware(serviceInstance.handleCacheStats))).Methods("GET")
		r.Handle("/cache/clear", appHandler(cacheAuthMiddleware(serviceInstance.handleCacheClear))).Methods("DELETE")
		r.Handle("/cache/collection/{collectionId}", appHandler(cacheAuthMiddleware(serviceInstance.handleCacheClearCollection))).Methods("DELETE")
	} else {
		log.Info("Cache management endpoints disabled")
	}

	router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err == nil {
			log.Debugf("Registered route: %s", pathTemplate)
		}
		return nil
	})

	return router
}
