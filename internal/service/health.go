package service

import (
	"encoding/json"
	"net/http"

	"github.com/crim-ca/dggs-server/internal/cache"
)

// HealthResponse mirrors the teacher's HealthResponse, substituting a
// registry readiness check for the teacher's database ping (this
// server has no single DB connection to probe — its backends are
// per-collection).
type HealthResponse struct {
	Status      string      `json:"status"`
	DGGRSCount  int         `json:"dggrsCount"`
	Collections int         `json:"collections"`
	Cache       CacheStatus `json:"cache"`
}

type CacheStatus struct {
	Enabled bool         `json:"enabled"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) *appError {
	health := HealthResponse{Status: "ok"}

	if serviceInstance != nil && serviceInstance.Registry != nil {
		health.DGGRSCount = len(serviceInstance.Registry.DGGRS.Names())
		health.Collections = len(serviceInstance.Registry.Document.Collections)
		if health.DGGRSCount == 0 || health.Collections == 0 {
			health.Status = "degraded"
		}

		cacheStatus := CacheStatus{Enabled: serviceInstance.cache != nil && serviceInstance.cache.Enabled()}
		if cacheStatus.Enabled {
			stats := serviceInstance.cache.Stats()
			cacheStatus.Stats = &stats
		}
		health.Cache = cacheStatus
	} else {
		health.Status = "error"
	}

	data, err := json.Marshal(health)
	if err != nil {
		return appErrorInternal(err, "error encoding response")
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	if health.Status == "error" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if _, err := w.Write(data); err != nil {
		return appErrorInternal(err, "error writing response")
	}
	return nil
}
