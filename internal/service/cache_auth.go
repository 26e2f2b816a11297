package service

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/crim-ca/dggs-server/internal/conf"
)

const headerAPIKey = "X-API-Key"

// cacheAuthMiddleware validates an API key for cache management
// endpoints, mirroring the teacher's cache_auth.go: when no key is
// configured the endpoints are public.
func cacheAuthMiddleware(next appHandler) appHandler {
	return func(w http.ResponseWriter, r *http.Request) *appError {
		configuredKey := conf.Configuration.Cache.ApiKey
		if configuredKey == "" {
			return next(w, r)
		}

		providedKey := r.Header.Get(headerAPIKey)
		if providedKey == "" {
			log.Warnf("cache endpoint accessed without API key from %s", r.RemoteAddr)
			return appErrorUnauthorized(nil, "API key required; provide X-API-Key header")
		}
		if providedKey != configuredKey {
			log.Warnf("cache endpoint accessed with invalid API key from %s", r.RemoteAddr)
			return appErrorForbidden(nil, "invalid API key")
		}
		return next(w, r)
	}
}
