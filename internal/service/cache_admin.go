package service

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// handleCacheStats returns cache statistics as JSON.
func (s *Service) handleCacheStats(w http.ResponseWriter, r *http.Request) *appError {
	if !s.cache.Enabled() {
		return writeJSON(w, ContentTypeJSON, map[string]string{"status": "disabled"})
	}
	return writeJSON(w, ContentTypeJSON, s.cache.Stats())
}

// handleCacheClear clears the entire tile cache.
func (s *Service) handleCacheClear(w http.ResponseWriter, r *http.Request) *appError {
	if !s.cache.Enabled() {
		return appErrorBadRequest(nil, "cache is disabled")
	}
	s.cache.Clear()
	return writeJSON(w, ContentTypeJSON, map[string]string{"status": "ok", "message": "cache cleared"})
}

// handleCacheClearCollection clears all cached tiles for one
// collection, generalizing the teacher's handleCacheClearLayer.
func (s *Service) handleCacheClearCollection(w http.ResponseWriter, r *http.Request) *appError {
	if !s.cache.Enabled() {
		return appErrorBadRequest(nil, "cache is disabled")
	}
	collectionID := mux.Vars(r)["collectionId"]
	removed := s.cache.ClearCollection(collectionID)
	return writeJSON(w, ContentTypeJSON, map[string]any{
		"status":     "ok",
		"message":    fmt.Sprintf("cleared %d tiles for collection %s", removed, collectionID),
		"removed":    removed,
		"collection": collectionID,
	})
}
