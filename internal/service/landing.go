package service

import (
	"net/http"

	"github.com/crim-ca/dggs-server/internal/ui"
)

// handleRoot implements GET / (spec §6 "Landing page").
func handleRoot(w http.ResponseWriter, r *http.Request) *appError {
	return writeJSON(w, ContentTypeJSON, ui.BuildLandingPage(getBaseURL(r)))
}

// handleConformance implements GET /conformance.
func handleConformance(w http.ResponseWriter, r *http.Request) *appError {
	return writeJSON(w, ContentTypeJSON, ui.BuildConformanceDocument())
}
