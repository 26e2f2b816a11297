package service

import (
	"net/http"
	"strings"
)

// negotiate picks a response format from the Accept header, falling
// back to the `f` query parameter when the user agent sends a browser
// HTML accept type (spec §6 "Content negotiation"). Returns "" when
// neither side names a format this server supports (caller maps that
// to HTTP 406).
func negotiate(r *http.Request, supported ...string) string {
	accept := r.Header.Get("Accept")
	// Browser HTML accept types ("text/html", "application/xhtml+xml")
	// defer to `f`, or to the first supported format when `f` is absent,
	// rather than 406, matching a browser simply navigating to the URL.
	if strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml") {
		if f := r.URL.Query().Get("f"); f != "" {
			for _, s := range supported {
				if matchesFormatAlias(f, s) {
					return s
				}
			}
			return ""
		}
		return supported[0]
	}

	if accept == "" || accept == "*/*" {
		return supported[0]
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mediaType == "*/*" {
			return supported[0]
		}
		for _, s := range supported {
			if mediaType == s {
				return s
			}
		}
	}
	return ""
}

func matchesFormatAlias(f, contentType string) bool {
	switch f {
	case "json":
		return contentType == ContentTypeJSON
	case "geojson", "geo+json":
		return contentType == ContentTypeGeoJSON
	case "ubjson":
		return contentType == ContentTypeUBJSON
	case "zarr", "zarr+zip":
		return contentType == ContentTypeZarrZip
	case "mvt", "pbf":
		return contentType == ContentTypeMVT
	}
	return false
}
