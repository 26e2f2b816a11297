package service

import (
	"net/http"
	"strings"

	"github.com/theckman/httpforwarded"
)

// getBaseURL reconstructs the externally-visible base URL for a
// request, used to build absolute links in the landing page,
// TileJSON, and tile URL templates. Generalizes the teacher's
// getBaseURL (evidenced by handler_test.go's TestGetBaseURL, using
// r.Host/r.TLS) to also honor a reverse proxy's RFC 7239 `Forwarded`
// header, since this server is expected to sit behind one in
// production the way the teacher's deployment notes assume.
func getBaseURL(r *http.Request) string {
	scheme, host := forwardedSchemeHost(r)
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	if host == "" {
		host = r.Host
	}
	base := scheme + "://" + host
	return strings.TrimSuffix(base, "/")
}

func forwardedSchemeHost(r *http.Request) (scheme, host string) {
	values := r.Header.Values("Forwarded")
	if len(values) == 0 {
		return "", ""
	}
	parsed := httpforwarded.Parse(values)
	if proto := parsed["proto"]; len(proto) > 0 {
		scheme = proto[0]
	}
	if h := parsed["host"]; len(h) > 0 {
		host = h[0]
	}
	return scheme, host
}
