// Package ui builds the landing page and conformance declaration (spec
// §6 "Landing page", "Conformance declaration"). The teacher's ui
// package renders an HTML map viewer via Go templates
// (ui.LoadTemplate, ui.HTMLDynamicLoad); this API is JSON-first, so the
// template loader is replaced by plain document builders. OpenAPI
// generation itself stays out of scope (spec §1 Non-goals), so the
// landing page only links to the other documents it already serves.
package ui

// Link is an OGC API "link object": {href, rel, type, title}.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// LandingPage is the root ("/") document.
type LandingPage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       []Link `json:"links"`
}

// ConformanceClasses are the OGC conformance-class URIs this server
// implements (spec §6 "/conformance").
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/ogcapi-common-1/1.0/conf/core",
	"http://www.opengis.net/spec/ogcapi-common-2/1.0/conf/json",
	"http://www.opengis.net/spec/ogcapi-dggs-1/1.0/conf/core",
	"http://www.opengis.net/spec/ogcapi-dggs-1/1.0/conf/dggs-json",
	"http://www.opengis.net/spec/ogcapi-dggs-1/1.0/conf/geojson",
}

// BuildLandingPage assembles the landing document, linking to the
// documents this server actually serves from baseURL.
func BuildLandingPage(baseURL string) LandingPage {
	return LandingPage{
		Title:       "DGGS API",
		Description: "OGC API - Discrete Global Grid Systems",
		Links: []Link{
			{Href: baseURL + "/", Rel: "self", Type: "application/json", Title: "this document"},
			{Href: baseURL + "/conformance", Rel: "conformance", Type: "application/json", Title: "conformance declaration"},
			{Href: baseURL + "/collections", Rel: "data", Type: "application/json", Title: "collections"},
			{Href: baseURL + "/dggs", Rel: "dggs", Type: "application/json", Title: "registered DGGRSs"},
		},
	}
}

// ConformanceDocument is the "/conformance" response body.
type ConformanceDocument struct {
	ConformsTo []string `json:"conformsTo"`
}

func BuildConformanceDocument() ConformanceDocument {
	return ConformanceDocument{ConformsTo: ConformanceClasses}
}
