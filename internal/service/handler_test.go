package service

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/crim-ca/dggs-server/internal/cache"
	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/coltable"
	"github.com/crim-ca/dggs-server/internal/conf"
	"github.com/crim-ca/dggs-server/internal/dggrs"
	"github.com/crim-ca/dggs-server/internal/dggrs/igeo7"
	"github.com/crim-ca/dggs-server/internal/registry"
)

func init() {
	conf.Configuration.Metadata.Title = "Test DGGS API"
	conf.Configuration.Cache.Enabled = false
}

type fakeProvider struct{}

func (fakeProvider) GetData(req collection.GetDataRequest) (collection.Contribution, error) {
	t := coltable.NewTable(req.ZoneIDs)
	vals := make([]float64, len(req.ZoneIDs))
	for i := range vals {
		vals[i] = float64(i)
	}
	t.SetColumn("value", coltable.NewFloat64Column(vals, nil))
	return collection.OK(t), nil
}

func (fakeProvider) GetDataDictionary(datasourceID string) (collection.DataDictionary, error) {
	return collection.DataDictionary{Properties: map[string]string{"value": "float64"}}, nil
}

func setupTestRegistry() *registry.Registry {
	dreg := dggrs.NewRegistry()
	dreg.Register(igeo7.New())

	doc := &registry.Document{
		DGGRS: map[string]registry.DGGRSEntry{"IGEO7": {Class: "IGEO7Provider", Title: "IGEO7"}},
		CollectionProviders: map[string]registry.CollectionProviderEntry{
			"mem": {Class: "fake"},
		},
		Collections: map[string]registry.CollectionEntry{
			"rivers": {
				ID:    "rivers",
				Title: "Rivers",
				Provider: registry.CollectionProviderRef{
					ProviderID:         "mem",
					DGGRSID:            "IGEO7",
					MinRefinementLevel: 0,
					MaxRefinementLevel: 15,
					DatasourceID:       "ds1",
				},
			},
		},
	}

	return &registry.Registry{
		Document: doc,
		DGGRS:    dreg,
		CollectionProviders: map[string]collection.Provider{
			"mem": fakeProvider{},
		},
	}
}

func setupTestService() {
	serviceInstance = &Service{
		Registry: setupTestRegistry(),
		cache:    cache.NewDisabledCache(),
	}
}

func TestHandleHealth(t *testing.T) {
	setupTestService()

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := appHandler(handleHealth)
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var response HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("failed to parse health response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", response.Status)
	}
	if response.DGGRSCount != 1 || response.Collections != 1 {
		t.Errorf("unexpected counts: %+v", response)
	}
}

func TestHandleHealthNoRegistry(t *testing.T) {
	serviceInstance = &Service{cache: cache.NewDisabledCache()}

	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	appHandler(handleHealth).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
}

func TestHandleRoot(t *testing.T) {
	setupTestService()

	req, _ := http.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	appHandler(handleRoot).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Errorf("expected Content-Type %s, got %s", ContentTypeJSON, ct)
	}
}

func TestHandleCollections(t *testing.T) {
	setupTestService()

	req, _ := http.NewRequest("GET", "/collections", nil)
	rr := httptest.NewRecorder()
	appHandler(handleCollections).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var body map[string][]CollectionSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body["collections"]) != 1 || body["collections"][0].ID != "rivers" {
		t.Errorf("unexpected collections: %+v", body)
	}
}

func TestHandleTileInvalidCoordinates(t *testing.T) {
	setupTestService()

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"invalid zoom", "/tiles-api/rivers/99/0/0", http.StatusBadRequest},
		{"invalid x", "/tiles-api/rivers/10/9999/0", http.StatusBadRequest},
		{"invalid y", "/tiles-api/rivers/10/0/9999", http.StatusBadRequest},
		{"negative zoom", "/tiles-api/rivers/-1/0/0", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", tt.url, nil)
			if err != nil {
				t.Fatal(err)
			}
			rr := httptest.NewRecorder()
			router := initRouter("")
			router.ServeHTTP(rr, req)

			if status := rr.Code; status != tt.code {
				t.Errorf("handler returned wrong status code: got %v want %v", status, tt.code)
			}
		})
	}
}

func TestRouter(t *testing.T) {
	setupTestService()
	router := initRouter("")

	tests := []struct {
		method string
		path   string
		match  bool
	}{
		{"GET", "/", true},
		{"GET", "/conformance", true},
		{"GET", "/collections", true},
		{"GET", "/collections/rivers", true},
		{"GET", "/dggs", true},
		{"GET", "/dggs/IGEO7", true},
		{"GET", "/dggs/IGEO7/zones", true},
		{"GET", "/dggs/IGEO7/zones/Z7-abc", true},
		{"GET", "/dggs/IGEO7/zones/Z7-abc/data", true},
		{"GET", "/tiles-api/rivers.json", true},
		{"GET", "/tiles-api/rivers/10/512/384", true},
		{"POST", "/", false},
		{"GET", "/invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}

			var match bool
			router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
				if route.Match(req, &mux.RouteMatch{}) {
					match = true
				}
				return nil
			})

			if match != tt.match {
				t.Errorf("expected route match %v for %s %s, got %v", tt.match, tt.method, tt.path, match)
			}
		})
	}
}

func TestGetBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		scheme   string
		expected string
	}{
		{name: "simple http", host: "localhost:9000", scheme: "http", expected: "http://localhost:9000"},
		{name: "https", host: "example.com", scheme: "https", expected: "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Host = tt.host
			if tt.scheme == "https" {
				req.TLS = &tls.ConnectionState{}
			}

			if baseURL := getBaseURL(req); baseURL != tt.expected {
				t.Errorf("expected base URL %s, got %s", tt.expected, baseURL)
			}
		})
	}
}
