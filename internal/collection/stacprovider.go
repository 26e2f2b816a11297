package collection

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crim-ca/dggs-server/internal/coltable"
)

// STACDatasourceParams configures one STAC_collection_provider.py
// datasource: a catalog URL, the target STAC collection, and how a
// DGGS zone id maps to a STAC Item id or "grid:code" property (the
// stac-extensions/grid convention).
type STACDatasourceParams struct {
	CatalogURL     string
	CollectionID   string
	ZoneIDTemplate string // e.g. "{zoneId}"; "{zoneId}" is substituted with the textual zone id
	GridCodeZoneID bool
	GridReference  string
	DataVariables  []string
}

// STACProvider is a minimal STAC API client covering item search by
// zone id ("grid:code" or templated Item id), reading each matched
// Item's properties filtered by DataVariables, enough to satisfy the "STAC"
// backend spec §1/§3 name; there is no Go STAC client in the example
// pack or a confidently mature ecosystem one, so this talks to the
// STAC API's plain JSON/REST surface directly over net/http (see
// DESIGN.md).
type STACProvider struct {
	httpClient  *http.Client
	datasources map[string]STACDatasourceParams
}

func NewSTACProvider(httpClient *http.Client) *STACProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &STACProvider{httpClient: httpClient, datasources: map[string]STACDatasourceParams{}}
}

func (p *STACProvider) RegisterDatasource(id string, params STACDatasourceParams) {
	if params.ZoneIDTemplate == "" {
		params.ZoneIDTemplate = "{zoneId}"
	}
	p.datasources[id] = params
}

func (p *STACProvider) zoneIDFor(zoneID string, params STACDatasourceParams) string {
	return strings.ReplaceAll(params.ZoneIDTemplate, "{zoneId}", zoneID)
}

type stacSearchRequest struct {
	Collections []string       `json:"collections"`
	IDs         []string       `json:"ids,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
	Limit       int            `json:"limit"`
}

type stacItem struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

type stacSearchResponse struct {
	Features []stacItem `json:"features"`
}

func (p *STACProvider) search(params STACDatasourceParams, ids []string) ([]stacItem, error) {
	req := stacSearchRequest{Collections: []string{params.CollectionID}, Limit: len(ids) + 1}
	if params.GridCodeZoneID {
		filter := map[string]any{"op": "in", "args": []any{map[string]string{"property": "grid:code"}, toAnySlice(ids)}}
		if params.GridReference != "" {
			filter = map[string]any{"op": "and", "args": []any{
				map[string]any{"op": "=", "args": []any{map[string]string{"property": "grid:reference"}, params.GridReference}},
				filter,
			}}
		}
		req.Filter = filter
	} else {
		req.IDs = ids
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequest(http.MethodPost, strings.TrimRight(params.CatalogURL, "/")+"/search", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stacprovider: search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stacprovider: search failed: %s: %s", resp.Status, string(data))
	}
	var out stacSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("stacprovider: decode search response: %w", err)
	}
	return out.Features, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func (p *STACProvider) GetData(req GetDataRequest) (Contribution, error) {
	params, ok := p.datasources[req.DatasourceID]
	if !ok {
		return Contribution{}, fmt.Errorf("stacprovider: unknown datasource %q", req.DatasourceID)
	}
	stacIDByZone := map[string]string{}
	templated := make([]string, len(req.ZoneIDs))
	for i, z := range req.ZoneIDs {
		sid := p.zoneIDFor(z, params)
		templated[i] = sid
		stacIDByZone[sid] = z
	}

	items, err := p.search(params, templated)
	if err != nil {
		return Contribution{}, err
	}
	if len(items) == 0 {
		return Skipped(fmt.Sprintf("no STAC items matched datasource %q", req.DatasourceID)), nil
	}

	propNames := map[string]bool{}
	for _, it := range items {
		for k := range it.Properties {
			if wantVariable(k, params.DataVariables) {
				propNames[k] = true
			}
		}
	}

	var zones []string
	values := map[string][]float64{}
	for _, it := range items {
		zone, ok := stacIDByZone[it.ID]
		if !ok {
			continue
		}
		zones = append(zones, zone)
		for name := range propNames {
			v, _ := it.Properties[name].(float64)
			values[name] = append(values[name], v)
		}
	}
	if len(zones) == 0 {
		return Skipped(fmt.Sprintf("matched STAC items did not correspond to any requested zone for %q", req.DatasourceID)), nil
	}

	t := coltable.NewTable(zones)
	for name, vals := range values {
		t.SetColumn(name, coltable.NewFloat64Column(vals, nil))
	}
	return OK(t), nil
}

func wantVariable(name string, allowed []string) bool {
	if len(allowed) == 0 || allowed[0] == "*" {
		return true
	}
	for _, a := range allowed {
		if a == name {
			return true
		}
	}
	return false
}

func (p *STACProvider) GetDataDictionary(datasourceID string) (DataDictionary, error) {
	params, ok := p.datasources[datasourceID]
	if !ok {
		return DataDictionary{}, fmt.Errorf("stacprovider: unknown datasource %q", datasourceID)
	}
	dict := DataDictionary{Properties: map[string]string{}}
	for _, v := range params.DataVariables {
		if v == "*" {
			continue
		}
		dict.Properties[v] = "float64"
	}
	return dict, nil
}
