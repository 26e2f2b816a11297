package collection

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/crim-ca/dggs-server/internal/coltable"
)

// ZarrStore is the minimal read surface a Zarr backend needs to
// supply: reading one zone-group's arrays at a given level. Ported
// from zarr_collection_provider.py's DataTree-per-resolution model,
// where info.ZoneGroups maps a zone level to a Zarr group path; the
// group's arrays are indexed by zone id along one dimension.
//
// Full Zarr chunk-codec handling lives behind this interface rather
// than in this package — spec §1 puts "the analytic engines
// themselves" out of scope, and this is the thin orchestration layer
// spec §4.2 actually asks the core to own.
type ZarrStore interface {
	// ReadGroup returns, for the group at groupPath, the zone ids and
	// each requested variable's values aligned to those zone ids.
	ReadGroup(groupPath string, zoneIDs []string, variables []string) (zones []string, columns map[string][]float64, err error)
}

// ZarrProvider is the `{providerType: "zarr"}` collection backend.
type ZarrProvider struct {
	store       ZarrStore
	datasources map[string]DatasourceInfo
}

func NewZarrProvider(store ZarrStore) *ZarrProvider {
	return &ZarrProvider{store: store, datasources: map[string]DatasourceInfo{}}
}

func (p *ZarrProvider) RegisterDatasource(id string, info DatasourceInfo) {
	p.datasources[id] = info
}

func (p *ZarrProvider) GetData(req GetDataRequest) (Contribution, error) {
	info, ok := p.datasources[req.DatasourceID]
	if !ok {
		return Contribution{}, fmt.Errorf("zarrprovider: unknown datasource %q", req.DatasourceID)
	}
	if req.IncludeDatetime && info.DatetimeCol == "" {
		return Skipped(fmt.Sprintf("datasource %q has no datetime dimension", req.DatasourceID)), nil
	}
	groupPath, ok := info.ZoneGroups[strconv.Itoa(req.ZoneLevel)]
	if !ok {
		return Skipped(fmt.Sprintf("datasource %q has no zone group for level %d", req.DatasourceID, req.ZoneLevel)), nil
	}

	variables := info.DataCols
	if len(variables) == 0 || variables[0] == "*" {
		return Contribution{}, fmt.Errorf("zarrprovider: datasource %q must declare explicit data_cols (zarr groups have no catalog)", req.DatasourceID)
	}

	zones, cols, err := p.store.ReadGroup(groupPath, req.ZoneIDs, variables)
	if err != nil {
		return Contribution{}, fmt.Errorf("zarrprovider: read group %q: %w", groupPath, err)
	}
	if len(zones) == 0 {
		return Skipped(fmt.Sprintf("zone group %q has no data for the requested zones", groupPath)), nil
	}

	t := coltable.NewTable(zones)
	var names []string
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.SetColumn(name, coltable.NewFloat64Column(cols[name], nil))
	}
	return OK(t), nil
}

func (p *ZarrProvider) GetDataDictionary(datasourceID string) (DataDictionary, error) {
	info, ok := p.datasources[datasourceID]
	if !ok {
		return DataDictionary{}, fmt.Errorf("zarrprovider: unknown datasource %q", datasourceID)
	}
	dict := DataDictionary{Properties: map[string]string{}, HasDatetime: info.DatetimeCol != ""}
	for _, c := range info.DataCols {
		dict.Properties[c] = "float64"
	}
	return dict, nil
}

// QuantizeZones implements the Quantizer capability for Zarr-backed
// datasources, which typically store only the finest resolution (spec
// §4.2, ported from XarrayQuantizer.quantize_zones).
func (p *ZarrProvider) QuantizeZones(t *coltable.Table, zonesMapping map[string][]string, methods map[string]QuantizeMethod) *coltable.Table {
	return QuantizeZones(t, zonesMapping, methods)
}
