package main

/*
# Collection-provider wiring

The configuration document (spec §6) names collection-provider classes
by id; internal/registry only holds the id -> constructor table
(registry.RegisterCollectionConstructor), since the concrete backends
need runtime resources — a DuckDB path, an HTTP client, a ZarrStore —
that registry.go's own comment says belong to "the service's startup
code". This file is that startup code: it decodes each datasource's
backend-specific JSON and builds the four collection.Provider kinds
spec §1/§3 name.
*/

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crim-ca/dggs-server/internal/collection"
	"github.com/crim-ca/dggs-server/internal/conf"
	"github.com/crim-ca/dggs-server/internal/registry"
)

// registerCollectionConstructors wires the four collection-provider
// backends into registry's compile-time class map before registry.Build
// resolves the configuration document's collection_providers table.
func registerCollectionConstructors() {
	registry.RegisterCollectionConstructor("SQLCollectionProvider", newSQLCollectionProvider)
	registry.RegisterCollectionConstructor("ParquetCollectionProvider", newParquetCollectionProvider)
	registry.RegisterCollectionConstructor("ZarrCollectionProvider", newZarrCollectionProvider)
	registry.RegisterCollectionConstructor("STACCollectionProvider", newSTACCollectionProvider)
}

// sqlDatasourceConfig is the JSON shape of one SQL/Parquet datasource
// entry (zone_groups maps zone level -> table name or Parquet glob,
// per spec §4.2 multi-resolution collections).
type sqlDatasourceConfig struct {
	ZoneGroups      map[string]string  `json:"zone_groups"`
	DataCols        []string           `json:"data_cols"`
	ExcludeDataCols []string           `json:"exclude_data_cols"`
	ZoneIDCol       string             `json:"zone_id_col"`
	DatetimeCol     string             `json:"datetime_col"`
	DefaultNodata   float64            `json:"default_nodata"`
	NodataMapping   map[string]float64 `json:"nodata_mapping"`
}

func (c sqlDatasourceConfig) datasourceInfo() collection.DatasourceInfo {
	return collection.DatasourceInfo{
		DataCols:        c.DataCols,
		ExcludeDataCols: c.ExcludeDataCols,
		ZoneIDCol:       c.ZoneIDCol,
		DatetimeCol:     c.DatetimeCol,
		DefaultNodata:   c.DefaultNodata,
		NodataMapping:   c.NodataMapping,
	}
}

func newDuckDBProvider() (*collection.SQLProvider, error) {
	data := conf.Configuration.Data
	if data.DuckDBPath == "" {
		return nil, fmt.Errorf("providers: Data.DuckDBPath is not configured")
	}
	return collection.NewSQLProvider(
		data.DuckDBPath,
		data.MaxOpenConns,
		data.MaxIdleConns,
		time.Duration(data.ConnMaxLifetimeSeconds)*time.Second,
		time.Duration(data.ConnMaxIdleTimeSeconds)*time.Second,
	)
}

func newSQLCollectionProvider(entry registry.CollectionProviderEntry) (collection.Provider, error) {
	sqlProvider, err := newDuckDBProvider()
	if err != nil {
		return nil, err
	}
	for id, raw := range entry.Datasources {
		var cfg sqlDatasourceConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("providers: sql datasource %q: %w", id, err)
		}
		sqlProvider.RegisterDatasource(id, cfg.ZoneGroups, cfg.datasourceInfo())
	}
	return sqlProvider, nil
}

func newParquetCollectionProvider(entry registry.CollectionProviderEntry) (collection.Provider, error) {
	sqlProvider, err := newDuckDBProvider()
	if err != nil {
		return nil, err
	}
	parquetProvider := collection.NewParquetProvider(sqlProvider)
	for id, raw := range entry.Datasources {
		var cfg sqlDatasourceConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("providers: parquet datasource %q: %w", id, err)
		}
		parquetProvider.RegisterParquetDatasource(id, cfg.ZoneGroups, cfg.datasourceInfo())
	}
	return parquetProvider, nil
}

// zarrDatasourceConfig is the JSON shape of one Zarr datasource entry
// (zone_groups maps zone level -> Zarr group path, per
// zarr_collection_provider.py's DataTree-per-resolution model).
type zarrDatasourceConfig struct {
	ZoneGroups  map[string]string `json:"zone_groups"`
	DataCols    []string          `json:"data_cols"`
	DatetimeCol string            `json:"datetime_col"`
}

func newZarrCollectionProvider(entry registry.CollectionProviderEntry) (collection.Provider, error) {
	if conf.Configuration.Data.ZarrRoot == "" {
		return nil, fmt.Errorf("providers: Data.ZarrRoot is not configured")
	}
	store := collection.NewFileZarrStore(conf.Configuration.Data.ZarrRoot)
	zarrProvider := collection.NewZarrProvider(store)
	for id, raw := range entry.Datasources {
		var cfg zarrDatasourceConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("providers: zarr datasource %q: %w", id, err)
		}
		zarrProvider.RegisterDatasource(id, collection.DatasourceInfo{
			DataCols:    cfg.DataCols,
			ZoneGroups:  cfg.ZoneGroups,
			DatetimeCol: cfg.DatetimeCol,
		})
	}
	return zarrProvider, nil
}

// stacDatasourceConfig is the JSON shape of one STAC datasource entry,
// mirroring STAC_collection_provider.py's catalog URL / collection id
// / zone-id-to-Item mapping.
type stacDatasourceConfig struct {
	CatalogURL     string   `json:"catalog_url"`
	CollectionID   string   `json:"collection_id"`
	ZoneIDTemplate string   `json:"zone_id_template"`
	GridCodeZoneID bool     `json:"grid_code_zone_id"`
	GridReference  string   `json:"grid_reference"`
	DataVariables  []string `json:"data_variables"`
}

var sharedHTTPClient = &http.Client{Timeout: 30 * time.Second}

func newSTACCollectionProvider(entry registry.CollectionProviderEntry) (collection.Provider, error) {
	stacProvider := collection.NewSTACProvider(sharedHTTPClient)
	for id, raw := range entry.Datasources {
		var cfg stacDatasourceConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("providers: stac datasource %q: %w", id, err)
		}
		stacProvider.RegisterDatasource(id, collection.STACDatasourceParams{
			CatalogURL:     cfg.CatalogURL,
			CollectionID:   cfg.CollectionID,
			ZoneIDTemplate: cfg.ZoneIDTemplate,
			GridCodeZoneID: cfg.GridCodeZoneID,
			GridReference:  cfg.GridReference,
			DataVariables:  cfg.DataVariables,
		})
	}
	return stacProvider, nil
}
