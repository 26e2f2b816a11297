package collection

import "fmt"

// ParquetProvider is the "Parquet via embedded analytic engine" backend
// spec §1 names. DuckDB's read_parquet() table function already does
// this (same driver the teacher and SQLProvider use), so a Parquet
// datasource is just a SQLProvider datasource whose "table" is a
// read_parquet(...) call instead of a materialized table name —
// grounded on parquet_collection_provider.py, which likewise treats
// one or more Parquet files as a single queryable relation per
// resolution (datasource.zone_groups maps zone level to file/glob).
type ParquetProvider struct {
	*SQLProvider
}

func NewParquetProvider(sql *SQLProvider) *ParquetProvider {
	return &ParquetProvider{SQLProvider: sql}
}

// RegisterParquetDatasource registers datasourceID against one Parquet
// file/glob per zone level present in globPerLevel (spec §4.2
// multi-resolution collections), grounded on
// parquet_collection_provider.py's datasource.zone_groups mapping a
// zone level to a file/glob. Each level's glob becomes its own
// read_parquet(...) relation, resolved per request level by
// SQLProvider.GetData exactly as ZarrProvider resolves its own
// per-level groups.
func (p *ParquetProvider) RegisterParquetDatasource(datasourceID string, globPerLevel map[string]string, info DatasourceInfo) {
	relations := make(map[string]string, len(globPerLevel))
	for level, path := range globPerLevel {
		relations[level] = fmt.Sprintf("read_parquet(%s)", quoteLiteral(path))
	}
	p.SQLProvider.RegisterDatasource(datasourceID, relations, info)
}

func quoteLiteral(s string) string {
	return "'" + s + "'"
}
