// Package collection defines the collection-provider contract (spec
// §4.2): fetching per-zone property data for a datasource and
// describing its schema, generalizing abstract_collection_provider.py
// to Go with an explicit result type instead of exceptions.
package collection

import (
	"time"

	"github.com/crim-ca/dggs-server/internal/coltable"
	"github.com/crim-ca/dggs-server/internal/cql2"
)

// QuantizeMethod is one of the aggregation strategies PandasQuantizer
// supports when rolling fine zones up to a coarser parent.
type QuantizeMethod string

const (
	QuantizeSum    QuantizeMethod = "sum"
	QuantizeMean   QuantizeMethod = "mean"
	QuantizeMax    QuantizeMethod = "max"
	QuantizeMin    QuantizeMethod = "min"
	QuantizeMedian QuantizeMethod = "median"
	QuantizeMode   QuantizeMethod = "mode"
)

// DatasourceInfo configures one datasource within a collection
// (AbstractDatasourceInfo): which columns to pull, the zone-id and
// datetime column names, per-level zone-group table names (for
// zarr/parquet backends storing one table per resolution), and a
// nodata sentinel to fall back to when a column has no value defined.
type DatasourceInfo struct {
	DataCols         []string
	ExcludeDataCols  []string
	ZoneGroups       map[string]string // zone_level (as string) -> table/group name
	ZoneIDCol        string
	DatetimeCol      string // empty means the datasource has no datetime dimension
	NodataMapping    map[string]float64
	DefaultNodata    float64
	QuantizeMethods  map[string]QuantizeMethod
}

// Outcome distinguishes a successful per-collection contribution from
// one that was deliberately skipped, replacing the Python
// implementation's practice of raising DatetimeNotDefinedError (or
// similar) for expected, recoverable conditions (Design Notes §9).
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeSkipped
)

// Contribution is the get_data result: either a populated table or a
// typed reason the collection contributed nothing, never a Go error
// that would abort the whole multi-collection fan-out (spec §7).
type Contribution struct {
	Outcome Outcome
	Reason  string
	Table   *coltable.Table
}

func OK(t *coltable.Table) Contribution { return Contribution{Outcome: OutcomeOK, Table: t} }
func Skipped(reason string) Contribution {
	return Contribution{Outcome: OutcomeSkipped, Reason: reason}
}

// DataDictionary describes a datasource's available properties and
// their DGGS-JSON/CoverageJSON-ish dtypes (CollectionProviderGetDataDictReturn).
type DataDictionary struct {
	Properties map[string]string // property name -> dtype ("float64", "int64", "string", "bool")
	HasDatetime bool
}

// GetDataRequest bundles get_data's parameters (spec §4.2).
type GetDataRequest struct {
	ZoneIDs                []string
	ZoneLevel              int
	DatasourceID           string
	Filter                 *cql2.Node
	IncludeDatetime        bool
	DatetimeRange          *[2]time.Time
	IncludeProperties      []string
	ExcludeProperties      []string
	QuantizeZonesMapping   map[string][]string // parent zone -> child zone ids, when res is coarser than stored data
}

// Provider is the contract every collection backend (sql, parquet,
// zarr, stac) implements.
type Provider interface {
	GetData(req GetDataRequest) (Contribution, error)
	GetDataDictionary(datasourceID string) (DataDictionary, error)
}

// Quantizer is an optional capability a Provider can implement when it
// only stores fine-resolution data and must aggregate up to a coarser
// requested zone level itself (ported from PandasQuantizer/
// XarrayQuantizer's quantize_zones, spec §4.2).
type Quantizer interface {
	QuantizeZones(t *coltable.Table, zonesMapping map[string][]string, methods map[string]QuantizeMethod) *coltable.Table
}
