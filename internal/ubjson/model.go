// Package ubjson implements the DGGS-JSON data model (spec §4.6 step
// 5) and its two serializations: `application/json` via the standard
// library, and `application/ubjson` via a small reflection-based
// Universal Binary JSON encoder (no maintained Go UBJSON library
// exists in the example pack or a confidently citable one in the
// ecosystem, so this is a justified stdlib-adjacent fallback — see
// DESIGN.md Open Question #3 on keeping the `$schema` member, unlike
// some historical UBJSON encoders that drop non-ASCII-safe keys).
package ubjson

import (
	"math"
	"sort"

	"github.com/crim-ca/dggs-server/internal/assembler"
)

// PropertyType is one schema.properties entry.
type PropertyType struct {
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

// Schema is DGGS-JSON's schema member.
type Schema struct {
	Properties map[string]PropertyType `json:"properties"`
}

// Shape describes one property's data layout at one depth.
type Shape struct {
	Count      int            `json:"count"`
	SubZones   int            `json:"subZones"`
	Dimensions map[string]int `json:"dimensions,omitempty"`
}

// PropertyDepth is one element of values[prop] (spec §4.6 step 5).
type PropertyDepth struct {
	Depth int     `json:"depth"`
	Shape Shape   `json:"shape"`
	Data  []any   `json:"data"`
}

// DGGSJSON is the full `application/json`/`application/ubjson` model
// (spec §4.6 step 5).
type DGGSJSON struct {
	Schema     string                     `json:"$schema,omitempty"`
	DGGRS      string                     `json:"dggrs"`
	ZoneID     string                     `json:"zoneId"`
	Depths     []int                      `json:"depths"`
	DataSchema Schema                     `json:"schema"`
	Values     map[string][]PropertyDepth `json:"values"`
	Dimensions map[string]int             `json:"dimensions,omitempty"`
}

const schemaURI = "https://ogcapi.ogc.org/dggs/dggs-json-schema.json"

// BuildDGGSJSON converts an assembled result (spec §4.6 step 4) into
// the DGGS-JSON model (spec §4.6 step 5), zone-major, NaN mapped to
// JSON null.
func BuildDGGSJSON(result *assembler.Result) *DGGSJSON {
	out := &DGGSJSON{
		Schema:     schemaURI,
		DGGRS:      result.DGGRSID,
		ZoneID:     result.ZoneID,
		DataSchema: Schema{Properties: map[string]PropertyType{}},
		Values:     map[string][]PropertyDepth{},
	}

	for _, level := range result.Levels {
		out.Depths = append(out.Depths, level.RelativeDepth)
		if level.Table == nil {
			continue
		}
		distinctZones := map[string]bool{}
		for _, z := range level.Table.Zones {
			distinctZones[z] = true
		}
		var dims map[string]int
		if len(level.Table.Datetimes) > 0 {
			distinctDT := map[string]bool{}
			for _, dt := range level.Table.Datetimes {
				if dt != nil {
					distinctDT[dt.String()] = true
				}
			}
			if len(distinctDT) > 0 {
				dims = map[string]int{"datetime": len(distinctDT)}
			}
		}

		for _, name := range level.Table.ColOrder {
			col := level.Table.Columns[name]
			if _, ok := out.DataSchema.Properties[name]; !ok {
				out.DataSchema.Properties[name] = PropertyType{Type: string(col.DType)}
			}
			data := make([]any, col.Len())
			for i := 0; i < col.Len(); i++ {
				v := col.At(i)
				if f, ok := v.(float64); ok && math.IsNaN(f) {
					v = nil
				}
				data[i] = v
			}
			out.Values[name] = append(out.Values[name], PropertyDepth{
				Depth: level.RelativeDepth,
				Shape: Shape{Count: len(data), SubZones: len(distinctZones), Dimensions: dims},
				Data:  data,
			})
		}
	}

	sort.Ints(out.Depths)
	return out
}
