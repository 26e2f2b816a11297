package collection

import (
	"sort"

	"github.com/crim-ca/dggs-server/internal/coltable"
)

// QuantizeZones ports PandasQuantizer.quantize_zones: for each parent
// zone in zonesMapping, aggregate its children's rows in t per-column
// using the configured QuantizeMethod (defaulting to "sum", matching
// the Python implementation's agg_map.get(..., 'sum') fallback).
func QuantizeZones(t *coltable.Table, zonesMapping map[string][]string, methods map[string]QuantizeMethod) *coltable.Table {
	if len(zonesMapping) == 0 {
		return t
	}
	rowsByZone := map[string][]int{}
	for i, z := range t.Zones {
		rowsByZone[z] = append(rowsByZone[z], i)
	}

	var parents []string
	for p := range zonesMapping {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	out := coltable.NewTable(parents)
	for _, colName := range t.ColOrder {
		col := t.Columns[colName]
		method := methods[colName]
		if method == "" {
			method = QuantizeSum
		}
		if col.DType == coltable.String || method == QuantizeMode {
			vals := make([]string, len(parents))
			valid := make([]bool, len(parents))
			for pi, parent := range parents {
				rows := rowsFor(zonesMapping[parent], rowsByZone)
				v, ok := modeString(col, rows)
				vals[pi], valid[pi] = v, ok
			}
			out.SetColumn(colName, coltable.NewStringColumn(vals, valid))
			continue
		}
		vals := make([]float64, len(parents))
		valid := make([]bool, len(parents))
		for pi, parent := range parents {
			rows := rowsFor(zonesMapping[parent], rowsByZone)
			v, ok := aggregateFloat64(col, rows, method)
			vals[pi], valid[pi] = v, ok
		}
		out.SetColumn(colName, coltable.NewFloat64Column(vals, valid))
	}
	return out
}

func rowsFor(children []string, rowsByZone map[string][]int) []int {
	var rows []int
	for _, c := range children {
		rows = append(rows, rowsByZone[c]...)
	}
	return rows
}

func aggregateFloat64(col coltable.Column, rows []int, method QuantizeMethod) (float64, bool) {
	var vals []float64
	for _, r := range rows {
		if v, ok := col.Float64(r); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	switch method {
	case QuantizeMean:
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals)), true
	case QuantizeMax:
		m := vals[0]
		for _, v := range vals[1:] {
			if v > m {
				m = v
			}
		}
		return m, true
	case QuantizeMin:
		m := vals[0]
		for _, v := range vals[1:] {
			if v < m {
				m = v
			}
		}
		return m, true
	case QuantizeMedian:
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2], true
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2, true
	case QuantizeMode:
		counts := map[float64]int{}
		best, bestN := vals[0], 0
		for _, v := range vals {
			counts[v]++
			if counts[v] > bestN {
				best, bestN = v, counts[v]
			}
		}
		return best, true
	default: // QuantizeSum
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum, true
	}
}

func modeString(col coltable.Column, rows []int) (string, bool) {
	counts := map[string]int{}
	best, bestN := "", 0
	found := false
	for _, r := range rows {
		v := col.At(r)
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		found = true
		counts[s]++
		if counts[s] > bestN {
			best, bestN = s, counts[s]
		}
	}
	return best, found
}
