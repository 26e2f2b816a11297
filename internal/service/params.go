package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crim-ca/dggs-server/internal/cql2"
	"github.com/crim-ca/dggs-server/internal/geom"
)

func parseBBox(s string) (*geom.Extent, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox value %q is not a number", p)
		}
		vals[i] = v
	}
	return &geom.Extent{Minx: vals[0], Miny: vals[1], Maxx: vals[2], Maxy: vals[3]}, nil
}

func parseBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseZoneDepth parses zone-depth's single/range("a-b")/comma-list
// forms (spec §6) into a slice of relative depths.
func parseZoneDepth(s string) ([]int, error) {
	if s == "" {
		return []int{0}, nil
	}
	if strings.Contains(s, ",") {
		out := []int{}
		for _, p := range strings.Split(s, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("zone-depth value %q is not an integer", p)
			}
			out = append(out, v)
		}
		return out, nil
	}
	if i := strings.Index(s, "-"); i > 0 {
		from, err1 := strconv.Atoi(strings.TrimSpace(s[:i]))
		to, err2 := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if err1 != nil || err2 != nil || from > to {
			return nil, fmt.Errorf("zone-depth range %q is malformed", s)
		}
		out := make([]int, 0, to-from+1)
		for d := from; d <= to; d++ {
			out = append(out, d)
		}
		return out, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("zone-depth %q is not an integer", s)
	}
	return []int{v}, nil
}

// parseFilter parses CQL2-text or CQL2-JSON, trying JSON first when
// the value looks like a JSON object (spec §6 "filter (CQL2-text or
// CQL2-JSON)").
func parseFilter(s string) (*cql2.Node, error) {
	if s == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") {
		return cql2.ParseJSON([]byte(trimmed))
	}
	return cql2.ParseText(trimmed)
}

func parseIntDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
