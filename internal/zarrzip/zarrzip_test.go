package zarrzip

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/crim-ca/dggs-server/internal/assembler"
	"github.com/crim-ca/dggs-server/internal/coltable"
)

func TestWriteProducesExpectedEntries(t *testing.T) {
	table := coltable.NewTable([]string{"00", "01"})
	table.SetColumn("rivers.flow", coltable.NewFloat64Column([]float64{1.5, 2.5}, nil))

	result := &assembler.Result{
		DGGRSID: "IGEO7",
		Levels: []assembler.Level{
			{AbsoluteLevel: 3, RelativeDepth: 0, ZoneIDs: []string{"00", "01"}, Table: table},
		},
	}

	buf := &bytes.Buffer{}
	if err := Write(buf, result, nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("unexpected error reading zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"zone_level_3/zoneId/.zarray",
		"zone_level_3/zoneId/0",
		"zone_level_3/rivers.flow_zone_level_3/.zarray",
		"zone_level_3/rivers.flow_zone_level_3/0",
	} {
		if !names[want] {
			t.Fatalf("expected zip entry %q, got %v", want, names)
		}
	}
}
