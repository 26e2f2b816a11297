// Package zarrzip implements spec §4.6 step 5's `application/zarr+zip`
// encoding: one `zone_level_{z}` group per requested depth, a `zoneId`
// array, and one array per `{collection}.{property}`, Zstd-compressed
// (the nearest real analogue to the Python source's Blosc/Zstd codec,
// per SPEC_FULL.md's DOMAIN STACK table).
package zarrzip

import (
	"archive/zip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/crim-ca/dggs-server/internal/assembler"
	"github.com/klauspost/compress/zstd"
)

// zarrayMeta is the minimal subset of a Zarr v2 `.zarray` metadata
// document this encoder needs to emit (shape, dtype, compressor id).
type zarrayMeta struct {
	Shape      []int  `json:"shape"`
	Chunks     []int  `json:"chunks"`
	DType      string `json:"dtype"`
	Order      string `json:"order"`
	Compressor struct {
		ID string `json:"id"`
	} `json:"compressor"`
	FillValue any `json:"fill_value"`
}

// Write implements spec §4.6 step 5's zarr+zip branch, writing one
// `zone_level_{z}` group per depth into a zip archive.
func Write(w io.Writer, result *assembler.Result, nodataMapping map[string]float64, defaultNodata float64) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, level := range result.Levels {
		group := fmt.Sprintf("zone_level_%d", level.AbsoluteLevel)
		if err := writeZoneIDArray(zw, group, level.ZoneIDs); err != nil {
			return err
		}
		if level.Table == nil {
			continue
		}
		for _, name := range level.Table.ColOrder {
			col := level.Table.Columns[name]
			arrayName := fmt.Sprintf("%s_zone_level_%d", name, level.AbsoluteLevel)
			nodata := defaultNodata
			if v, ok := nodataMapping[name]; ok {
				nodata = v
			}
			values := make([]float64, col.Len())
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Float64(i)
				if !ok {
					v = nodata
				}
				values[i] = v
			}
			if err := writeFloat64Array(zw, group, arrayName, values); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeZoneIDArray(zw *zip.Writer, group string, zoneIDs []string) error {
	meta := zarrayMeta{Shape: []int{len(zoneIDs)}, Chunks: []int{len(zoneIDs)}, DType: "<U32", Order: "C", FillValue: nil}
	meta.Compressor.ID = "zstd"
	if err := writeMetaFile(zw, group+"/zoneId/.zarray", meta); err != nil {
		return err
	}
	raw := make([]byte, 0, len(zoneIDs)*32)
	for _, z := range zoneIDs {
		b := make([]byte, 32)
		copy(b, z)
		raw = append(raw, b...)
	}
	return writeCompressedChunk(zw, group+"/zoneId/0", raw)
}

func writeFloat64Array(zw *zip.Writer, group, name string, values []float64) error {
	meta := zarrayMeta{Shape: []int{len(values)}, Chunks: []int{len(values)}, DType: "<f8", Order: "C", FillValue: "NaN"}
	meta.Compressor.ID = "zstd"
	if err := writeMetaFile(zw, group+"/"+name+"/.zarray", meta); err != nil {
		return err
	}
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return writeCompressedChunk(zw, group+"/"+name+"/0", raw)
}

func writeMetaFile(zw *zip.Writer, path string, meta zarrayMeta) error {
	f, err := zw.Create(path)
	if err != nil {
		return err
	}
	return json.NewEncoder(f).Encode(meta)
}

func writeCompressedChunk(zw *zip.Writer, path string, raw []byte) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)

	f, err := zw.Create(path)
	if err != nil {
		return err
	}
	_, err = f.Write(compressed)
	return err
}
