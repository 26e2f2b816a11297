package collection

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zarrayMeta mirrors internal/zarrzip's `.zarray` metadata shape (Zarr
// v2): this reads the same single-chunk, Zstd-compressed, fixed-width
// layout that package writes, just from a directory store instead of
// a zip archive — the canonical Zarr v2 "DirectoryStore" convention.
type zarrayMeta struct {
	Shape      []int  `json:"shape"`
	Chunks     []int  `json:"chunks"`
	DType      string `json:"dtype"`
	Order      string `json:"order"`
	Compressor struct {
		ID string `json:"id"`
	} `json:"compressor"`
}

// FileZarrStore implements ZarrStore by reading Zarr v2 arrays laid
// out as directories under root, one `zoneId` array plus one array per
// requested variable per group, ported from zarr_collection_provider.py's
// DataTree lookup (group -> variable -> values indexed by zoneId),
// with xarray's chunked/compressed backend replaced by this package's
// own single-chunk Zstd convention (no Zarr Go binding exists in the
// example pack; see DESIGN.md).
type FileZarrStore struct {
	root string
}

func NewFileZarrStore(root string) *FileZarrStore {
	return &FileZarrStore{root: root}
}

func (s *FileZarrStore) ReadGroup(groupPath string, zoneIDs []string, variables []string) ([]string, map[string][]float64, error) {
	groupDir := filepath.Join(s.root, groupPath)

	zoneIDArray, err := readStringArray(filepath.Join(groupDir, "zoneId"))
	if err != nil {
		return nil, nil, fmt.Errorf("zarrfilestore: read zoneId array: %w", err)
	}

	indexByZone := make(map[string]int, len(zoneIDArray))
	for i, z := range zoneIDArray {
		indexByZone[z] = i
	}

	var matchedZones []string
	var matchedIdx []int
	for _, z := range zoneIDs {
		if i, ok := indexByZone[z]; ok {
			matchedZones = append(matchedZones, z)
			matchedIdx = append(matchedIdx, i)
		}
	}
	if len(matchedZones) == 0 {
		return nil, nil, nil
	}

	columns := make(map[string][]float64, len(variables))
	for _, name := range variables {
		values, err := readFloat64Array(filepath.Join(groupDir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("zarrfilestore: read variable %q: %w", name, err)
		}
		selected := make([]float64, len(matchedIdx))
		for i, idx := range matchedIdx {
			if idx < len(values) {
				selected[i] = values[idx]
			} else {
				selected[i] = math.NaN()
			}
		}
		columns[name] = selected
	}

	return matchedZones, columns, nil
}

func readZarrayMeta(arrayDir string) (zarrayMeta, error) {
	var meta zarrayMeta
	data, err := os.ReadFile(filepath.Join(arrayDir, ".zarray"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

func readChunk(arrayDir string) ([]byte, error) {
	compressed, err := os.ReadFile(filepath.Join(arrayDir, "0"))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}

func readStringArray(arrayDir string) ([]string, error) {
	meta, err := readZarrayMeta(arrayDir)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(meta.DType, "U32") {
		return nil, fmt.Errorf("zarrfilestore: unsupported zoneId dtype %q", meta.DType)
	}
	raw, err := readChunk(arrayDir)
	if err != nil {
		return nil, err
	}
	count := len(raw) / 32
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = strings.TrimRight(string(raw[i*32:(i+1)*32]), "\x00")
	}
	return out, nil
}

func readFloat64Array(arrayDir string) ([]float64, error) {
	meta, err := readZarrayMeta(arrayDir)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(meta.DType, "f8") {
		return nil, fmt.Errorf("zarrfilestore: unsupported variable dtype %q", meta.DType)
	}
	raw, err := readChunk(arrayDir)
	if err != nil {
		return nil, err
	}
	count := len(raw) / 8
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8 : (i+1)*8]))
	}
	return out, nil
}
