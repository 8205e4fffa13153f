package column

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"

	"github.com/softwareheritage/swh-provenance/internal/ef"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// RowGroupRange is the primary-key min/max statistics range of one row
// group, used for row-group pruning (spec §4.2 "use row-group min/max to
// find candidate row groups").
type RowGroupRange struct {
	Min, Max   uint64
	NumRows    int64
	rowsBefore int64 // cumulative row offset of this group's first row
}

// PartReader opens one `part-*.parquet` file for point lookups: its
// Elias-Fano sidecar (consulted first, spec §4.3 invariant), and its
// row-group min/max statistics (consulted second).
type PartReader struct {
	path      string
	pf        source.ParquetFile
	pr        *reader.ParquetReader
	index     *ef.EliasFano
	rowGroups []RowGroupRange
}

func openPartReader(path string, rowSchema interface{}) (*PartReader, error) {
	sidecar, closeSidecar, err := mmapFile(sidecarPath(path))
	if err != nil {
		return nil, fmt.Errorf("column: read elias-fano sidecar for %s: %w", path, err)
	}
	idx, unmarshalErr := ef.UnmarshalEliasFano(sidecar)
	if err := closeSidecar(); err != nil {
		return nil, fmt.Errorf("column: unmap elias-fano sidecar for %s: %w", path, err)
	}
	if unmarshalErr != nil {
		return nil, fmt.Errorf("%w: elias-fano sidecar for %s: %v", types.ErrCorruption, path, unmarshalErr)
	}

	pf, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("column: open %s for read: %w", path, err)
	}
	pr, err := reader.NewParquetReader(pf, rowSchema, 4)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("column: new parquet reader for %s: %w", path, err)
	}

	pReader := &PartReader{path: path, pf: pf, pr: pr, index: idx}
	pReader.rowGroups = extractRowGroupRanges(pr)
	return pReader, nil
}

// extractRowGroupRanges reads min/max statistics for the primary-key
// column (always the schema's first field, by convention of schema.go)
// out of the Parquet footer already loaded by NewParquetReader.
func extractRowGroupRanges(pr *reader.ParquetReader) []RowGroupRange {
	if pr.Footer == nil {
		return nil
	}
	ranges := make([]RowGroupRange, 0, len(pr.Footer.RowGroups))
	var rowsBefore int64
	for _, rg := range pr.Footer.RowGroups {
		rr := RowGroupRange{NumRows: rg.NumRows, rowsBefore: rowsBefore}
		if len(rg.Columns) > 0 && rg.Columns[0].MetaData != nil && rg.Columns[0].MetaData.Statistics != nil {
			stats := rg.Columns[0].MetaData.Statistics
			if stats.Min != nil {
				rr.Min = decodeUint64Stat(stats.Min)
			}
			if stats.Max != nil {
				rr.Max = decodeUint64Stat(stats.Max)
			}
		}
		ranges = append(ranges, rr)
		rowsBefore += rg.NumRows
	}
	return ranges
}

// decodeUint64Stat decodes an INT64/UINT_64 column statistic, stored by
// parquet-go as 8 little-endian bytes.
func decodeUint64Stat(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ContainsKey reports whether key might be present in this part file,
// consulting only the Elias-Fano sidecar (spec §4.3 step 1).
func (r *PartReader) ContainsKey(key uint64) bool {
	return r.index.Contains(key)
}

// CandidateRowGroups returns the indexes of row groups whose primary-key
// range could contain key (spec §4.3 step 2).
func (r *PartReader) CandidateRowGroups(key uint64) []int {
	var out []int
	for i, rg := range r.rowGroups {
		if key >= rg.Min && key <= rg.Max {
			out = append(out, i)
		}
	}
	return out
}

// ReadRowGroup reads all rows of row group i into dst, a pointer to a
// slice of the part's row type (e.g. *[]NodeRow). Rows outside the
// requested row group are skipped via SkipRows, mirroring the page-scan
// step of spec §4.3 ("read candidate pages, decode, filter").
func (r *PartReader) ReadRowGroup(i int, dst interface{}) error {
	if i < 0 || i >= len(r.rowGroups) {
		return fmt.Errorf("column: row group %d out of range for %s", i, r.path)
	}
	rg := r.rowGroups[i]
	// Decode through a fresh reader: parquet-go readers only move forward,
	// and the cached r.pr may already be past this row group.
	pf, err := local.NewLocalFileReader(r.path)
	if err != nil {
		return fmt.Errorf("column: open %s for read: %w", r.path, err)
	}
	defer pf.Close()
	dv := reflect.ValueOf(dst).Elem()
	pr, err := reader.NewParquetReader(pf, reflect.New(dv.Type().Elem()).Interface(), 4)
	if err != nil {
		return fmt.Errorf("column: new parquet reader for %s: %w", r.path, err)
	}
	defer pr.ReadStop()
	if err := pr.SkipRows(rg.rowsBefore); err != nil {
		return fmt.Errorf("column: skip to row group %d in %s: %w", i, r.path, err)
	}
	// parquet-go's Read decodes as many rows as dst's slice already holds,
	// so size it to this row group first.
	dv.Set(reflect.MakeSlice(dv.Type(), int(rg.NumRows), int(rg.NumRows)))
	if err := pr.Read(dst); err != nil {
		return fmt.Errorf("column: read row group %d in %s: %w", i, r.path, err)
	}
	return nil
}

// RowGroupCount returns the number of row groups in this part file.
func (r *PartReader) RowGroupCount() int { return len(r.rowGroups) }

// Close releases the Parquet reader and underlying file handle.
func (r *PartReader) Close() error {
	r.pr.ReadStop()
	return r.pf.Close()
}

// OpenNodesPartReader opens a nodes part file for reading.
func OpenNodesPartReader(path string) (*PartReader, error) {
	return openPartReader(path, new(NodeRow))
}

// OpenFDIRPartReader opens an FDIR part file for reading.
func OpenFDIRPartReader(path string) (*PartReader, error) {
	return openPartReader(path, new(FrontierDirRow))
}

// OpenCFDPartReader opens a CFD part file for reading.
func OpenCFDPartReader(path string) (*PartReader, error) {
	return openPartReader(path, new(ContentInFrontierRow))
}

// OpenCRNFPartReader opens a CRNF part file for reading.
func OpenCRNFPartReader(path string) (*PartReader, error) {
	return openPartReader(path, new(ContentInRevisionRow))
}
