package column

import (
	"fmt"
	"os"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/softwareheritage/swh-provenance/internal/ef"
)

// PartWriter writes one `part-*.parquet` file plus its `part-*.ef`
// sidecar (spec §6.3). Callers must write rows in non-decreasing
// primary-key order (spec §6.3 "sort key discipline"); PartWriter builds
// the Elias-Fano index over the distinct keys it observes, so it also
// rejects a key smaller than the last one written.
type PartWriter struct {
	path     string
	pf       source.ParquetFile
	pw       *writer.ParquetWriter
	lastKey  uint64
	haveKey  bool
	keys     []uint64
	rowCount int64
}

// newPartWriter opens path for writing, using rowSchema (a pointer to one
// of the *Row structs in schema.go) to derive the physical Parquet
// schema, with dictionary+zstd compression on path columns (spec §6.3:
// "physical uses dictionary + zstd").
func newPartWriter(path string, rowSchema interface{}) (*PartWriter, error) {
	pf, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("column: open %s for write: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(pf, rowSchema, 4)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("column: new parquet writer for %s: %w", path, err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	return &PartWriter{path: path, pf: pf, pw: pw}, nil
}

// WriteRow appends row (a value of the same type passed to newPartWriter)
// whose primary key is key. Keys must be non-decreasing across the whole
// file.
func (w *PartWriter) WriteRow(row interface{}, key uint64) error {
	if w.haveKey && key < w.lastKey {
		return fmt.Errorf("column: part writer for %s requires non-decreasing keys, got %d after %d", w.path, key, w.lastKey)
	}
	if err := w.pw.Write(row); err != nil {
		return fmt.Errorf("column: write row to %s: %w", w.path, err)
	}
	if !w.haveKey || key != w.lastKey {
		w.keys = append(w.keys, key)
	}
	w.lastKey = key
	w.haveKey = true
	w.rowCount++
	return nil
}

// RowCount returns the number of rows written so far.
func (w *PartWriter) RowCount() int64 { return w.rowCount }

// Close flushes the Parquet footer, closes the file, builds the
// Elias-Fano index over the distinct keys written, and writes it to the
// matching `.ef` sidecar path.
func (w *PartWriter) Close() error {
	if err := w.pw.WriteStop(); err != nil {
		_ = w.pf.Close()
		return fmt.Errorf("column: finalize %s: %w", w.path, err)
	}
	if err := w.pf.Close(); err != nil {
		return fmt.Errorf("column: close %s: %w", w.path, err)
	}

	idx, err := ef.Build(w.keys)
	if err != nil {
		return fmt.Errorf("column: build elias-fano sidecar for %s: %w", w.path, err)
	}
	data, err := idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("column: marshal elias-fano sidecar for %s: %w", w.path, err)
	}
	if err := os.WriteFile(sidecarPath(w.path), data, 0o644); err != nil {
		return fmt.Errorf("column: write elias-fano sidecar for %s: %w", w.path, err)
	}
	return nil
}

// sidecarPath derives a part's `.ef` sidecar path from its `.parquet` path.
func sidecarPath(partPath string) string {
	if strings.HasSuffix(partPath, ".parquet") {
		return strings.TrimSuffix(partPath, ".parquet") + ".ef"
	}
	return partPath + ".ef"
}

// NewNodesPartWriter opens a new nodes part file for writing.
func NewNodesPartWriter(path string) (*PartWriter, error) {
	return newPartWriter(path, new(NodeRow))
}

// NewFDIRPartWriter opens a new FDIR part file for writing.
func NewFDIRPartWriter(path string) (*PartWriter, error) {
	return newPartWriter(path, new(FrontierDirRow))
}

// NewCFDPartWriter opens a new CFD part file for writing.
func NewCFDPartWriter(path string) (*PartWriter, error) {
	return newPartWriter(path, new(ContentInFrontierRow))
}

// NewCRNFPartWriter opens a new CRNF part file for writing.
func NewCRNFPartWriter(path string) (*PartWriter, error) {
	return newPartWriter(path, new(ContentInRevisionRow))
}
