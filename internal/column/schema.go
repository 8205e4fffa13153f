// Package column implements the physical Parquet-with-indexes reader and
// writer for the four provenance tables (spec §4.3, §6.3): nodes,
// frontier_directories_in_revisions (FDIR), contents_in_frontier_directories
// (CFD), and contents_in_revisions_without_frontiers (CRNF). Each table is
// a directory of row-sorted `part-*.parquet` files, one `part-*.ef`
// Elias-Fano sidecar per part listing its distinct primary-key values, and
// a `_SUCCESS` marker (written by internal/tableset once every part and
// sidecar for a table is in place).
//
// Grounded on the teacher's storage/dolt package for the "typed row,
// generic store" split, and on xitongsys/parquet-go's struct-tag schema
// convention for the physical layer.
package column

// NodeRow is the physical row shape of the nodes table: node-id -> SWHID.
// Primary key: node_id.
type NodeRow struct {
	NodeID uint64 `parquet:"name=node_id, type=INT64, convertedtype=UINT_64"`
	SWHID  string `parquet:"name=swhid, type=FIXED_LEN_BYTE_ARRAY, length=22"`
}

// FrontierDirRow is the physical row shape of
// frontier_directories_in_revisions. Primary key: frontier_dir.
type FrontierDirRow struct {
	FrontierDir uint64 `parquet:"name=frontier_dir, type=INT64, convertedtype=UINT_64"`
	Revision    uint64 `parquet:"name=revision, type=INT64, convertedtype=UINT_64"`
	Path        string `parquet:"name=path, type=BYTE_ARRAY, encoding=PLAIN_DICTIONARY"`
}

// ContentInFrontierRow is the physical row shape of
// contents_in_frontier_directories. Primary key: content.
type ContentInFrontierRow struct {
	Content     uint64 `parquet:"name=content, type=INT64, convertedtype=UINT_64"`
	FrontierDir uint64 `parquet:"name=frontier_dir, type=INT64, convertedtype=UINT_64"`
	Path        string `parquet:"name=path, type=BYTE_ARRAY, encoding=PLAIN_DICTIONARY"`
}

// ContentInRevisionRow is the physical row shape of
// contents_in_revisions_without_frontiers. Primary key: content.
type ContentInRevisionRow struct {
	Content  uint64 `parquet:"name=content, type=INT64, convertedtype=UINT_64"`
	Revision uint64 `parquet:"name=revision, type=INT64, convertedtype=UINT_64"`
	Path     string `parquet:"name=path, type=BYTE_ARRAY, encoding=PLAIN_DICTIONARY"`
}

// Table names, used both as the on-disk directory names and as
// cache/metric labels.
const (
	TableNodes    = "nodes"
	TableFDIR     = "frontier_directories_in_revisions"
	TableCFD      = "contents_in_frontier_directories"
	TableCRNF     = "contents_in_revisions_without_frontiers"
	successMarker = "_SUCCESS"
)
