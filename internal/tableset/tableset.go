// Package tableset manages the on-disk generations of the four
// provenance tables (spec §6.3): atomic promotion of a freshly built
// generation (temp-dir-then-rename plus a `_SUCCESS` marker, the same
// atomic-replace idiom internal/export/manifest.go uses for manifest
// files), and garbage collection of superseded generations once a grace
// period has passed since they were retired; whether an in-flight query
// still uses a retired generation is not tracked.
package tableset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/softwareheritage/swh-provenance/internal/column"
)

const successMarker = "_SUCCESS"

// TableNames lists the four provenance table directories a generation
// must contain, in builder dependency order.
var TableNames = []string{
	column.TableNodes,
	column.TableFDIR,
	column.TableCFD,
	column.TableCRNF,
}

// Generation is one complete, promoted table set: a directory containing
// the four table subdirectories, each already carrying its `_SUCCESS`
// marker.
type Generation struct {
	ID  string // lexicographically sortable, e.g. "20260114T120000Z"
	Dir string

	mu     sync.Mutex
	tables map[string]*column.Table
	caches *column.Caches
}

// openGeneration opens every table directory under dir with shared
// caches, failing if any table is missing its `_SUCCESS` marker.
func openGeneration(id, dir string, caches *column.Caches) (*Generation, error) {
	tables := make(map[string]*column.Table, len(TableNames))
	for _, name := range TableNames {
		tableDir := filepath.Join(dir, name)
		if _, err := os.Stat(filepath.Join(tableDir, successMarker)); err != nil {
			return nil, fmt.Errorf("tableset: generation %s missing %s: %w", id, filepath.Join(name, successMarker), err)
		}
		table, err := column.OpenTable(tableDir, caches)
		if err != nil {
			return nil, fmt.Errorf("tableset: open table %s in generation %s: %w", name, id, err)
		}
		tables[name] = table
	}
	return &Generation{ID: id, Dir: dir, tables: tables, caches: caches}, nil
}

// Table returns the opened Table for the given table name (one of the
// column.Table* constants).
func (g *Generation) Table(name string) (*column.Table, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	if !ok {
		return nil, fmt.Errorf("tableset: unknown table %q", name)
	}
	return t, nil
}

// PromoteGeneration finishes building a generation written to stagingDir
// (any temp name under root) by writing `_SUCCESS` markers for every
// table that doesn't already have one, then renaming stagingDir into
// place under root/<id>. The rename is atomic within a filesystem, the
// same temp-then-rename idiom internal/export/manifest.go uses for
// individual files, generalized here to a whole directory tree.
func PromoteGeneration(root, stagingDir, id string) (string, error) {
	for _, name := range TableNames {
		markerPath := filepath.Join(stagingDir, name, successMarker)
		if _, err := os.Stat(markerPath); err == nil {
			continue
		}
		if err := os.WriteFile(markerPath, []byte{}, 0o644); err != nil {
			return "", fmt.Errorf("tableset: write %s: %w", markerPath, err)
		}
	}

	finalDir := filepath.Join(root, id)
	if err := os.Rename(stagingDir, finalDir); err != nil {
		return "", fmt.Errorf("tableset: promote %s to %s: %w", stagingDir, finalDir, err)
	}
	return finalDir, nil
}

// ListGenerationIDs returns the generation IDs present under root, sorted
// ascending (root/<id> directories that do not look like staging
// directories, i.e. do not contain a dot).
func ListGenerationIDs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tableset: list %s: %w", root, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() || strings.Contains(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// NewGenerationID derives a lexicographically sortable generation ID from
// a timestamp, so ListGenerationIDs's sort order is also chronological
// order.
func NewGenerationID(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// StagingDirName returns a temp-directory name under root for a
// not-yet-promoted generation build.
func StagingDirName(root, id string) string {
	return filepath.Join(root, ".staging-"+id+"-"+strconv.FormatInt(time.Now().UnixNano(), 36))
}
