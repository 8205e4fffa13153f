package column

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/softwareheritage/swh-provenance/internal/metrics"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// Table is a directory of row-sorted part files implementing the
// parallel point-lookup helper spec §4.3 requires: for a set of keys,
// consult each file's Elias-Fano sidecar, then row-group statistics, then
// decode only the row groups that survive both filters, with
// work-stealing across files via golang.org/x/sync/errgroup (spec §5
// "query engine... dispatched to a shared work-stealing executor").
type Table struct {
	Dir       string
	partPaths []string
	caches    *Caches
}

// OpenTable lists dir for `part-*.parquet` files (sorted, matching the
// builder's naming convention) and readies it for point lookups. The
// table must have a `_SUCCESS` marker (internal/tableset's job to check
// before handing the directory to a reader).
func OpenTable(dir string, caches *Caches) (*Table, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "part-*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("column: list parts in %s: %w", dir, err)
	}
	sort.Strings(matches)
	return &Table{Dir: dir, partPaths: matches, caches: caches}, nil
}

// PointQuery performs the 4-step protocol of spec §4.3 ("Point-query
// protocol (per file)") for key across every part file in the table,
// work-stealing across files, and returns the decoded rows matching key
// from every candidate file/row-group. open constructs a fresh
// *PartReader for a path (e.g. OpenNodesPartReader); readRowGroup decodes
// one row group into a []T; keyOf extracts the primary key from a T.
func PointQuery[T any](
	ctx context.Context,
	t *Table,
	key uint64,
	open func(string) (*PartReader, error),
	readRowGroup func(*PartReader, int) ([]T, error),
	keyOf func(T) uint64,
) ([]T, error) {
	metrics.PointsLookedUp(ctx, 1)

	var (
		mu      sync.Mutex
		results []T
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range t.partPaths {
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rows, err := pointQueryFile(gctx, t, path, key, open, readRowGroup, keyOf)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			mu.Lock()
			results = append(results, rows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// pointQueryFile applies the 4-step point-query protocol to a single part
// file. It is a free function (not a method) because Go methods cannot
// carry their own type parameters.
func pointQueryFile[T any](
	ctx context.Context,
	t *Table,
	path string,
	key uint64,
	open func(string) (*PartReader, error),
	readRowGroup func(*PartReader, int) ([]T, error),
	keyOf func(T) uint64,
) ([]T, error) {
	if isQuarantined(path) {
		return nil, nil
	}

	part, cached, err := t.caches.GetReader(path, open)
	if err != nil {
		if errors.Is(err, types.ErrCorruption) {
			quarantine(path)
		}
		return nil, err
	}
	if cached {
		metrics.CacheHit(ctx, "footer")
	} else {
		metrics.CacheMiss(ctx, "footer")
	}

	if !part.ContainsKey(key) {
		metrics.FilePrunedByEF(ctx)
		return nil, nil
	}

	candidates := part.CandidateRowGroups(key)
	metrics.RowGroupsSkipped(ctx, int64(part.RowGroupCount()-len(candidates)))

	var matches []T
	for _, rgIdx := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageAny, cached, err := t.caches.GetPage(path, rgIdx, func() (any, error) {
			return readRowGroup(part, rgIdx)
		})
		if err != nil {
			return nil, err
		}
		if cached {
			metrics.CacheHit(ctx, "page")
		} else {
			metrics.CacheMiss(ctx, "page")
		}
		rows := pageAny.([]T)
		for _, row := range rows {
			if keyOf(row) == key {
				matches = append(matches, row)
			}
		}
	}
	return matches, nil
}
