package provenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/softwareheritage/swh-provenance/internal/column"
	"github.com/softwareheritage/swh-provenance/internal/tableset"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// directBranch implements the CRNF branch of resolution (spec §4.2 step
// 1a): a content reachable from a revision without ever crossing a
// frontier directory has a row directly in
// contents_in_revisions_without_frontiers.
func directBranch(ctx context.Context, gen *tableset.Generation, content types.NodeID) ([]types.ProvenanceTuple, error) {
	table, err := gen.Table(column.TableCRNF)
	if err != nil {
		return nil, err
	}
	var rows []column.ContentInRevisionRow
	err = withRetry(ctx, func() error {
		var lookupErr error
		rows, lookupErr = column.LookupContentInRevision(ctx, table, uint64(content))
		return wrapStorageErr(lookupErr)
	})
	if err != nil {
		return nil, fmt.Errorf("provenance: direct branch for content %d: %w", content, err)
	}
	out := make([]types.ProvenanceTuple, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.ProvenanceTuple{
			Revision: types.NodeID(r.Revision),
			Path:     types.Path(r.Path),
		})
	}
	return out, nil
}

// frontierBranch implements the CFD/FDIR branch of resolution (spec §4.2
// step 1b): a content inside a frontier directory is joined against every
// revision that frontier directory was cut at, with the path reconstructed
// as frontier_path/content_path_within_frontier.
func frontierBranch(ctx context.Context, gen *tableset.Generation, content types.NodeID) ([]types.ProvenanceTuple, error) {
	cfdTable, err := gen.Table(column.TableCFD)
	if err != nil {
		return nil, err
	}
	var cfdRows []column.ContentInFrontierRow
	err = withRetry(ctx, func() error {
		var lookupErr error
		cfdRows, lookupErr = column.LookupContentInFrontier(ctx, cfdTable, uint64(content))
		return wrapStorageErr(lookupErr)
	})
	if err != nil {
		return nil, fmt.Errorf("provenance: frontier branch for content %d: %w", content, err)
	}
	if len(cfdRows) == 0 {
		return nil, nil
	}

	fdirTable, err := gen.Table(column.TableFDIR)
	if err != nil {
		return nil, err
	}

	var out []types.ProvenanceTuple
	for _, cfd := range cfdRows {
		var fdirRows []column.FrontierDirRow
		err := withRetry(ctx, func() error {
			var lookupErr error
			fdirRows, lookupErr = column.LookupFrontierDir(ctx, fdirTable, cfd.FrontierDir)
			return wrapStorageErr(lookupErr)
		})
		if err != nil {
			return nil, fmt.Errorf("provenance: frontier branch for content %d, frontier dir %d: %w", content, cfd.FrontierDir, err)
		}
		for _, fdir := range fdirRows {
			fullPath := types.JoinPaths(types.Path(fdir.Path), types.Path(cfd.Path))
			out = append(out, types.ProvenanceTuple{
				Revision: types.NodeID(fdir.Revision),
				Path:     fullPath,
			})
		}
	}
	return out, nil
}

// wrapStorageErr marks a raw column-reader error as transient unless it
// already carries a more specific sentinel, matching spec §7's treatment
// of Parquet I/O failures as retryable before giving up.
func wrapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrCorruption) || errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInputError) {
		return err
	}
	return fmt.Errorf("%w: %v", types.ErrTransient, err)
}
