package column

import (
	"context"
	"errors"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

// LookupNode point-queries a nodes table by node_id.
func LookupNode(ctx context.Context, t *Table, nodeID uint64) ([]NodeRow, error) {
	return PointQuery(ctx, t, nodeID, OpenNodesPartReader,
		func(p *PartReader, rg int) ([]NodeRow, error) {
			var rows []NodeRow
			if err := p.ReadRowGroup(rg, &rows); err != nil {
				return nil, err
			}
			return rows, nil
		},
		func(r NodeRow) uint64 { return r.NodeID },
	)
}

// LookupNodeBySWHID scans the nodes table for the row whose swhid column
// matches swhidBinary (types.SWHID.MarshalBinary's output), used as the
// SWHID-to-node-id fallback of spec §4.2 step 1 when the graph
// collaborator cannot resolve a content id. The table's Elias-Fano
// sidecars and row-group statistics are built over node_id, not swhid, so
// this direction cannot reuse PointQuery's pruning and instead scans every
// part and row group directly. That cost is acceptable only because this
// path is reached solely on a graph-side miss, never on the hot lookup
// path where the forward (node_id -> swhid) direction LookupNode serves.
func LookupNodeBySWHID(ctx context.Context, t *Table, swhidBinary string) (NodeRow, bool, error) {
	for _, path := range t.partPaths {
		if err := ctx.Err(); err != nil {
			return NodeRow{}, false, err
		}
		if isQuarantined(path) {
			continue
		}
		part, _, err := t.caches.GetReader(path, OpenNodesPartReader)
		if err != nil {
			if errors.Is(err, types.ErrCorruption) {
				quarantine(path)
			}
			return NodeRow{}, false, err
		}
		for rg := 0; rg < part.RowGroupCount(); rg++ {
			if err := ctx.Err(); err != nil {
				return NodeRow{}, false, err
			}
			var rows []NodeRow
			if err := part.ReadRowGroup(rg, &rows); err != nil {
				return NodeRow{}, false, err
			}
			for _, row := range rows {
				if row.SWHID == swhidBinary {
					return row, true, nil
				}
			}
		}
	}
	return NodeRow{}, false, nil
}

// LookupFrontierDir point-queries an FDIR table by frontier_dir.
func LookupFrontierDir(ctx context.Context, t *Table, frontierDir uint64) ([]FrontierDirRow, error) {
	return PointQuery(ctx, t, frontierDir, OpenFDIRPartReader,
		func(p *PartReader, rg int) ([]FrontierDirRow, error) {
			var rows []FrontierDirRow
			if err := p.ReadRowGroup(rg, &rows); err != nil {
				return nil, err
			}
			return rows, nil
		},
		func(r FrontierDirRow) uint64 { return r.FrontierDir },
	)
}

// LookupContentInFrontier point-queries a CFD table by content.
func LookupContentInFrontier(ctx context.Context, t *Table, content uint64) ([]ContentInFrontierRow, error) {
	return PointQuery(ctx, t, content, OpenCFDPartReader,
		func(p *PartReader, rg int) ([]ContentInFrontierRow, error) {
			var rows []ContentInFrontierRow
			if err := p.ReadRowGroup(rg, &rows); err != nil {
				return nil, err
			}
			return rows, nil
		},
		func(r ContentInFrontierRow) uint64 { return r.Content },
	)
}

// LookupContentInRevision point-queries a CRNF table by content.
func LookupContentInRevision(ctx context.Context, t *Table, content uint64) ([]ContentInRevisionRow, error) {
	return PointQuery(ctx, t, content, OpenCRNFPartReader,
		func(p *PartReader, rg int) ([]ContentInRevisionRow, error) {
			var rows []ContentInRevisionRow
			if err := p.ReadRowGroup(rg, &rows); err != nil {
				return nil, err
			}
			return rows, nil
		},
		func(r ContentInRevisionRow) uint64 { return r.Content },
	)
}
