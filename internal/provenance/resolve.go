package provenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/softwareheritage/swh-provenance/internal/column"
	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/tableset"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// resolveContent resolves a content SWHID to its node-id (spec §4.2 step
// 1): it asks the graph first and, on a miss, scans every part and row
// group of the nodes table for a matching swhid column
// (column.LookupNodeBySWHID); the table's Elias-Fano sidecars cover
// node_id only, so this fallback is not pruned. A types.ErrNotFound
// after both the graph and the nodes-table fallback means the content is
// genuinely unknown, which the caller turns into an empty
// ProvenanceResult rather than an error (spec §6.1).
func resolveContent(ctx context.Context, client graph.Client, gen *tableset.Generation, id types.SWHID) (types.NodeID, error) {
	if id.Kind != types.KindContent {
		return types.NilNodeID, fmt.Errorf("%w: where_is_one requires a cnt SWHID, got %s", types.ErrInputError, id.Kind)
	}
	var node types.NodeID
	err := withRetry(ctx, func() error {
		var resolveErr error
		node, resolveErr = client.ResolveSWHID(ctx, id)
		return resolveErr
	})
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return types.NilNodeID, err
	}

	table, tableErr := gen.Table(column.TableNodes)
	if tableErr != nil {
		return types.NilNodeID, tableErr
	}
	var row column.NodeRow
	var found bool
	swhidBinary := string(id.MarshalBinary())
	lookupErr := withRetry(ctx, func() error {
		var scanErr error
		row, found, scanErr = column.LookupNodeBySWHID(ctx, table, swhidBinary)
		return wrapStorageErr(scanErr)
	})
	if lookupErr != nil {
		return types.NilNodeID, fmt.Errorf("provenance: nodes-table fallback for %s: %w", id, lookupErr)
	}
	if !found {
		return types.NilNodeID, err
	}
	return types.NodeID(row.NodeID), nil
}
