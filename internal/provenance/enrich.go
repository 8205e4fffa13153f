package provenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/softwareheritage/swh-provenance/internal/column"
	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/tableset"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// enrich resolves each candidate tuple's revision SWHID, committer date,
// and origin URL (spec §4.2 steps 2-5), the information the tie-break
// sort and the public result need but the relation tables don't carry.
// Revision SWHID resolution follows step 5's graph-then-nodes-table
// fallback the same way resolveContent does for step 1.
func enrich(ctx context.Context, client graph.Client, gen *tableset.Generation, tuples []types.ProvenanceTuple) ([]types.EnrichedTuple, error) {
	out := make([]types.EnrichedTuple, 0, len(tuples))
	for _, t := range tuples {
		swhid, err := resolveRevisionSWHID(ctx, client, gen, t.Revision)
		if err != nil {
			return nil, fmt.Errorf("provenance: enrich: resolve revision %d: %w", t.Revision, err)
		}

		var (
			committerDate time.Time
			hasDate       bool
		)
		err = withRetry(ctx, func() error {
			var dateErr error
			committerDate, hasDate, dateErr = client.CommitterDate(ctx, t.Revision)
			return dateErr
		})
		if err != nil {
			return nil, fmt.Errorf("provenance: enrich: committer date for revision %d: %w", t.Revision, err)
		}

		var (
			origin    string
			hasOrigin bool
		)
		err = withRetry(ctx, func() error {
			var originErr error
			origin, hasOrigin, originErr = client.OriginForRevision(ctx, t.Revision)
			return originErr
		})
		if err != nil {
			return nil, fmt.Errorf("provenance: enrich: origin for revision %d: %w", t.Revision, err)
		}

		out = append(out, types.EnrichedTuple{
			Revision:      t.Revision,
			RevisionSWHID: swhid,
			Path:          t.Path,
			CommitterDate: committerDate,
			HasDate:       hasDate,
			Origin:        origin,
			HasOrigin:     hasOrigin,
		})
	}
	return out, nil
}

// resolveRevisionSWHID resolves a revision node-id to its SWHID (spec
// §4.2 step 5: "resolve revision node-id -> SWHID via graph (or nodes
// fallback)"), falling back to a direct, Elias-Fano-pruned nodes-table
// point query by node_id when the graph collaborator misses.
func resolveRevisionSWHID(ctx context.Context, client graph.Client, gen *tableset.Generation, revision types.NodeID) (types.SWHID, error) {
	var swhid types.SWHID
	err := withRetry(ctx, func() error {
		var resolveErr error
		swhid, resolveErr = client.ResolveNodeID(ctx, revision)
		return resolveErr
	})
	if err == nil {
		return swhid, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return types.SWHID{}, err
	}

	table, tableErr := gen.Table(column.TableNodes)
	if tableErr != nil {
		return types.SWHID{}, tableErr
	}
	var rows []column.NodeRow
	lookupErr := withRetry(ctx, func() error {
		var scanErr error
		rows, scanErr = column.LookupNode(ctx, table, uint64(revision))
		return wrapStorageErr(scanErr)
	})
	if lookupErr != nil {
		return types.SWHID{}, fmt.Errorf("provenance: nodes-table fallback for revision %d: %w", revision, lookupErr)
	}
	if len(rows) == 0 {
		return types.SWHID{}, err
	}
	return types.UnmarshalSWHID([]byte(rows[0].SWHID))
}
