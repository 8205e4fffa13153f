package builder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/metrics"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// EarliestTimestamps is the result of Stage A (spec §4.1
// "compute-earliest-timestamps"): for every content node-id reachable
// from any dated revision, the earliest committer_date among revisions
// whose tree contains it.
type EarliestTimestamps struct {
	arr []int64 // unixNano per content node-id; unsetTimestamp if never seen
}

// Get returns content's earliest timestamp, if any revision containing it
// had a committer date.
func (e *EarliestTimestamps) Get(content types.NodeID) (unixNano int64, ok bool) {
	return get(e.arr, uint64(content))
}

// ComputeEarliestTimestamps walks every revision's tree in parallel
// (work-stealing over AllRevisions), recording for each content the
// earliest committer_date among its containing revisions. Revisions with
// no committer date (spec §3: "may be missing") do not contribute.
func ComputeEarliestTimestamps(ctx context.Context, client graph.Client, workers int) (*EarliestTimestamps, error) {
	nodeCount, err := client.NodeCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder: stage a: node count: %w", err)
	}
	result := &EarliestTimestamps{arr: newUnsetArray(nodeCount)}

	revisions, err := client.AllRevisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder: stage a: list revisions: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, rev := range revisions {
		rev := rev
		g.Go(func() error {
			return processRevisionForEarliest(gctx, client, rev, result.arr)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.BuilderStageItems(ctx, "earliest-timestamps", int64(len(revisions)))
	return result, nil
}

func processRevisionForEarliest(ctx context.Context, client graph.Client, rev types.NodeID, earliest []int64) error {
	date, hasDate, err := client.CommitterDate(ctx, rev)
	if err != nil {
		return fmt.Errorf("builder: stage a: committer date for revision %d: %w", rev, err)
	}
	if !hasDate {
		return nil
	}
	root, err := client.RevisionRoot(ctx, rev)
	if err != nil {
		return fmt.Errorf("builder: stage a: root of revision %d: %w", rev, err)
	}
	return walkTreeContents(ctx, client, root, func(content types.NodeID) {
		atomicMin(earliest, uint64(content), date.UnixNano())
	})
}

// walkTreeContents performs a depth-first walk of every directory
// reachable from root, invoking visit for every content (leaf) node
// encountered. The graph is a DAG, so the same directory may be visited
// multiple times across different branches within one walk; that is
// expected (spec §4.1 walks the tree, not a DAG-deduplicated set).
func walkTreeContents(ctx context.Context, client graph.Client, root types.NodeID, visit func(types.NodeID)) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	entries, err := client.DirectoryEntries(ctx, root)
	if err != nil {
		return fmt.Errorf("builder: directory entries for %d: %w", root, err)
	}
	for _, e := range entries {
		switch e.Kind {
		case types.KindContent:
			visit(e.Target)
		case types.KindDirectory:
			if err := walkTreeContents(ctx, client, e.Target, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
