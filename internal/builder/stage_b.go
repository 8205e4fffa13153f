package builder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/metrics"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// MaxLeafTimestamps is the result of Stage B (spec §4.1
// "list-directory-with-max-leaf-timestamp"): for every directory node-id,
// the maximum earliest-content-timestamp reachable anywhere in its
// subtree.
type MaxLeafTimestamps struct {
	arr []int64
}

// Get returns dir's max-leaf timestamp, if its subtree contains at least
// one dated content.
func (m *MaxLeafTimestamps) Get(dir types.NodeID) (unixNano int64, ok bool) {
	return get(m.arr, uint64(dir))
}

// ComputeMaxLeafTimestamps aggregates earliest over each directory's
// subtree, processing directories in the reverse topological order the
// graph collaborator provides (children before parents) so that a
// directory's own max-leaf value is only ever computed after every
// subdirectory it references has already been finalized. Work-stealing is
// bounded by a per-directory completion signal so two directories with no
// ancestor relationship can run concurrently while a parent still waits
// on its children.
func ComputeMaxLeafTimestamps(ctx context.Context, client graph.Client, earliest *EarliestTimestamps, workers int) (*MaxLeafTimestamps, error) {
	nodeCount, err := client.NodeCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder: stage b: node count: %w", err)
	}
	result := &MaxLeafTimestamps{arr: newUnsetArray(nodeCount)}

	dirs, err := client.AllDirectoriesReverseTopological(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder: stage b: list directories: %w", err)
	}

	indexOf := make(map[types.NodeID]int, len(dirs))
	done := make([]chan struct{}, len(dirs))
	for i, d := range dirs {
		indexOf[d] = i
		done[i] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, d := range dirs {
		i, d := i, d
		g.Go(func() error {
			defer close(done[i])
			return computeMaxLeafForDir(gctx, client, d, indexOf, done, earliest.arr, result.arr)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.BuilderStageItems(ctx, "directory-max-leaf-timestamps", int64(len(dirs)))
	return result, nil
}

func computeMaxLeafForDir(
	ctx context.Context,
	client graph.Client,
	dir types.NodeID,
	indexOf map[types.NodeID]int,
	done []chan struct{},
	earliest []int64,
	maxLeaf []int64,
) error {
	entries, err := client.DirectoryEntries(ctx, dir)
	if err != nil {
		return fmt.Errorf("builder: stage b: entries of %d: %w", dir, err)
	}

	for _, e := range entries {
		switch e.Kind {
		case types.KindContent:
			if v, ok := get(earliest, uint64(e.Target)); ok {
				atomicMax(maxLeaf, uint64(dir), v)
			}
		case types.KindDirectory:
			childIdx, ok := indexOf[e.Target]
			if !ok {
				continue
			}
			select {
			case <-done[childIdx]:
			case <-ctx.Done():
				return ctx.Err()
			}
			if v, ok := get(maxLeaf, uint64(e.Target)); ok {
				atomicMax(maxLeaf, uint64(dir), v)
			}
		}
	}
	return nil
}
