package builder

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/metrics"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// FDIRRow is one row of frontier_directories_in_revisions before physical
// encoding: (frontier_dir, revision, path).
type FDIRRow struct {
	FrontierDir types.NodeID
	Revision    types.NodeID
	Path        types.Path
}

// CFDRow is one row of contents_in_frontier_directories before physical
// encoding: (content, frontier_dir, path).
type CFDRow struct {
	Content     types.NodeID
	FrontierDir types.NodeID
	Path        types.Path
}

// CRNFRow is one row of contents_in_revisions_without_frontiers before
// physical encoding: (content, revision, path).
type CRNFRow struct {
	Content  types.NodeID
	Revision types.NodeID
	Path     types.Path
}

// NodeEntry is one row of the nodes table: node-id -> SWHID.
type NodeEntry struct {
	NodeID types.NodeID
	SWHID  types.SWHID
}

// Relations is the full output of Stage D (spec §4.1 "Three relation
// tables"), sorted and deduplicated per spec §3 and §4.1's dedup policy,
// ready for physical encoding by internal/column.
type Relations struct {
	Nodes []NodeEntry
	FDIR  []FDIRRow
	CFD   []CFDRow
	CRNF  []CRNFRow
}

type nodeResolver struct {
	mu    sync.Mutex
	known map[types.NodeID]types.SWHID
}

func newNodeResolver() *nodeResolver {
	return &nodeResolver{known: make(map[types.NodeID]types.SWHID)}
}

func (r *nodeResolver) resolve(ctx context.Context, client graph.Client, id types.NodeID) error {
	r.mu.Lock()
	_, seen := r.known[id]
	r.mu.Unlock()
	if seen {
		return nil
	}
	swhid, err := client.ResolveNodeID(ctx, id)
	if err != nil {
		return fmt.Errorf("builder: resolve node %d: %w", id, err)
	}
	r.mu.Lock()
	r.known[id] = swhid
	r.mu.Unlock()
	return nil
}

func (r *nodeResolver) entries() []NodeEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NodeEntry, 0, len(r.known))
	for id, swhid := range r.known {
		out = append(out, NodeEntry{NodeID: id, SWHID: swhid})
	}
	return out
}

// BuildRelations walks every revision's tree once, cutting the walk at
// frontier directories (spec §4.1 Stage D), then walks every discovered
// frontier directory's subtree once to build CFD. maxLeaf must come from
// Stage B over the same snapshot.
func BuildRelations(ctx context.Context, client graph.Client, maxLeaf *MaxLeafTimestamps, workers int) (*Relations, error) {
	revisions, err := client.AllRevisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder: stage d: list revisions: %w", err)
	}

	resolver := newNodeResolver()
	var (
		mu          sync.Mutex
		fdirByKey   = make(map[fdirKey]types.Path) // (frontier_dir, revision) -> smallest path seen
		crnfSeen    = make(map[crnfKey]struct{})
		crnfRows    []CRNFRow
		frontierSet = make(map[types.NodeID]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, rev := range revisions {
		rev := rev
		g.Go(func() error {
			if err := resolver.resolve(gctx, client, rev); err != nil {
				return err
			}
			date, hasDate, err := client.CommitterDate(gctx, rev)
			if err != nil {
				return fmt.Errorf("builder: stage d: committer date for revision %d: %w", rev, err)
			}
			root, err := client.RevisionRoot(gctx, rev)
			if err != nil {
				return fmt.Errorf("builder: stage d: root of revision %d: %w", rev, err)
			}

			return walkRevisionTree(gctx, client, root, types.Path(""), func(kind visitKind, target types.NodeID, path types.Path) error {
				switch kind {
				case visitContent:
					if err := resolver.resolve(gctx, client, target); err != nil {
						return err
					}
					mu.Lock()
					key := crnfKey{content: target, revision: rev, path: string(path)}
					if _, dup := crnfSeen[key]; !dup {
						crnfSeen[key] = struct{}{}
						crnfRows = append(crnfRows, CRNFRow{Content: target, Revision: rev, Path: path})
					}
					mu.Unlock()
					return nil
				case visitFrontierDir:
					if err := resolver.resolve(gctx, client, target); err != nil {
						return err
					}
					mu.Lock()
					key := fdirKey{dir: target, revision: rev}
					if existing, ok := fdirByKey[key]; !ok || string(path) < string(existing) {
						fdirByKey[key] = path
					}
					frontierSet[target] = struct{}{}
					mu.Unlock()
					return nil
				}
				return nil
			}, func(dir types.NodeID) bool {
				return hasDate && IsFrontier(maxLeaf, dir, date.UnixNano())
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.BuilderStageItems(ctx, "relations-revisions", int64(len(revisions)))

	frontierDirs := make([]types.NodeID, 0, len(frontierSet))
	for d := range frontierSet {
		frontierDirs = append(frontierDirs, d)
	}

	var (
		cfdMu   sync.Mutex
		cfdRows []CFDRow
	)
	g2, gctx2 := errgroup.WithContext(ctx)
	if workers > 0 {
		g2.SetLimit(workers)
	}
	for _, dir := range frontierDirs {
		dir := dir
		g2.Go(func() error {
			return walkSubtreeForCFD(gctx2, client, dir, types.Path(""), func(content types.NodeID, path types.Path) error {
				if err := resolver.resolve(gctx2, client, content); err != nil {
					return err
				}
				cfdMu.Lock()
				cfdRows = append(cfdRows, CFDRow{Content: content, FrontierDir: dir, Path: path})
				cfdMu.Unlock()
				return nil
			})
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}
	metrics.BuilderStageItems(ctx, "relations-frontier-dirs", int64(len(frontierDirs)))

	fdirRows := make([]FDIRRow, 0, len(fdirByKey))
	for key, path := range fdirByKey {
		fdirRows = append(fdirRows, FDIRRow{FrontierDir: key.dir, Revision: key.revision, Path: path})
	}

	sort.Slice(fdirRows, func(i, j int) bool {
		if fdirRows[i].FrontierDir != fdirRows[j].FrontierDir {
			return fdirRows[i].FrontierDir < fdirRows[j].FrontierDir
		}
		return fdirRows[i].Revision < fdirRows[j].Revision
	})
	sort.Slice(cfdRows, func(i, j int) bool {
		if cfdRows[i].Content != cfdRows[j].Content {
			return cfdRows[i].Content < cfdRows[j].Content
		}
		return string(cfdRows[i].Path) < string(cfdRows[j].Path)
	})
	sort.Slice(crnfRows, func(i, j int) bool {
		if crnfRows[i].Content != crnfRows[j].Content {
			return crnfRows[i].Content < crnfRows[j].Content
		}
		return crnfRows[i].Revision < crnfRows[j].Revision
	})

	nodes := resolver.entries()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].NodeID < nodes[j].NodeID })

	return &Relations{Nodes: nodes, FDIR: fdirRows, CFD: cfdRows, CRNF: crnfRows}, nil
}

type fdirKey struct {
	dir      types.NodeID
	revision types.NodeID
}

type crnfKey struct {
	content  types.NodeID
	revision types.NodeID
	path     string
}

type visitKind int

const (
	visitContent visitKind = iota
	visitFrontierDir
)

// walkRevisionTree walks node's tree root-down, calling isFrontier(d) on
// every directory reached — including node itself on the initial call —
// to decide whether to cut the walk there (emitting visitFrontierDir and
// not descending) or continue into it. Spec §4.1 Stage C's "maximal" rule
// cuts at the first directory on a root-to-leaf path that satisfies the
// frontier predicate, the revision's own root directory included; a
// revision whose root is itself a frontier yields a single FDIR row with
// an empty path. Every content leaf reached before any cut is reported
// via visitContent.
func walkRevisionTree(
	ctx context.Context,
	client graph.Client,
	node types.NodeID,
	prefix types.Path,
	visit func(kind visitKind, target types.NodeID, path types.Path) error,
	isFrontier func(types.NodeID) bool,
) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if isFrontier(node) {
		return visit(visitFrontierDir, node, prefix)
	}
	entries, err := client.DirectoryEntries(ctx, node)
	if err != nil {
		return fmt.Errorf("builder: directory entries for %d: %w", node, err)
	}
	for _, e := range entries {
		childPath := types.JoinPaths(prefix, types.Path(e.Name))
		switch e.Kind {
		case types.KindContent:
			if err := visit(visitContent, e.Target, childPath); err != nil {
				return err
			}
		case types.KindDirectory:
			if err := walkRevisionTree(ctx, client, e.Target, childPath, visit, isFrontier); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkSubtreeForCFD walks dir's full subtree unconditionally (it never
// cuts at nested frontier directories: CFD must enumerate every content
// physically inside a frontier directory, independent of any revision's
// own frontier decisions).
func walkSubtreeForCFD(ctx context.Context, client graph.Client, dir types.NodeID, prefix types.Path, visit func(content types.NodeID, path types.Path) error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	entries, err := client.DirectoryEntries(ctx, dir)
	if err != nil {
		return fmt.Errorf("builder: directory entries for %d: %w", dir, err)
	}
	for _, e := range entries {
		childPath := types.JoinPaths(prefix, types.Path(e.Name))
		switch e.Kind {
		case types.KindContent:
			if err := visit(e.Target, childPath); err != nil {
				return err
			}
		case types.KindDirectory:
			if err := walkSubtreeForCFD(ctx, client, e.Target, childPath, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
