package provenance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/softwareheritage/swh-provenance/internal/builder"
	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/tableset"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

func mustSWHID(t *testing.T, kind types.NodeKind, fill byte) types.SWHID {
	t.Helper()
	var hash [20]byte
	for i := range hash {
		hash[i] = fill
	}
	return types.SWHID{Kind: kind, Version: 1, Hash: hash}
}

// buildEngine constructs a small graph (one content reachable directly
// from a revision, no frontiers involved) and runs the full builder
// pipeline against a temp table-set root, then opens an Engine over it.
func buildEngine(t *testing.T) (*Engine, *graph.Fixture, types.SWHID) {
	t.Helper()
	ctx := context.Background()
	f := graph.NewFixture()

	contentID := mustSWHID(t, types.KindContent, 0x01)
	content := f.AddContent(contentID)

	root := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x02), []graph.DirEntry{
		{Name: []byte("main.go"), Target: content, Kind: types.KindContent},
	})
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rev := f.AddRevision(mustSWHID(t, types.KindRevision, 0x03), root, date, true)
	f.AddSnapshot("https://example.org/repo.git", rev)

	tsRoot := t.TempDir()
	_, err := builder.Run(ctx, f, tsRoot, builder.Options{Workers: 2})
	require.NoError(t, err)

	set, err := tableset.Open(tsRoot, time.Hour, 8, 8)
	require.NoError(t, err)

	return NewEngine(set, f), f, contentID
}

func TestWhereIsOneResolvesDirectBranch(t *testing.T) {
	ctx := context.Background()
	engine, _, contentID := buildEngine(t)

	result, err := engine.WhereIsOne(ctx, contentID, types.FullFieldMask())
	require.NoError(t, err)
	require.False(t, result.Empty())
	require.NotNil(t, result.Anchor)
	require.Equal(t, types.KindRevision, result.Anchor.Kind)
	require.NotNil(t, result.Origin)
	require.Equal(t, "https://example.org/repo.git", *result.Origin)
}

func TestWhereIsOneUnknownContentIsEmpty(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := buildEngine(t)

	unknown := mustSWHID(t, types.KindContent, 0xFF)
	result, err := engine.WhereIsOne(ctx, unknown, types.FullFieldMask())
	require.NoError(t, err)
	require.True(t, result.Empty())
}

// graphMissingContent wraps a graph.Client but reports one specific
// content SWHID, and one specific revision node-id, as unknown to the
// graph — simulating a stale/lagging graph collaborator so the
// nodes-table fallback (spec §4.2 steps 1 and 5) is what actually
// resolves the query.
type graphMissingContent struct {
	graph.Client
	missingContent  types.SWHID
	missingRevision types.NodeID
}

func (g *graphMissingContent) ResolveSWHID(ctx context.Context, id types.SWHID) (types.NodeID, error) {
	if id == g.missingContent {
		return types.NilNodeID, fmt.Errorf("%w: swhid %s", types.ErrNotFound, id)
	}
	return g.Client.ResolveSWHID(ctx, id)
}

func (g *graphMissingContent) ResolveNodeID(ctx context.Context, node types.NodeID) (types.SWHID, error) {
	if node == g.missingRevision {
		return types.SWHID{}, fmt.Errorf("%w: node %d", types.ErrNotFound, node)
	}
	return g.Client.ResolveNodeID(ctx, node)
}

func TestWhereIsOneFallsBackToNodesTableOnGraphMiss(t *testing.T) {
	ctx := context.Background()
	engine, f, contentID := buildEngine(t)

	revNode, err := f.ResolveSWHID(ctx, mustSWHID(t, types.KindRevision, 0x03))
	require.NoError(t, err)

	degraded := &graphMissingContent{Client: f, missingContent: contentID, missingRevision: revNode}
	engine = NewEngine(engine.set, degraded)

	result, err := engine.WhereIsOne(ctx, contentID, types.FullFieldMask())
	require.NoError(t, err)
	require.False(t, result.Empty(), "nodes-table fallback should still resolve a content the graph no longer knows")
	require.NotNil(t, result.Anchor)
	require.Equal(t, types.KindRevision, result.Anchor.Kind)
}

func TestWhereAreOnePreservesOrder(t *testing.T) {
	ctx := context.Background()
	engine, _, contentID := buildEngine(t)
	unknown := mustSWHID(t, types.KindContent, 0xFE)

	results, errs := engine.WhereAreOne(ctx, []types.SWHID{contentID, unknown}, types.FullFieldMask())
	require.Len(t, results, 2)
	require.Len(t, errs, 2)
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.False(t, results[0].Empty())
	require.True(t, results[1].Empty())
}
