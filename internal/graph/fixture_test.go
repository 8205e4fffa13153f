package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

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

func TestFixtureResolvesSWHIDsBothWays(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	contentID := mustSWHID(t, types.KindContent, 0x01)
	node := f.AddContent(contentID)

	gotNode, err := f.ResolveSWHID(ctx, contentID)
	require.NoError(t, err)
	require.Equal(t, node, gotNode)

	gotID, err := f.ResolveNodeID(ctx, node)
	require.NoError(t, err)
	require.Equal(t, contentID, gotID)

	_, err = f.ResolveSWHID(ctx, mustSWHID(t, types.KindContent, 0xFF))
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestFixtureDirectoryTopologicalOrder(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	leaf := f.AddContent(mustSWHID(t, types.KindContent, 0x01))
	childDir := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x02), []DirEntry{
		{Name: []byte("a.c"), Target: leaf, Kind: types.KindContent},
	})
	rootDir := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x03), []DirEntry{
		{Name: []byte("lib"), Target: childDir, Kind: types.KindDirectory},
	})

	order, err := f.AllDirectoriesReverseTopological(ctx)
	require.NoError(t, err)
	require.Equal(t, []types.NodeID{childDir, rootDir}, order)

	entries, err := f.DirectoryEntries(ctx, rootDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, childDir, entries[0].Target)
}

func TestFixtureRevisionsAndOrigins(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	root := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x04), nil)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	withDate := f.AddRevision(mustSWHID(t, types.KindRevision, 0x05), root, now, true)
	withoutDate := f.AddRevision(mustSWHID(t, types.KindRevision, 0x06), root, time.Time{}, false)

	f.AddSnapshot("https://example.org/repo.git", withDate)

	date, ok, err := f.CommitterDate(ctx, withDate)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, now.Equal(date))

	_, ok, err = f.CommitterDate(ctx, withoutDate)
	require.NoError(t, err)
	require.False(t, ok)

	url, ok, err := f.OriginForRevision(ctx, withDate)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "https://example.org/repo.git", url)

	_, ok, err = f.OriginForRevision(ctx, withoutDate)
	require.NoError(t, err)
	require.False(t, ok)

	revs, err := f.AllRevisions(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []types.NodeID{withDate, withoutDate}, revs)
}

var _ Client = (*Fixture)(nil)
