package graph

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

func TestDumpAndLoadRoundTripsGraphShape(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	leaf := f.AddContent(mustSWHID(t, types.KindContent, 0x01))
	oldLeaf := f.AddContent(mustSWHID(t, types.KindContent, 0x02))
	childDir := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x03), []DirEntry{
		{Name: []byte("a.c"), Target: leaf, Kind: types.KindContent},
		{Name: []byte("old.c"), Target: oldLeaf, Kind: types.KindContent},
	})
	rootDir := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x04), []DirEntry{
		{Name: []byte("lib"), Target: childDir, Kind: types.KindDirectory},
	})
	date1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	date2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rev1 := f.AddRevision(mustSWHID(t, types.KindRevision, 0x05), rootDir, date1, true)
	rev2 := f.AddRevision(mustSWHID(t, types.KindRevision, 0x06), rootDir, date2, false)
	f.AddSnapshot("https://example.org/x.git", rev1)
	f.AddSnapshot("https://example.org/y.git", rev1, rev2)

	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, f.Dump(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	for _, id := range []types.SWHID{
		mustSWHID(t, types.KindContent, 0x01),
		mustSWHID(t, types.KindContent, 0x02),
		mustSWHID(t, types.KindDirectory, 0x03),
		mustSWHID(t, types.KindDirectory, 0x04),
		mustSWHID(t, types.KindRevision, 0x05),
		mustSWHID(t, types.KindRevision, 0x06),
	} {
		_, err := loaded.ResolveSWHID(ctx, id)
		require.NoError(t, err, "expected %s to round-trip", id)
	}

	loadedRootNode, err := loaded.ResolveSWHID(ctx, mustSWHID(t, types.KindDirectory, 0x04))
	require.NoError(t, err)
	entries, err := loaded.DirectoryEntries(ctx, loadedRootNode)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "lib", string(entries[0].Name))

	loadedChildNode := entries[0].Target
	childEntries, err := loaded.DirectoryEntries(ctx, loadedChildNode)
	require.NoError(t, err)
	require.Len(t, childEntries, 2)

	loadedRev1, err := loaded.ResolveSWHID(ctx, mustSWHID(t, types.KindRevision, 0x05))
	require.NoError(t, err)
	gotRoot, err := loaded.RevisionRoot(ctx, loadedRev1)
	require.NoError(t, err)
	require.Equal(t, loadedRootNode, gotRoot)

	gotDate, hasDate, err := loaded.CommitterDate(ctx, loadedRev1)
	require.NoError(t, err)
	require.True(t, hasDate)
	require.True(t, date1.Equal(gotDate))

	loadedRev2, err := loaded.ResolveSWHID(ctx, mustSWHID(t, types.KindRevision, 0x06))
	require.NoError(t, err)
	_, hasDate2, err := loaded.CommitterDate(ctx, loadedRev2)
	require.NoError(t, err)
	require.False(t, hasDate2)

	originRev1, hasOrigin, err := loaded.OriginForRevision(ctx, loadedRev1)
	require.NoError(t, err)
	require.True(t, hasOrigin)
	require.Contains(t, []string{"https://example.org/x.git", "https://example.org/y.git"}, originRev1)
}
