package builder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/softwareheritage/swh-provenance/internal/graph"
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

// buildFixture constructs:
//
//	root/
//	  old.c            (content, earliest day 1)
//	  frontier/        (directory, contains only old.c-dated content)
//	    a.c            (content, earliest day 1)
//	    b.c            (content, earliest day 1)
//	  new.c            (content, only in revision 1's root, first seen day 3)
//	  fresh.c          (content, first seen on revision 2, day 5)
//
// revision1 (day 3) sees frontier/ as a frontier directory (its subtree
// only contains content already known as of day 1) and old.c directly via
// CRNF (it is not under frontier/). Its root is not itself a frontier
// because new.c makes the root's max_leaf day 3, not strictly older.
// revision2 (day 5, later) sees fresh.c, which has no earlier sighting,
// so it is never part of any frontier subtree.
func buildFixture(t *testing.T) (*graph.Fixture, types.NodeID, types.NodeID, types.NodeID, types.NodeID) {
	t.Helper()
	f := graph.NewFixture()

	oldC := f.AddContent(mustSWHID(t, types.KindContent, 0x01))
	aC := f.AddContent(mustSWHID(t, types.KindContent, 0x02))
	bC := f.AddContent(mustSWHID(t, types.KindContent, 0x03))
	freshC := f.AddContent(mustSWHID(t, types.KindContent, 0x04))
	newC := f.AddContent(mustSWHID(t, types.KindContent, 0x05))

	frontierDir := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x10), []graph.DirEntry{
		{Name: []byte("a.c"), Target: aC, Kind: types.KindContent},
		{Name: []byte("b.c"), Target: bC, Kind: types.KindContent},
	})

	day1Root := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x11), []graph.DirEntry{
		{Name: []byte("old.c"), Target: oldC, Kind: types.KindContent},
		{Name: []byte("frontier"), Target: frontierDir, Kind: types.KindDirectory},
	})

	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rev0 := f.AddRevision(mustSWHID(t, types.KindRevision, 0x20), day1Root, day1, true)

	day3Root := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x12), []graph.DirEntry{
		{Name: []byte("old.c"), Target: oldC, Kind: types.KindContent},
		{Name: []byte("frontier"), Target: frontierDir, Kind: types.KindDirectory},
		{Name: []byte("new.c"), Target: newC, Kind: types.KindContent},
	})
	day3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	rev1 := f.AddRevision(mustSWHID(t, types.KindRevision, 0x21), day3Root, day3, true)

	day5Root := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x13), []graph.DirEntry{
		{Name: []byte("old.c"), Target: oldC, Kind: types.KindContent},
		{Name: []byte("frontier"), Target: frontierDir, Kind: types.KindDirectory},
		{Name: []byte("fresh.c"), Target: freshC, Kind: types.KindContent},
	})
	day5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	rev2 := f.AddRevision(mustSWHID(t, types.KindRevision, 0x22), day5Root, day5, true)

	_ = rev0
	return f, rev1, rev2, frontierDir, oldC
}

func TestFourStagePipelineProducesFrontierAndCRNF(t *testing.T) {
	ctx := context.Background()
	f, rev1, rev2, frontierDir, oldC := buildFixture(t)

	earliest, err := ComputeEarliestTimestamps(ctx, f, 4)
	require.NoError(t, err)

	maxLeaf, err := ComputeMaxLeafTimestamps(ctx, f, earliest, 4)
	require.NoError(t, err)

	leafVal, ok := maxLeaf.Get(frontierDir)
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano(), leafVal)

	rels, err := BuildRelations(ctx, f, maxLeaf, 4)
	require.NoError(t, err)

	// rev1 (day 3): frontierDir's max_leaf (day1) < day3, so it cuts the
	// walk there. old.c is not under frontier/, so it still goes to CRNF.
	foundFDIRForRev1 := false
	for _, row := range rels.FDIR {
		if row.Revision == rev1 {
			require.Equal(t, frontierDir, row.FrontierDir)
			foundFDIRForRev1 = true
		}
	}
	require.True(t, foundFDIRForRev1, "expected an FDIR row cutting frontier/ for rev1")

	foundOldCForRev1 := false
	for _, row := range rels.CRNF {
		if row.Revision == rev1 && row.Content == oldC {
			foundOldCForRev1 = true
		}
	}
	require.True(t, foundOldCForRev1, "expected old.c via CRNF for rev1")

	// rev2 (day 5) also cuts at frontier/ (day1 < day5) and sees fresh.c
	// directly since fresh.c has no earlier sighting anywhere.
	foundFDIRForRev2 := false
	for _, row := range rels.FDIR {
		if row.Revision == rev2 {
			foundFDIRForRev2 = true
		}
	}
	require.True(t, foundFDIRForRev2)

	// CFD must enumerate both contents physically inside frontierDir.
	require.Len(t, rels.CFD, 2)
	for _, row := range rels.CFD {
		require.Equal(t, frontierDir, row.FrontierDir)
	}

	// nodes table must resolve every touched node-id back to a SWHID.
	require.NotEmpty(t, rels.Nodes)
	seen := make(map[types.NodeID]types.SWHID)
	for _, n := range rels.Nodes {
		seen[n.NodeID] = n.SWHID
	}
	_, ok = seen[oldC]
	require.True(t, ok)
	_, ok = seen[frontierDir]
	require.True(t, ok)
}

// TestBuildRelationsCutsAtRootDirectory reproduces spec §8 scenario 1: R1
// at t=10 sees root D containing lib/a.c; R2 at t=20 sees the same root D
// unchanged. max_leaf(D)=10 < 20, so D itself — not some directory nested
// under it — is the frontier for R2, and FDIR must carry (D,R2,"") with
// CFD carrying (a.c's content,D,"lib/a.c").
func TestBuildRelationsCutsAtRootDirectory(t *testing.T) {
	ctx := context.Background()
	f := graph.NewFixture()

	aC := f.AddContent(mustSWHID(t, types.KindContent, 0x31))
	libDir := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x32), []graph.DirEntry{
		{Name: []byte("a.c"), Target: aC, Kind: types.KindContent},
	})
	rootD := f.AddDirectory(mustSWHID(t, types.KindDirectory, 0x33), []graph.DirEntry{
		{Name: []byte("lib"), Target: libDir, Kind: types.KindDirectory},
	})

	t10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	t20 := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	rev1 := f.AddRevision(mustSWHID(t, types.KindRevision, 0x34), rootD, t10, true)
	rev2 := f.AddRevision(mustSWHID(t, types.KindRevision, 0x35), rootD, t20, true)
	_ = rev1

	earliest, err := ComputeEarliestTimestamps(ctx, f, 4)
	require.NoError(t, err)
	maxLeaf, err := ComputeMaxLeafTimestamps(ctx, f, earliest, 4)
	require.NoError(t, err)

	rels, err := BuildRelations(ctx, f, maxLeaf, 4)
	require.NoError(t, err)

	var fdirForRev2 []FDIRRow
	for _, row := range rels.FDIR {
		if row.Revision == rev2 {
			fdirForRev2 = append(fdirForRev2, row)
		}
	}
	require.Len(t, fdirForRev2, 1, "root directory must be its own frontier for rev2")
	require.Equal(t, rootD, fdirForRev2[0].FrontierDir)
	require.Equal(t, types.Path(""), fdirForRev2[0].Path)

	foundCFD := false
	for _, row := range rels.CFD {
		if row.FrontierDir == rootD && row.Content == aC {
			require.Equal(t, types.Path("lib/a.c"), row.Path)
			foundCFD = true
		}
	}
	require.True(t, foundCFD, "expected a.c reachable from the root frontier via CFD with its full relative path")

	for _, row := range rels.CRNF {
		require.NotEqual(t, rev2, row.Revision, "rev2 has no CRNF rows: its whole tree is cut at the root frontier")
	}
}

func TestIsFrontierRequiresDatedMaxLeaf(t *testing.T) {
	m := &MaxLeafTimestamps{arr: newUnsetArray(4)}
	require.False(t, IsFrontier(m, types.NodeID(0), time.Now().UnixNano()))

	atomicMax(m.arr, 1, 100)
	require.True(t, IsFrontier(m, types.NodeID(1), 200))
	require.False(t, IsFrontier(m, types.NodeID(1), 50))
}
