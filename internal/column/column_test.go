package column

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

func writeNodesPart(t *testing.T, dir string, rows []NodeRow) string {
	t.Helper()
	path := filepath.Join(dir, "part-00000.parquet")
	w, err := NewNodesPartWriter(path)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, w.WriteRow(r, r.NodeID))
	}
	require.NoError(t, w.Close())
	return path
}

func TestPartWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := []NodeRow{
		{NodeID: 1, SWHID: "0123456789012345678901"},
		{NodeID: 2, SWHID: "0123456789012345678902"},
		{NodeID: 5, SWHID: "0123456789012345678905"},
	}
	path := writeNodesPart(t, dir, rows)

	r, err := OpenNodesPartReader(path)
	require.NoError(t, err)
	defer r.Close()

	require.True(t, r.ContainsKey(1))
	require.True(t, r.ContainsKey(5))
	require.False(t, r.ContainsKey(3))
	require.Equal(t, 1, r.RowGroupCount())
}

func TestPartWriterRejectsDecreasingKeys(t *testing.T) {
	dir := t.TempDir()
	w, err := NewNodesPartWriter(filepath.Join(dir, "part-00000.parquet"))
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(NodeRow{NodeID: 5, SWHID: "0123456789012345678905"}, 5))
	err = w.WriteRow(NodeRow{NodeID: 3, SWHID: "0123456789012345678903"}, 3)
	require.Error(t, err)
}

func TestLookupNodeAcrossTable(t *testing.T) {
	dir := t.TempDir()
	writeNodesPart(t, dir, []NodeRow{
		{NodeID: 10, SWHID: "0123456789012345678910"},
		{NodeID: 20, SWHID: "0123456789012345678920"},
	})

	caches, err := NewCaches(8, 64)
	require.NoError(t, err)
	defer caches.Close()

	table, err := OpenTable(dir, caches)
	require.NoError(t, err)

	rows, err := LookupNode(context.Background(), table, 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, uint64(20), rows[0].NodeID)

	rows, err = LookupNode(context.Background(), table, 99)
	require.NoError(t, err)
	require.Empty(t, rows)
}

// TestCorruptPartIsQuarantinedAfterFirstError exercises spec §7's
// Corruption handling: a part whose Elias-Fano sidecar is truncated
// fails loudly on the first lookup, then is skipped (rather than
// reopened and re-failed) on every subsequent lookup for the rest of the
// process lifetime.
func TestCorruptPartIsQuarantinedAfterFirstError(t *testing.T) {
	dir := t.TempDir()
	path := writeNodesPart(t, dir, []NodeRow{
		{NodeID: 1, SWHID: "0123456789012345678901"},
	})
	require.NoError(t, os.WriteFile(sidecarPath(path), []byte{0x01, 0x02}, 0o644))

	caches, err := NewCaches(8, 64)
	require.NoError(t, err)
	defer caches.Close()

	table, err := OpenTable(dir, caches)
	require.NoError(t, err)

	_, err = LookupNode(context.Background(), table, 1)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrCorruption)
	require.True(t, isQuarantined(path))

	rows, err := LookupNode(context.Background(), table, 1)
	require.NoError(t, err, "a quarantined file is skipped, not re-opened and re-failed")
	require.Empty(t, rows)
}
