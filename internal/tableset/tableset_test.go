package tableset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/softwareheritage/swh-provenance/internal/column"
)

func buildMinimalGeneration(t *testing.T, root, id string) string {
	t.Helper()
	staging := StagingDirName(root, id)
	for _, name := range TableNames {
		require.NoError(t, os.MkdirAll(filepath.Join(staging, name), 0o755))
	}

	nodesDir := filepath.Join(staging, column.TableNodes)
	require.NoError(t, writeOneNodesPart(nodesDir))

	for _, name := range []string{column.TableFDIR, column.TableCFD, column.TableCRNF} {
		require.NoError(t, writeEmptyTable(filepath.Join(staging, name), name))
	}

	finalDir, err := PromoteGeneration(root, staging, id)
	require.NoError(t, err)
	return finalDir
}

func writeOneNodesPart(dir string) error {
	w, err := column.NewNodesPartWriter(filepath.Join(dir, "part-00000.parquet"))
	if err != nil {
		return err
	}
	if err := w.WriteRow(column.NodeRow{NodeID: 1, SWHID: "0123456789012345678901"}, 1); err != nil {
		return err
	}
	return w.Close()
}

func writeEmptyTable(dir, table string) error {
	switch table {
	case column.TableFDIR:
		w, err := column.NewFDIRPartWriter(filepath.Join(dir, "part-00000.parquet"))
		if err != nil {
			return err
		}
		return w.Close()
	case column.TableCFD:
		w, err := column.NewCFDPartWriter(filepath.Join(dir, "part-00000.parquet"))
		if err != nil {
			return err
		}
		return w.Close()
	default:
		w, err := column.NewCRNFPartWriter(filepath.Join(dir, "part-00000.parquet"))
		if err != nil {
			return err
		}
		return w.Close()
	}
}

func TestPromoteAndOpenGeneration(t *testing.T) {
	root := t.TempDir()
	id := NewGenerationID(time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC))
	buildMinimalGeneration(t, root, id)

	s, err := Open(root, time.Minute, 8, 64)
	require.NoError(t, err)
	require.NotNil(t, s.Current())
	require.Equal(t, id, s.Current().ID)

	table, err := s.Current().Table(column.TableNodes)
	require.NoError(t, err)
	rows, err := column.LookupNode(context.Background(), table, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRefreshSwapsAndRetiresGeneration(t *testing.T) {
	root := t.TempDir()
	firstID := NewGenerationID(time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC))
	buildMinimalGeneration(t, root, firstID)

	s, err := Open(root, 10*time.Millisecond, 8, 64)
	require.NoError(t, err)
	require.Equal(t, firstID, s.Current().ID)

	secondID := NewGenerationID(time.Date(2026, 1, 14, 13, 0, 0, 0, time.UTC))
	buildMinimalGeneration(t, root, secondID)

	require.NoError(t, s.Refresh())
	require.Equal(t, secondID, s.Current().ID)

	s.retiredMu.Lock()
	_, retired := s.retired[firstID]
	s.retiredMu.Unlock()
	require.True(t, retired)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.CollectGarbage(context.Background()))

	s.retiredMu.Lock()
	_, stillRetired := s.retired[firstID]
	s.retiredMu.Unlock()
	require.False(t, stillRetired)
}
