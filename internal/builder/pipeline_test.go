package builder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softwareheritage/swh-provenance/internal/tableset"
)

func TestRunBuildsAndPromotesGeneration(t *testing.T) {
	ctx := context.Background()
	f, _, _, _, _ := buildFixture(t)

	root := t.TempDir()
	finalDir, err := Run(ctx, f, root, Options{Workers: 2, PartRowTarget: 2})
	require.NoError(t, err)
	require.Equal(t, filepath.Dir(finalDir), root)

	ids, err := tableset.ListGenerationIDs(root)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	set, err := tableset.Open(root, 0, 8, 8)
	require.NoError(t, err)
	gen := set.Current()
	require.NotNil(t, gen)

	for _, name := range tableset.TableNames {
		_, err := gen.Table(name)
		require.NoError(t, err)
	}
}
