package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lineascope/core/internal/models"
)

func writeSample(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestStore(t *testing.T) {
	t.Run("loads all three snapshots", func(t *testing.T) {
		store, err := NewStore(writeSample(t, sampleCSV), zap.NewNop().Sugar())
		require.NoError(t, err)

		for _, id := range models.SnapshotIDs {
			graph, err := store.Graph(id)
			require.NoError(t, err)
			assert.NotEmpty(t, graph.Nodes)
		}
		assert.Len(t, store.All(), 3)
	})

	t.Run("unknown snapshot returns sentinel error", func(t *testing.T) {
		store, err := NewStore(writeSample(t, sampleCSV), zap.NewNop().Sugar())
		require.NoError(t, err)

		_, err = store.Graph("yesterday")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownSnapshot))
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := NewStore(filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop().Sugar())
		require.Error(t, err)
	})

	t.Run("failed reload keeps previous graphs", func(t *testing.T) {
		path := writeSample(t, sampleCSV)
		store, err := NewStore(path, zap.NewNop().Sugar())
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("not,a,valid\nheader\n"), 0o644))
		require.Error(t, store.Reload())

		graph, err := store.Graph(models.SnapshotPast)
		require.NoError(t, err)
		assert.NotEmpty(t, graph.Nodes)
	})

	t.Run("successful reload swaps datasets", func(t *testing.T) {
		path := writeSample(t, sampleCSV)
		store, err := NewStore(path, zap.NewNop().Sugar())
		require.NoError(t, err)

		smaller := "Feed ID,Feed Full Title,Data Warehouse 1\nF9,Only Feed,Y\n"
		require.NoError(t, os.WriteFile(path, []byte(smaller), 0o644))
		require.NoError(t, store.Reload())

		graph, err := store.Graph(models.SnapshotPast)
		require.NoError(t, err)
		assert.Len(t, graph.Nodes, 2)
	})

	t.Run("stats for a snapshot", func(t *testing.T) {
		store, err := NewStore(writeSample(t, sampleCSV), zap.NewNop().Sugar())
		require.NoError(t, err)

		stats, err := store.Stats(models.SnapshotPast)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TotalNodes)
	})
}
