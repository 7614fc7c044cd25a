// Package connectivity builds the derived adjacency index for the active
// snapshot: node id -> neighbor ids, treating edges as undirected. The index
// is rebuilt in full on every snapshot change, never patched incrementally.
package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineascope/core/internal/models"
)

func TestBuild(t *testing.T) {
	t.Run("edges are undirected", func(t *testing.T) {
		nodes := []models.Node{
			{ID: "F1", Group: models.GroupFeed},
			{ID: "W1", Group: models.GroupWarehouse},
		}
		edges := []models.Edge{{From: "F1", To: "W1"}}

		idx := Build(nodes, edges)

		assert.True(t, idx.Neighbors["F1"]["W1"])
		assert.True(t, idx.Neighbors["W1"]["F1"])
		assert.True(t, idx.HasEdges("F1"))
		assert.True(t, idx.HasEdges("W1"))
	})

	t.Run("every node gets an entry even without edges", func(t *testing.T) {
		nodes := []models.Node{{ID: "F1"}, {ID: "F2"}}

		idx := Build(nodes, nil)

		require.Contains(t, idx.Neighbors, "F2")
		assert.Empty(t, idx.Neighbors["F2"])
		assert.False(t, idx.HasEdges("F2"))
	})

	t.Run("edges with unknown endpoints are skipped", func(t *testing.T) {
		nodes := []models.Node{{ID: "F1"}}
		edges := []models.Edge{
			{From: "F1", To: "ghost"},
			{From: "ghost", To: "F1"},
			{From: "ghost", To: "phantom"},
		}

		idx := Build(nodes, edges)

		assert.Empty(t, idx.Neighbors["F1"])
		assert.NotContains(t, idx.Neighbors, "ghost")
	})

	t.Run("duplicate edges do not double-count", func(t *testing.T) {
		nodes := []models.Node{{ID: "A"}, {ID: "B"}}
		edges := []models.Edge{
			{From: "A", To: "B"},
			{From: "A", To: "B"},
			{From: "B", To: "A"},
		}

		idx := Build(nodes, edges)

		assert.Len(t, idx.Neighbors["A"], 1)
		assert.Len(t, idx.Neighbors["B"], 1)
	})

	t.Run("lookup map carries the full node", func(t *testing.T) {
		nodes := []models.Node{{ID: "F1", Label: "Feed One", Group: models.GroupFeed}}

		idx := Build(nodes, nil)

		assert.Equal(t, "Feed One", idx.ByID["F1"].Label)
	})
}

func TestConnected(t *testing.T) {
	nodes := []models.Node{
		{ID: "F1"}, {ID: "W1"}, {ID: "W2"}, {ID: "X"},
	}
	edges := []models.Edge{
		{From: "F1", To: "W1"},
		{From: "W1", To: "W2"},
	}
	idx := Build(nodes, edges)

	t.Run("expands selection by one hop", func(t *testing.T) {
		expanded := idx.Connected([]string{"W1"})

		assert.Equal(t, map[string]bool{"F1": true, "W1": true, "W2": true}, expanded)
	})

	t.Run("does not expand transitively", func(t *testing.T) {
		expanded := idx.Connected([]string{"F1"})

		assert.True(t, expanded["W1"])
		assert.False(t, expanded["W2"])
	})

	t.Run("unknown id passes through", func(t *testing.T) {
		expanded := idx.Connected([]string{"ghost"})

		assert.Equal(t, map[string]bool{"ghost": true}, expanded)
	})

	t.Run("empty selection yields empty set", func(t *testing.T) {
		assert.Empty(t, idx.Connected(nil))
	})
}
