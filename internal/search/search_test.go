package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lineascope/core/internal/models"
)

// recordingView captures the calls a query makes against the controller.
type recordingView struct {
	snapshot    models.SnapshotID
	nodes       []models.PositionedNode
	highlighted [][]string
	selected    [][]string
	focused     []string
	resets      int
	unselects   int
}

func (v *recordingView) ActiveSnapshot() models.SnapshotID {
	if v.snapshot == "" {
		return models.SnapshotCurrent
	}
	return v.snapshot
}

func (v *recordingView) ActiveNodes() []models.PositionedNode { return v.nodes }

func (v *recordingView) ApplyHighlight(nodeIDs []string) error {
	v.highlighted = append(v.highlighted, append([]string(nil), nodeIDs...))
	return nil
}

func (v *recordingView) ResetStyles() error {
	v.resets++
	return nil
}

func (v *recordingView) SelectNodes(nodeIDs []string) error {
	v.selected = append(v.selected, append([]string(nil), nodeIDs...))
	return nil
}

func (v *recordingView) UnselectAll() error {
	v.unselects++
	return nil
}

func (v *recordingView) FocusNode(nodeID string) error {
	v.focused = append(v.focused, nodeID)
	return nil
}

type stubCatalog map[models.SnapshotID]*models.Graph

func (c stubCatalog) All() map[models.SnapshotID]*models.Graph { return c }

func viewNodes(nodes ...models.Node) []models.PositionedNode {
	out := make([]models.PositionedNode, len(nodes))
	for i, n := range nodes {
		out[i] = models.PositionedNode{Node: n}
	}
	return out
}

func TestApply(t *testing.T) {
	baseView := func() *recordingView {
		return &recordingView{nodes: viewNodes(
			models.Node{ID: "F1", Label: "Customer orders"},
			models.Node{ID: "Data_Warehouse_1", Label: "Data Warehouse 1"},
			models.Node{ID: "F2", Label: "Customer returns"},
		)}
	}

	t.Run("matches on id and label, in data order", func(t *testing.T) {
		view := baseView()
		s := NewSearcher(view, nil, ScopeSnapshot, zap.NewNop().Sugar())

		result, err := s.Apply("customer")

		require.NoError(t, err)
		assert.Equal(t, []string{"F1", "F2"}, result.MatchIDs)
		assert.Equal(t, "F1", result.Focused, "first match in data order gets focus")
		require.Len(t, view.highlighted, 1)
		assert.Equal(t, []string{"F1", "F2"}, view.highlighted[0])
		assert.Equal(t, []string{"F1"}, view.focused)
		require.Len(t, view.selected, 1)
		assert.Equal(t, []string{"F1", "F2"}, view.selected[0])
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		view := baseView()
		s := NewSearcher(view, nil, ScopeSnapshot, zap.NewNop().Sugar())

		result, err := s.Apply("WAREHOUSE")

		require.NoError(t, err)
		assert.Equal(t, []string{"Data_Warehouse_1"}, result.MatchIDs)
	})

	t.Run("empty query clears highlight and selection", func(t *testing.T) {
		view := baseView()
		s := NewSearcher(view, nil, ScopeSnapshot, zap.NewNop().Sugar())

		result, err := s.Apply("   ")

		require.NoError(t, err)
		assert.Empty(t, result.MatchIDs)
		assert.Equal(t, 1, view.resets)
		assert.Equal(t, 1, view.unselects)
		assert.Empty(t, view.highlighted)
		assert.Empty(t, view.focused)
	})

	t.Run("no matches clears like an empty query", func(t *testing.T) {
		view := baseView()
		s := NewSearcher(view, nil, ScopeSnapshot, zap.NewNop().Sugar())

		result, err := s.Apply("nonexistent")

		require.NoError(t, err)
		assert.Equal(t, "nonexistent", result.Query)
		assert.Empty(t, result.MatchIDs)
		assert.Equal(t, 1, view.resets)
		assert.Equal(t, 1, view.unselects)
		assert.Empty(t, view.highlighted)
	})

	t.Run("repeated query produces identical calls", func(t *testing.T) {
		view := baseView()
		s := NewSearcher(view, nil, ScopeSnapshot, zap.NewNop().Sugar())

		first, err := s.Apply("customer")
		require.NoError(t, err)
		second, err := s.Apply("customer")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		require.Len(t, view.highlighted, 2)
		assert.Equal(t, view.highlighted[0], view.highlighted[1])
	})
}

func TestApplyMatchesHiddenNodes(t *testing.T) {
	// The rendered view drops disconnected nodes, but queries run over the
	// whole snapshot so hidden nodes stay findable.
	catalog := stubCatalog{
		models.SnapshotPast: {Nodes: []models.Node{
			{ID: "F1", Label: "Customer orders"},
			{ID: "W1", Label: "Data Warehouse 1"},
			{ID: "F2", Label: "Customer returns"},
		}},
	}
	view := &recordingView{
		snapshot: models.SnapshotPast,
		nodes: viewNodes(
			models.Node{ID: "F1", Label: "Customer orders"},
			models.Node{ID: "W1", Label: "Data Warehouse 1"},
		),
	}
	s := NewSearcher(view, catalog, ScopeSnapshot, zap.NewNop().Sugar())

	result, err := s.Apply("F2")

	require.NoError(t, err)
	assert.Equal(t, []string{"F2"}, result.MatchIDs)
	assert.Empty(t, result.Focused, "hidden matches cannot be focused")
	require.Len(t, view.highlighted, 1)
	assert.Equal(t, []string{"F2"}, view.highlighted[0])
	assert.Empty(t, view.focused)
}

func TestApplyAggregateScope(t *testing.T) {
	catalog := stubCatalog{
		models.SnapshotPast: {Nodes: []models.Node{
			{ID: "F1", Label: "Customer orders"},
			{ID: "Data_Warehouse_1", Label: "Data Warehouse 1"},
		}},
		models.SnapshotCurrent: {Nodes: []models.Node{
			{ID: "F1", Label: "Customer orders"},
			{ID: "dv", Label: "Data Virtualisation", Title: "Virtualisation layer"},
		}},
		models.SnapshotFuture: {Nodes: []models.Node{
			{ID: "dl", Label: "Data Lake"},
		}},
	}

	t.Run("deduplicates across snapshots by first occurrence", func(t *testing.T) {
		view := &recordingView{nodes: viewNodes(models.Node{ID: "F1", Label: "Customer orders"})}
		s := NewSearcher(view, catalog, ScopeAll, zap.NewNop().Sugar())

		result, err := s.Apply("data")

		require.NoError(t, err)
		assert.Equal(t, []string{"Data_Warehouse_1", "dv", "dl"}, result.MatchIDs)
	})

	t.Run("matches tooltip text", func(t *testing.T) {
		view := &recordingView{nodes: viewNodes(models.Node{ID: "F1", Label: "Customer orders"})}
		s := NewSearcher(view, catalog, ScopeAll, zap.NewNop().Sugar())

		result, err := s.Apply("virtualisation layer")

		require.NoError(t, err)
		assert.Equal(t, []string{"dv"}, result.MatchIDs)
	})

	t.Run("focus skipped when every match is off screen", func(t *testing.T) {
		view := &recordingView{nodes: viewNodes(models.Node{ID: "F1", Label: "Customer orders"})}
		s := NewSearcher(view, catalog, ScopeAll, zap.NewNop().Sugar())

		result, err := s.Apply("data lake")

		require.NoError(t, err)
		assert.Equal(t, []string{"dl"}, result.MatchIDs)
		assert.Empty(t, result.Focused)
		assert.Empty(t, view.focused)
	})

	t.Run("on-screen match gets focus", func(t *testing.T) {
		view := &recordingView{nodes: viewNodes(
			models.Node{ID: "dv", Label: "Data Virtualisation"},
			models.Node{ID: "Data_Warehouse_1", Label: "Data Warehouse 1"},
		)}
		s := NewSearcher(view, catalog, ScopeAll, zap.NewNop().Sugar())

		result, err := s.Apply("data")

		require.NoError(t, err)
		assert.Equal(t, "dv", result.Focused, "view data order decides, not match order")
	})
}

func TestParseScope(t *testing.T) {
	assert.Equal(t, ScopeAll, ParseScope("all-snapshots"))
	assert.Equal(t, ScopeSnapshot, ParseScope("snapshot"))
	assert.Equal(t, ScopeSnapshot, ParseScope("per-snapshot"))
	assert.Equal(t, ScopeSnapshot, ParseScope(""))
}
