package render

import (
	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/models"
)

// Styling applied by a highlight pass.
const (
	dimmedOpacity   = 0.25
	emphasizedWidth = 3
	dimmedEdgeColor = "#e2e8f0"
	hideDimmedEdges = true
	focusDuration   = 600
	focusEasing     = "easeInOutQuad"
)

// ApplyHighlight expands the selection by one hop and restyles the view:
// nodes in the expanded set keep their source styling, everything else is
// dimmed. An empty selection is equivalent to ResetStyles.
func (c *Controller) ApplyHighlight(selectedIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil || c.idx == nil {
		return nil
	}
	if len(selectedIDs) == 0 {
		return c.resetStylesLocked()
	}

	expanded := c.idx.Connected(selectedIDs)

	nodes := make([]models.PositionedNode, len(c.base.Nodes))
	for i, node := range c.base.Nodes {
		nodes[i] = node
		if !expanded[node.ID] {
			dimmed := models.DimmedColor
			nodes[i].Color = &dimmed
			nodes[i].Opacity = dimmedOpacity
		}
	}

	edges := make([]engine.EdgeView, len(c.base.Edges))
	for i, edge := range c.base.Edges {
		edges[i] = edge
		if expanded[edge.From] && expanded[edge.To] {
			edges[i].Width = emphasizedWidth
		} else {
			edges[i].Color = dimmedEdgeColor
			edges[i].Hidden = hideDimmedEdges
		}
	}

	return c.eng.SetData(engine.DataSet{Nodes: nodes, Edges: edges})
}

// ResetStyles discards any highlight overlay with a full re-render from the
// pristine render view.
func (c *Controller) ResetStyles() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return nil
	}
	return c.resetStylesLocked()
}

func (c *Controller) resetStylesLocked() error {
	// Fold in the engine's current coordinates first, so the reset does not
	// snap nodes back to their pre-stabilization spots.
	if positions, err := c.eng.GetPositions(); err == nil {
		c.applyPositionsLocked(positions)
	}
	return c.eng.SetData(c.base)
}

// FocusNode centers the view on one node with a short eased transition.
func (c *Controller) FocusNode(nodeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return nil
	}
	return c.eng.Focus(nodeID, engine.FocusOptions{
		Scale: 1.2,
		Animation: &engine.Animation{
			Duration:       focusDuration,
			EasingFunction: focusEasing,
		},
	})
}

// SelectNodes mirrors the highlighted set into the engine's selection.
func (c *Controller) SelectNodes(nodeIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return nil
	}
	return c.eng.SelectNodes(nodeIDs)
}

// UnselectAll clears any engine-side selection.
func (c *Controller) UnselectAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return nil
	}
	return c.eng.UnselectAll()
}

// ActiveNodes returns the node views of the current build in data order.
// Search uses it for focus ordering; matching itself runs against the full
// snapshot via the catalog.
func (c *Controller) ActiveNodes() []models.PositionedNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.PositionedNode(nil), c.base.Nodes...)
}

// ActiveSnapshot is the snapshot backing the current build.
func (c *Controller) ActiveSnapshot() models.SnapshotID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}
