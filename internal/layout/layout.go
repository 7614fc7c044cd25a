// Package layout computes initial node positions and physics configuration
// for each of the three layout strategies. Computation is stateless: every
// call derives positioned copies from the input nodes and never mutates them.
package layout

import (
	"github.com/cockroachdb/errors"

	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/models"
)

// Strategy is the closed set of layout algorithms.
type Strategy int

const (
	// ClusteredForce buckets nodes by group around fixed anchors and lets
	// the attraction/repulsion solver settle them.
	ClusteredForce Strategy = iota
	// HierarchicalLR is the manual left-to-right arrangement with per-axis
	// pinned columns.
	HierarchicalLR
	// HierarchicalUD delegates to the engine's built-in top-down
	// hierarchical arrangement with physics off.
	HierarchicalUD
)

// Wire names used by the HTTP surface and the position cache keys.
const (
	nameClustered      = "clustered"
	nameHierarchicalLR = "hierarchical-lr"
	nameHierarchicalUD = "hierarchical-ud"
)

// ErrUnknownStrategy is returned for strategy names outside the closed set.
var ErrUnknownStrategy = errors.New("unknown layout strategy")

// Strategies lists every strategy in display order.
var Strategies = []Strategy{ClusteredForce, HierarchicalLR, HierarchicalUD}

func (s Strategy) String() string {
	switch s {
	case ClusteredForce:
		return nameClustered
	case HierarchicalLR:
		return nameHierarchicalLR
	case HierarchicalUD:
		return nameHierarchicalUD
	}
	return "unknown"
}

// ParseStrategy maps a wire name onto the closed strategy set.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case nameClustered:
		return ClusteredForce, nil
	case nameHierarchicalLR:
		return HierarchicalLR, nil
	case nameHierarchicalUD:
		return HierarchicalUD, nil
	}
	return ClusteredForce, errors.Wrapf(ErrUnknownStrategy, "%q", name)
}

// Result is a uniform (positions, engine configuration) pair.
type Result struct {
	Nodes   []models.PositionedNode
	Options engine.Options
}

// Compute dispatches to the strategy's handler.
func Compute(strategy Strategy, nodes []models.Node) Result {
	switch strategy {
	case HierarchicalLR:
		return computeHierarchicalLR(nodes)
	case HierarchicalUD:
		return computeHierarchicalUD(nodes)
	default:
		return computeClustered(nodes)
	}
}

// views copies nodes into their mutable render form.
func views(nodes []models.Node) []models.PositionedNode {
	out := make([]models.PositionedNode, len(nodes))
	for i, node := range nodes {
		out[i] = models.PositionedNode{Node: node}
	}
	return out
}
